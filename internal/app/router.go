package app

import (
	apphttp "github.com/yungbote/studybits-backend/internal/http"
	"github.com/yungbote/studybits-backend/internal/observability"
	"github.com/yungbote/studybits-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *apphttp.Server {
	return apphttp.NewServer(":"+cfg.Port, apphttp.RouterConfig{
		Log:                   log,
		Metrics:               metrics,
		ServiceName:           "studybits",
		CORSOrigins:           cfg.CORSOrigins,
		RequestTimeout:        cfg.RequestTimeout,
		HealthHandler:         handlers.Health,
		RecommendationHandler: handlers.Recommendation,
		ClassifyHandler:       handlers.Classify,
		SimilarityHandler:     handlers.Similarity,
	})
}
