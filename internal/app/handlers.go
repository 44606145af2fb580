package app

import (
	httpH "github.com/yungbote/studybits-backend/internal/http/handlers"
	"github.com/yungbote/studybits-backend/internal/platform/logger"
)

type Handlers struct {
	Health         *httpH.HealthHandler
	Recommendation *httpH.RecommendationHandler
	Classify       *httpH.ClassifyHandler
	Similarity     *httpH.SimilarityHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:         httpH.NewHealthHandler(),
		Recommendation: httpH.NewRecommendationHandler(log, services.Recommend),
		Classify:       httpH.NewClassifyHandler(log, services.Classify),
		Similarity:     httpH.NewSimilarityHandler(log, services.Similarity),
	}
}
