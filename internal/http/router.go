package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/studybits-backend/internal/http/handlers"
	httpMW "github.com/yungbote/studybits-backend/internal/http/middleware"
	"github.com/yungbote/studybits-backend/internal/observability"
	"github.com/yungbote/studybits-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	CORSOrigins    []string
	RequestTimeout time.Duration

	HealthHandler         *httpH.HealthHandler
	RecommendationHandler *httpH.RecommendationHandler
	ClassifyHandler       *httpH.ClassifyHandler
	SimilarityHandler     *httpH.SimilarityHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "studybits"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.RequestTimeout(cfg.RequestTimeout))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	// Metrics
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Recommendations
		if cfg.RecommendationHandler != nil {
			api.POST("/recommendations", cfg.RecommendationHandler.Recommend)
		}

		// Classification
		if cfg.ClassifyHandler != nil {
			api.POST("/classify/question", cfg.ClassifyHandler.ClassifyQuestion)
			api.POST("/classify/course", cfg.ClassifyHandler.ClassifyCourse)
			api.POST("/classify/unit", cfg.ClassifyHandler.ClassifyUnit)
		}

		// Similarity
		if cfg.SimilarityHandler != nil {
			api.POST("/similar-courses", cfg.SimilarityHandler.SimilarCourses)
		}
	}

	return r
}
