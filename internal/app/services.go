package app

import (
	"github.com/yungbote/studybits-backend/internal/modules/classify"
	"github.com/yungbote/studybits-backend/internal/modules/recommend"
	"github.com/yungbote/studybits-backend/internal/modules/similarity"
	"github.com/yungbote/studybits-backend/internal/observability"
	"github.com/yungbote/studybits-backend/internal/platform/logger"
)

type Services struct {
	Recommend  recommend.Usecases
	Classify   classify.Usecases
	Similarity similarity.Usecases
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	// openai -> rate limit + breaker -> redis cache (outermost)
	var tagger classify.TagGenerator
	if clients.OpenAI != nil {
		tagger = classify.NewGuardedGenerator(classify.NewOpenAIGenerator(clients.OpenAI), cfg.TaggerGuard, log, metrics)
		if clients.Redis != nil {
			tagger = classify.NewCachedGenerator(tagger, clients.Redis, cfg.TagCacheTTL, log, metrics)
		}
	}

	return Services{
		Recommend: recommend.New(recommend.UsecasesDeps{
			Store:             clients.Store,
			Log:               log,
			Metrics:           metrics,
			MatchThreshold:    &cfg.RecommendMatchThreshold,
			DislikedThreshold: &cfg.RecommendDislikedThreshold,
			DefaultTopK:       cfg.RecommendTopK,
		}),
		Classify: classify.New(classify.UsecasesDeps{
			Store:  clients.Store,
			Log:    log,
			Tagger: tagger,
		}),
		Similarity: similarity.New(similarity.UsecasesDeps{
			Store:           clients.Store,
			Log:             log,
			CourseThreshold: &cfg.SimilarityCourseThreshold,
			UnitThreshold:   &cfg.SimilarityUnitThreshold,
			DefaultTopK:     cfg.RecommendTopK,
		}),
	}
}
