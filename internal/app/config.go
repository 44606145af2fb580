package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/studybits-backend/internal/modules/classify"
	"github.com/yungbote/studybits-backend/internal/modules/recommend"
	"github.com/yungbote/studybits-backend/internal/modules/similarity"
	"github.com/yungbote/studybits-backend/internal/platform/envutil"
	"github.com/yungbote/studybits-backend/internal/platform/firestoredb"
	"github.com/yungbote/studybits-backend/internal/platform/logger"
	"github.com/yungbote/studybits-backend/internal/platform/openai"
	"github.com/yungbote/studybits-backend/internal/platform/rediscache"
)

const (
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
	BackendMemory    = "memory"
)

type Config struct {
	Port        string
	Environment string
	Version     string

	DocstoreBackend string
	Firestore       firestoredb.Config
	PostgresDSN     string
	SQLitePath      string
	// SeedFile is applied to the memory backend at startup.
	SeedFile string

	RecommendMatchThreshold    float64
	RecommendDislikedThreshold float64
	RecommendTopK              int

	SimilarityCourseThreshold float64
	SimilarityUnitThreshold   float64

	OpenAI      openai.Config
	TaggerGuard classify.GuardConfig
	Redis       rediscache.Config
	TagCacheTTL time.Duration

	CORSOrigins     []string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	guard := classify.DefaultGuardConfig()
	guard.RatePerSecond = envutil.Float("TAGGER_RATE_PER_SECOND", guard.RatePerSecond)
	guard.Burst = envutil.Int("TAGGER_BURST", guard.Burst)
	guard.FailureThreshold = uint32(max(1, envutil.Int("TAGGER_BREAKER_FAILURES", int(guard.FailureThreshold))))
	guard.MaxRequests = uint32(max(1, envutil.Int("TAGGER_BREAKER_HALF_OPEN_REQUESTS", int(guard.MaxRequests))))
	guard.Timeout = envutil.Duration("TAGGER_BREAKER_TIMEOUT", guard.Timeout)
	guard.Interval = envutil.Duration("TAGGER_BREAKER_INTERVAL", guard.Interval)

	cfg := Config{
		Port:        envutil.String("PORT", "8080"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),

		DocstoreBackend: strings.ToLower(strings.TrimSpace(envutil.String("DOCSTORE_BACKEND", BackendFirestore))),
		Firestore: firestoredb.Config{
			ProjectID:       envutil.String("FIRESTORE_PROJECT_ID", ""),
			CredentialsJSON: envutil.String("FIREBASE_CREDENTIALS_JSON", ""),
			CredentialsFile: envutil.String("FIREBASE_CREDENTIALS_FILE", ""),
		},
		PostgresDSN: postgresDSN(),
		SQLitePath:  envutil.String("SQLITE_PATH", "studybits.db"),
		SeedFile:    envutil.String("SEED_FILE", ""),

		RecommendMatchThreshold:    envutil.Float("RECOMMEND_MATCH_THRESHOLD", recommend.DefaultMatchThreshold),
		RecommendDislikedThreshold: envutil.Float("RECOMMEND_DISLIKED_THRESHOLD", recommend.DefaultDislikedThreshold),
		RecommendTopK:              envutil.Int("RECOMMEND_DEFAULT_TOP_K", recommend.DefaultTopK),

		SimilarityCourseThreshold: envutil.Float("SIMILARITY_COURSE_THRESHOLD", similarity.DefaultCourseThreshold),
		SimilarityUnitThreshold:   envutil.Float("SIMILARITY_UNIT_THRESHOLD", similarity.DefaultUnitThreshold),

		OpenAI:      openai.ConfigFromEnv(),
		TaggerGuard: guard,
		Redis:       rediscache.ConfigFromEnv(),
		TagCacheTTL: envutil.Duration("TAG_CACHE_TTL", 7*24*time.Hour),

		CORSOrigins:     envutil.CSV("CORS_ORIGINS", nil),
		RequestTimeout:  envutil.Duration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}

	if log != nil {
		log.Info("config loaded",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"docstore_backend", cfg.DocstoreBackend,
			"openai_configured", strings.TrimSpace(cfg.OpenAI.APIKey) != "",
			"redis_configured", cfg.Redis.Enabled(),
		)
	}
	return cfg
}

// Validate rejects values the modules cannot run with.
func (c Config) Validate() error {
	switch c.DocstoreBackend {
	case BackendFirestore, BackendPostgres, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown DOCSTORE_BACKEND %q", c.DocstoreBackend)
	}
	for name, v := range map[string]float64{
		"RECOMMEND_MATCH_THRESHOLD":    c.RecommendMatchThreshold,
		"RECOMMEND_DISLIKED_THRESHOLD": c.RecommendDislikedThreshold,
		"SIMILARITY_COURSE_THRESHOLD":  c.SimilarityCourseThreshold,
		"SIMILARITY_UNIT_THRESHOLD":    c.SimilarityUnitThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0, 1], got %v", name, v)
		}
	}
	if c.RecommendTopK < 1 {
		return fmt.Errorf("RECOMMEND_DEFAULT_TOP_K must be positive, got %d", c.RecommendTopK)
	}
	if c.DocstoreBackend == BackendPostgres && c.PostgresDSN == "" {
		return fmt.Errorf("postgres backend requires POSTGRES_DSN or POSTGRES_HOST")
	}
	return nil
}

func postgresDSN() string {
	if dsn := strings.TrimSpace(envutil.String("POSTGRES_DSN", "")); dsn != "" {
		return dsn
	}
	host := strings.TrimSpace(envutil.String("POSTGRES_HOST", ""))
	if host == "" {
		return ""
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host,
		envutil.String("POSTGRES_PORT", "5432"),
		envutil.String("POSTGRES_USER", "postgres"),
		envutil.String("POSTGRES_PASSWORD", ""),
		envutil.String("POSTGRES_NAME", "studybits"),
		envutil.String("POSTGRES_SSLMODE", "disable"),
	)
}
