package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/studybits-backend/internal/data/docstore"
	"github.com/yungbote/studybits-backend/internal/data/fixtures"
	"github.com/yungbote/studybits-backend/internal/platform/firestoredb"
	"github.com/yungbote/studybits-backend/internal/platform/logger"
	"github.com/yungbote/studybits-backend/internal/platform/openai"
	"github.com/yungbote/studybits-backend/internal/platform/rediscache"
)

type Clients struct {
	Store  docstore.Store
	OpenAI openai.Client
	Redis  *rediscache.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	store, err := openStore(ctx, log, cfg)
	if err != nil {
		return Clients{}, err
	}

	// OpenAI is optional; classification answers 503 without it.
	var ai openai.Client
	if strings.TrimSpace(cfg.OpenAI.APIKey) != "" {
		ai, err = openai.NewClient(log, cfg.OpenAI)
		if err != nil {
			_ = store.Close()
			return Clients{}, fmt.Errorf("init openai client: %w", err)
		}
	} else {
		log.Warn("OPENAI_API_KEY not set; classification endpoints will return 503")
	}

	// Redis only backs the tag cache, so an unreachable server is not fatal.
	var rc *rediscache.Client
	if cfg.Redis.Enabled() {
		rc, err = rediscache.New(ctx, log, cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable; tag cache disabled", "error", err)
			rc = nil
		}
	}

	return Clients{Store: store, OpenAI: ai, Redis: rc}, nil
}

func openStore(ctx context.Context, log *logger.Logger, cfg Config) (docstore.Store, error) {
	switch cfg.DocstoreBackend {
	case BackendFirestore:
		fs, err := firestoredb.New(ctx, log, cfg.Firestore)
		if err != nil {
			return nil, fmt.Errorf("init firestore: %w", err)
		}
		return fs, nil
	case BackendPostgres:
		s, err := docstore.OpenPostgres(cfg.PostgresDSN, log)
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		return s, nil
	case BackendSQLite:
		s, err := docstore.OpenSQLite(cfg.SQLitePath, log)
		if err != nil {
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
		return s, nil
	case BackendMemory:
		s := docstore.NewMemoryStore()
		if cfg.SeedFile != "" {
			f, err := fixtures.Load(cfg.SeedFile)
			if err != nil {
				return nil, err
			}
			st, err := fixtures.Apply(ctx, s, f)
			if err != nil {
				return nil, fmt.Errorf("seed memory store: %w", err)
			}
			log.Info("memory store seeded", "file", cfg.SeedFile, "courses", st.Courses, "questions", st.Questions)
		} else {
			log.Warn("memory docstore starts empty; set SEED_FILE to load fixtures")
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown DOCSTORE_BACKEND %q", cfg.DocstoreBackend)
	}
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}
