package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/yungbote/studybits-backend/internal/data/docstore"
	"github.com/yungbote/studybits-backend/internal/data/fixtures"
	"github.com/yungbote/studybits-backend/internal/platform/envutil"
	"github.com/yungbote/studybits-backend/internal/platform/firestoredb"
	"github.com/yungbote/studybits-backend/internal/platform/logger"
)

type writerStore interface {
	docstore.Writer
	Close() error
}

func main() {
	var (
		file    = flag.String("file", "fixtures.yaml", "YAML fixtures to load")
		backend = flag.String("backend", envutil.String("DOCSTORE_BACKEND", "firestore"), "firestore | postgres | sqlite")
		dsn     = flag.String("dsn", envutil.String("POSTGRES_DSN", ""), "postgres DSN")
		sqlite  = flag.String("sqlite", envutil.String("SQLITE_PATH", "studybits.db"), "sqlite database path")
	)
	flag.Parse()

	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(context.Background(), log, *file, strings.ToLower(*backend), *dsn, *sqlite); err != nil {
		log.Error("seed failed", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger, file, backend, dsn, sqlitePath string) error {
	f, err := fixtures.Load(file)
	if err != nil {
		return err
	}

	var store writerStore
	switch backend {
	case "firestore":
		store, err = firestoredb.New(ctx, log, firestoredb.Config{
			ProjectID:       envutil.String("FIRESTORE_PROJECT_ID", ""),
			CredentialsJSON: envutil.String("FIREBASE_CREDENTIALS_JSON", ""),
			CredentialsFile: envutil.String("FIREBASE_CREDENTIALS_FILE", ""),
		})
	case "postgres":
		store, err = docstore.OpenPostgres(dsn, log)
	case "sqlite":
		store, err = docstore.OpenSQLite(sqlitePath, log)
	default:
		return fmt.Errorf("unsupported backend %q", backend)
	}
	if err != nil {
		return err
	}
	defer store.Close()

	st, err := fixtures.Apply(ctx, store, f)
	if err != nil {
		return err
	}
	log.Info("seed complete",
		"backend", backend,
		"courses", st.Courses,
		"units", st.Units,
		"questions", st.Questions,
		"learning_states", st.Learning,
	)
	return nil
}
