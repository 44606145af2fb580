package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/studybits-backend/internal/platform/logger"
)

const defaultPageSize = 200

// DocumentRow stores one document of any collection. Collection is the full
// slash-separated path, e.g. "courses/c1/units".
type DocumentRow struct {
	Collection string         `gorm:"column:collection;primaryKey;size:512" json:"collection"`
	ID         string         `gorm:"column:id;primaryKey;size:256" json:"id"`
	Data       datatypes.JSON `gorm:"column:data" json:"data"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
}

func (DocumentRow) TableName() string { return "document" }

// SQLStore implements Store on top of gorm.
type SQLStore struct {
	db       *gorm.DB
	log      *logger.Logger
	pageSize int
}

func NewSQLStore(db *gorm.DB, baseLog *logger.Logger) *SQLStore {
	return &SQLStore{db: db, log: baseLog.With("store", "SQLStore"), pageSize: defaultPageSize}
}

func OpenPostgres(dsn string, baseLog *logger.Logger) (*SQLStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: connect postgres: %v", ErrUnavailable, err)
	}
	s := NewSQLStore(db, baseLog)
	if err := s.AutoMigrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func OpenSQLite(path string, baseLog *logger.Logger) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %v", ErrUnavailable, err)
	}
	// A single connection keeps ":memory:" databases coherent.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	s := NewSQLStore(db, baseLog)
	if err := s.AutoMigrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger: gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				SlowThreshold:             1 * time.Second,
				LogLevel:                  gormLogger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	}
}

func (s *SQLStore) AutoMigrate() error {
	if err := s.db.AutoMigrate(&DocumentRow{}); err != nil {
		return fmt.Errorf("automigrate documents: %w", err)
	}
	return nil
}

func (s *SQLStore) DB() *gorm.DB { return s.db }

func (s *SQLStore) Get(ctx context.Context, collection, id string) (Record, bool, error) {
	var row DocumentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	rec, err := decodeRecord(row.Data)
	if err != nil {
		return nil, false, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return rec, true, nil
}

func (s *SQLStore) Put(ctx context.Context, collection, id string, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	now := time.Now().UTC()
	row := DocumentRow{Collection: collection, ID: id, Data: datatypes.JSON(raw), CreatedAt: now, UpdatedAt: now}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&row).Error
}

// Stream pages through the collection by id so no cursor is held open between
// calls to Next; callers may issue Gets while iterating.
func (s *SQLStore) Stream(ctx context.Context, collection string) Iterator {
	return &sqlIterator{ctx: ctx, store: s, collection: collection}
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type sqlIterator struct {
	ctx        context.Context
	store      *SQLStore
	collection string
	buf        []DocumentRow
	lastID     string
	exhausted  bool
}

func (it *sqlIterator) Next() (Document, error) {
	for {
		if len(it.buf) > 0 {
			row := it.buf[0]
			it.buf = it.buf[1:]
			rec, err := decodeRecord(row.Data)
			if err != nil {
				return Document{ID: row.ID}, fmt.Errorf("decode %s/%s: %w", it.collection, row.ID, err)
			}
			return Document{ID: row.ID, Data: rec}, nil
		}
		if it.exhausted {
			return Document{}, Done
		}
		if err := it.fill(); err != nil {
			it.exhausted = true
			return Document{}, err
		}
	}
}

func (it *sqlIterator) fill() error {
	var rows []DocumentRow
	q := it.store.db.WithContext(it.ctx).
		Where("collection = ?", it.collection)
	if it.lastID != "" {
		q = q.Where("id > ?", it.lastID)
	}
	if err := q.Order("id ASC").Limit(it.store.pageSize).Find(&rows).Error; err != nil {
		return fmt.Errorf("%w: stream %s: %v", ErrUnavailable, it.collection, err)
	}
	if len(rows) < it.store.pageSize {
		it.exhausted = true
	}
	if len(rows) > 0 {
		it.lastID = rows[len(rows)-1].ID
	}
	it.buf = rows
	return nil
}

func (it *sqlIterator) Stop() {
	it.buf = nil
	it.exhausted = true
}

func decodeRecord(raw datatypes.JSON) (Record, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return Record{}, nil
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}
