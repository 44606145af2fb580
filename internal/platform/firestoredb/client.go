package firestoredb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yungbote/studybits-backend/internal/data/docstore"
	"github.com/yungbote/studybits-backend/internal/platform/logger"
)

type Config struct {
	ProjectID string
	// CredentialsJSON takes precedence over CredentialsFile. When both are empty
	// application default credentials are used.
	CredentialsJSON string
	CredentialsFile string
}

// Client adapts a Firestore client to docstore.Store.
type Client struct {
	fs  *firestore.Client
	log *logger.Logger
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	projectID := strings.TrimSpace(cfg.ProjectID)
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	fs, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: firestore client: %v", docstore.ErrUnavailable, err)
	}
	return &Client{fs: fs, log: log.With("store", "firestore")}, nil
}

func (c *Client) Get(ctx context.Context, collection, id string) (docstore.Record, bool, error) {
	if strings.TrimSpace(id) == "" {
		return nil, false, nil
	}
	snap, err := c.fs.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, false, nil
		}
		return nil, false, wrapErr(err)
	}
	if !snap.Exists() {
		return nil, false, nil
	}
	return docstore.Record(snap.Data()), true, nil
}

func (c *Client) Stream(ctx context.Context, collection string) docstore.Iterator {
	return &docIterator{it: c.fs.Collection(collection).Documents(ctx)}
}

func (c *Client) Put(ctx context.Context, collection, id string, rec docstore.Record) error {
	_, err := c.fs.Collection(collection).Doc(id).Set(ctx, map[string]interface{}(rec))
	return wrapErr(err)
}

func (c *Client) Close() error { return c.fs.Close() }

type docIterator struct {
	it *firestore.DocumentIterator
}

func (d *docIterator) Next() (docstore.Document, error) {
	snap, err := d.it.Next()
	if errors.Is(err, iterator.Done) {
		return docstore.Document{}, docstore.Done
	}
	if err != nil {
		return docstore.Document{}, wrapErr(err)
	}
	return docstore.Document{ID: snap.Ref.ID, Data: docstore.Record(snap.Data())}, nil
}

func (d *docIterator) Stop() { d.it.Stop() }

// wrapErr tags connectivity/auth failures as ErrUnavailable so callers can tell a
// dead store apart from one bad document.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.Unauthenticated, codes.PermissionDenied, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %v", docstore.ErrUnavailable, err)
	default:
		return err
	}
}
