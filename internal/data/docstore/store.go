package docstore

import (
	"context"
	"errors"
)

// Done is returned by Iterator.Next when the collection is exhausted.
var Done = errors.New("docstore: no more documents")

// ErrUnavailable marks a store that could not be reached at all, as opposed to a
// single document that failed to load.
var ErrUnavailable = errors.New("docstore: store unavailable")

// Record is the field map of one stored document.
type Record map[string]any

type Document struct {
	ID   string
	Data Record
}

// Iterator enumerates one collection lazily. Callers must call Stop when done.
type Iterator interface {
	Next() (Document, error)
	Stop()
}

// Store is the read surface the recommendation and classification modules need.
// Get reports absence with ok=false and a nil error.
type Store interface {
	Get(ctx context.Context, collection, id string) (rec Record, ok bool, err error)
	Stream(ctx context.Context, collection string) Iterator
	Close() error
}

// Writer is implemented by backends that can be seeded.
type Writer interface {
	Put(ctx context.Context, collection, id string, rec Record) error
}

// errIterator yields a single error from Next.
type errIterator struct{ err error }

func (it errIterator) Next() (Document, error) { return Document{}, it.err }
func (it errIterator) Stop()                   {}

// ErrIterator returns an iterator whose Next always fails with err.
func ErrIterator(err error) Iterator { return errIterator{err: err} }
