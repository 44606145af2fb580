package docstore

import (
	"context"
	"sync"
)

// MemoryStore keeps documents in process. Streaming follows insertion order.
type MemoryStore struct {
	mu    sync.RWMutex
	docs  map[string]map[string]Record
	order map[string][]string

	// GetErr, when set, is consulted before every Get; returning a non-nil error fails it.
	GetErr func(collection, id string) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:  map[string]map[string]Record{},
		order: map[string][]string{},
	}
}

func (s *MemoryStore) Put(_ context.Context, collection, id string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.docs[collection]
	if !ok {
		coll = map[string]Record{}
		s.docs[collection] = coll
	}
	if _, exists := coll[id]; !exists {
		s.order[collection] = append(s.order[collection], id)
	}
	coll[id] = copyRecord(rec)
	return nil
}

// MustPut is Put for fixtures.
func (s *MemoryStore) MustPut(collection, id string, rec Record) {
	_ = s.Put(context.Background(), collection, id, rec)
}

func (s *MemoryStore) Delete(collection, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.docs[collection]
	if !ok {
		return
	}
	if _, exists := coll[id]; !exists {
		return
	}
	delete(coll, id)
	ids := s.order[collection]
	for i, v := range ids {
		if v == id {
			s.order[collection] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if s.GetErr != nil {
		if err := s.GetErr(collection, id); err != nil {
			return nil, false, err
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.docs[collection][id]
	if !ok {
		return nil, false, nil
	}
	return copyRecord(rec), true, nil
}

// Stream snapshots the collection ids at call time.
func (s *MemoryStore) Stream(ctx context.Context, collection string) Iterator {
	s.mu.RLock()
	ids := append([]string(nil), s.order[collection]...)
	s.mu.RUnlock()
	return &memoryIterator{ctx: ctx, store: s, collection: collection, ids: ids}
}

func (s *MemoryStore) Close() error { return nil }

type memoryIterator struct {
	ctx        context.Context
	store      *MemoryStore
	collection string
	ids        []string
	pos        int
}

func (it *memoryIterator) Next() (Document, error) {
	for it.pos < len(it.ids) {
		if err := it.ctx.Err(); err != nil {
			return Document{}, err
		}
		id := it.ids[it.pos]
		it.pos++
		it.store.mu.RLock()
		rec, ok := it.store.docs[it.collection][id]
		it.store.mu.RUnlock()
		if !ok {
			continue
		}
		return Document{ID: id, Data: copyRecord(rec)}, nil
	}
	return Document{}, Done
}

func (it *memoryIterator) Stop() { it.pos = len(it.ids) }

func copyRecord(rec Record) Record {
	if rec == nil {
		return Record{}
	}
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
