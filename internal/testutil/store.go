package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/XiaoConstantine/mimic-go/pkg/errors"
	"github.com/XiaoConstantine/mimic-go/pkg/store"
)

// MemStore is an in-memory store.Store honoring the full contract: records
// are cloned and normalized on the way in, CreatedAt survives upserts, Load
// on a missing id is UnknownPersona and Delete is idempotent. Engine tests
// use it to avoid touching disk.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]*store.Record
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]*store.Record)}
}

func (s *MemStore) Save(ctx context.Context, rec *store.Record) error {
	if err := errors.CheckContext(ctx, "save"); err != nil {
		return err
	}
	if rec == nil {
		return errors.New(errors.InvalidInput, "cannot save a nil record")
	}

	cl := rec.Clone()
	cl.Normalize()
	if err := cl.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.records[cl.ID]; ok {
		cl.CreatedAt = prev.CreatedAt
	}
	s.records[cl.ID] = cl
	return nil
}

func (s *MemStore) Load(ctx context.Context, id string) (*store.Record, error) {
	if err := errors.CheckContext(ctx, "load"); err != nil {
		return nil, err
	}

	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.WithFields(
			errors.New(errors.UnknownPersona, "persona not stored"),
			errors.Fields{"persona_id": id})
	}
	return rec.Clone(), nil
}

func (s *MemStore) Delete(ctx context.Context, id string) error {
	if err := errors.CheckContext(ctx, "delete"); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.records, id)
	s.mu.Unlock()
	return nil
}

func (s *MemStore) List(ctx context.Context) ([]string, error) {
	if err := errors.CheckContext(ctx, "list"); err != nil {
		return nil, err
	}

	s.mu.RLock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids, nil
}

func (s *MemStore) Close() error {
	return nil
}

// Len reports how many records are stored.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
