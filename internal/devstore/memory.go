package devstore

import (
	"context"
	"sort"
	"sync"

	"github.com/recdeck/recdeck/internal/record"
)

// MemoryStore keeps the collection in a map. Contents are lost on exit.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[int]record.Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[int]record.Record)}
}

// Open is a no-op for the in-memory store.
func (s *MemoryStore) Open() error { return nil }

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) All(ctx context.Context) ([]record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]record.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Insert(ctx context.Context, rec record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return errDuplicateID(rec.ID)
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *MemoryStore) Replace(ctx context.Context, id int, rec record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[id]; !exists {
		return errNoSuchRecord(id)
	}
	// A replace that changes the id moves the record to the new key.
	delete(s.records, id)
	s.records[rec.ID] = rec
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[id]; !exists {
		return errNoSuchRecord(id)
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}
