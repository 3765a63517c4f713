package store

import (
	"context"
	"sync"

	"github.com/mbertrand/alluvial/pkg/errors"
)

// MemoryStore keeps charts in process memory. It is the default for the
// server when no MongoDB URI is configured, and for tests.
type MemoryStore struct {
	mu     sync.RWMutex
	charts map[string]Chart
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{charts: make(map[string]Chart)}
}

// Put stores a chart, replacing any existing entry with the same ID.
func (s *MemoryStore) Put(ctx context.Context, c Chart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charts[c.ID] = c
	return nil
}

// Get retrieves a chart by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (Chart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.charts[id]
	if !ok {
		return Chart{}, errors.New(errors.ErrCodeNotFound, "chart %s not found", id)
	}
	return c, nil
}

// Close does nothing for the in-memory store.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
