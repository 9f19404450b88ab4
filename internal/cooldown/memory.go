package cooldown

import (
	"context"
	"sync"
)

// MemoryStore is a thread-safe in-memory cooldown store. Used in tests and
// for local runs without a database; records vanish on restart, so every
// owner looks freshly eligible after a redeploy.
type MemoryStore struct {
	mu      sync.RWMutex
	byOwner map[string]int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byOwner: make(map[string]int64)}
}

func (s *MemoryStore) Get(ctx context.Context, owner string) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.byOwner[owner]
	return ts, ok, nil
}

func (s *MemoryStore) Set(ctx context.Context, owner string, ts int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byOwner[owner] = ts
	return nil
}
