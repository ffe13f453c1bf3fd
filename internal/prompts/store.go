package prompts

import (
	"context"
	"sync"
)

// Store persists one Settings record per user.
type Store interface {
	// Get returns ErrNotFound when the user has saved nothing.
	Get(ctx context.Context, userID string) (*Settings, error)
	Put(ctx context.Context, userID string, s Settings) error
}

type memoryStore struct {
	mu    sync.RWMutex
	items map[string]Settings
}

// NewMemoryStore returns a Store held in process memory.
func NewMemoryStore() Store {
	return &memoryStore{items: make(map[string]Settings)}
}

func (m *memoryStore) Get(_ context.Context, userID string) (*Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.items[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *memoryStore) Put(_ context.Context, userID string, s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.Pricing != nil {
		p := *s.Pricing
		s.Pricing = &p
	}
	m.items[userID] = s
	return nil
}
