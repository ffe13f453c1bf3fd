package submissions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/JaimeStill/addrsplit/internal/address"
)

// Store persists submissions. Every lookup is scoped by user id, and
// expired submissions are never returned.
type Store interface {
	Put(ctx context.Context, s *address.Submission) error
	Get(ctx context.Context, userID, submissionID string) (*address.Submission, error)
	// ListRecent returns at most limit submissions, newest first.
	ListRecent(ctx context.Context, userID string, limit int) ([]address.Submission, error)
	SetPreferred(ctx context.Context, userID, submissionID string, id address.PipelineID) error
}

type memoryStore struct {
	mu   sync.RWMutex
	now  func() time.Time
	subs map[string]map[string]address.Submission
}

// NewMemoryStore returns a process-local Store.
func NewMemoryStore() Store {
	return &memoryStore{
		now:  time.Now,
		subs: make(map[string]map[string]address.Submission),
	}
}

func (m *memoryStore) Put(_ context.Context, s *address.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	owned, ok := m.subs[s.UserID]
	if !ok {
		owned = make(map[string]address.Submission)
		m.subs[s.UserID] = owned
	}
	if _, exists := owned[s.SubmissionID]; exists {
		return ErrDuplicate
	}
	owned[s.SubmissionID] = *s
	return nil
}

func (m *memoryStore) Get(_ context.Context, userID, submissionID string) (*address.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.subs[userID][submissionID]
	if !ok || !s.ExpiresAt.After(m.now()) {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *memoryStore) ListRecent(_ context.Context, userID string, limit int) ([]address.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	out := make([]address.Submission, 0, len(m.subs[userID]))
	for _, s := range m.subs[userID] {
		if s.ExpiresAt.After(now) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmissionID > out[j].SubmissionID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) SetPreferred(_ context.Context, userID, submissionID string, id address.PipelineID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.subs[userID][submissionID]
	if !ok || !s.ExpiresAt.After(m.now()) {
		return ErrNotFound
	}
	s.PreferredMethod = &id
	m.subs[userID][submissionID] = s
	return nil
}
