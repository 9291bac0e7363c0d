package chat

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Store in process memory. It backs local development
// and unit tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Create(_ context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	s := &Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		CurrentStep: initialStep,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.sessions[s.ID] = s
	return copySession(s), nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return copySession(s), nil
}

func (m *MemoryStore) RecordTurn(_ context.Context, id string, rec TurnRecord) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	next := copySession(s)
	next.apply(rec)
	next.UpdatedAt = m.now()
	m.sessions[id] = next
	return copySession(next), nil
}

func (m *MemoryStore) Clear(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func copySession(s *Session) *Session {
	out := *s
	out.Turns = slices.Clone(s.Turns)
	out.Profile = s.Profile.Clone()
	return &out
}

// Compile-time interface check
var _ Store = (*MemoryStore)(nil)
