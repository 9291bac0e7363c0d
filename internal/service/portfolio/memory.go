package portfolio

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Service in memory. It backs local runs without
// Firebase and unit tests.
type MemoryStore struct {
	mu         sync.RWMutex
	portfolios map[string]*Portfolio
	slugs      map[string]string
	now        func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		portfolios: make(map[string]*Portfolio),
		slugs:      make(map[string]string),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Create(_ context.Context, userID string, params CreateParams) (*Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	p := &Portfolio{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      strings.TrimSpace(params.Title),
		TemplateID: params.TemplateID,
		Profile:    params.Profile.Clone(),
		HTML:       params.HTML,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.portfolios[p.ID] = p
	return copyPortfolio(p), nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Portfolio, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.portfolios[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyPortfolio(p), nil
}

func (m *MemoryStore) ListByUser(_ context.Context, userID string) ([]Portfolio, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Portfolio
	for _, p := range m.portfolios {
		if p.UserID == userID {
			out = append(out, *copyPortfolio(p))
		}
	}
	slices.SortFunc(out, func(a, b Portfolio) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *MemoryStore) RecordView(_ context.Context, id string) (*Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.portfolios[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Views++
	p.LastViewed = m.now()
	return copyPortfolio(p), nil
}

func (m *MemoryStore) ReserveSlug(_ context.Context, id, userID, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.portfolios[id]
	if !ok {
		return ErrNotFound
	}
	if p.UserID != userID {
		return ErrNotOwner
	}
	if holder, taken := m.slugs[slug]; taken && holder != id {
		return ErrSlugTaken
	}
	m.slugs[slug] = id
	return nil
}

func (m *MemoryStore) ReleaseSlug(_ context.Context, id, userID, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.portfolios[id]
	if !ok {
		return ErrNotFound
	}
	if p.UserID != userID {
		return ErrNotOwner
	}
	m.release(id, slug)
	return nil
}

// release drops the reservation of slug when id holds it. Callers hold mu.
func (m *MemoryStore) release(id, slug string) {
	if m.slugs[slug] == id {
		delete(m.slugs, slug)
	}
}

func (m *MemoryStore) MarkPublished(_ context.Context, id, userID, slug, url string) (*Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.portfolios[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.UserID != userID {
		return nil, ErrNotOwner
	}
	if p.Slug != "" && p.Slug != slug {
		m.release(id, p.Slug)
	}
	p.Slug = slug
	p.PublishedURL = url
	p.Published = true
	p.UpdatedAt = m.now()
	return copyPortfolio(p), nil
}

func copyPortfolio(p *Portfolio) *Portfolio {
	c := *p
	c.Profile = p.Profile.Clone()
	return &c
}

// Compile-time interface check
var _ Service = (*MemoryStore)(nil)
