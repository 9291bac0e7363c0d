package publish

import (
	"context"
	"fmt"
	"sync"
)

// MockPublisher implements Publisher in memory for tests and local runs.
type MockPublisher struct {
	BaseURL string
	// Err, when set, is returned wrapped in ErrPublishFailed.
	Err error

	mu    sync.Mutex
	sites map[string]string
}

// NewMockPublisher creates a mock serving URLs under baseURL.
func NewMockPublisher(baseURL string) *MockPublisher {
	return &MockPublisher{BaseURL: baseURL, sites: make(map[string]string)}
}

func (m *MockPublisher) Publish(_ context.Context, slug, html string) (string, error) {
	if m.Err != nil {
		return "", fmt.Errorf("%w: %w", ErrPublishFailed, m.Err)
	}
	if !ValidSlug(slug) {
		return "", fmt.Errorf("%w: invalid slug %q", ErrPublishFailed, slug)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sites == nil {
		m.sites = make(map[string]string)
	}
	m.sites[ObjectKey(slug)] = html
	return PublicURL(m.BaseURL, slug), nil
}

func (m *MockPublisher) Unpublish(_ context.Context, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sites, ObjectKey(slug))
	return nil
}

// Site returns the stored html for slug.
func (m *MockPublisher) Site(slug string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	html, ok := m.sites[ObjectKey(slug)]
	return html, ok
}

// Compile-time interface check
var _ Publisher = (*MockPublisher)(nil)
