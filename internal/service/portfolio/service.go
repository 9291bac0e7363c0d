// Package portfolio stores rendered portfolios, their view counters and
// publication state.
package portfolio

import (
	"context"
	"errors"
	"time"

	"github.com/janisto/portfolio-builder/internal/profile"
)

const auditResource = "portfolio"

// Service errors
var (
	ErrNotFound  = errors.New("portfolio not found")
	ErrNotOwner  = errors.New("portfolio belongs to another user")
	ErrSlugTaken = errors.New("slug already in use")
)

// Portfolio represents a stored portfolio.
type Portfolio struct {
	ID           string
	UserID       string
	Title        string
	TemplateID   string
	Profile      profile.Profile
	HTML         string
	Slug         string
	PublishedURL string
	Published    bool
	Views        int64
	LastViewed   time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateParams for creating a portfolio.
type CreateParams struct {
	Title      string
	TemplateID string
	Profile    profile.Profile
	HTML       string
}

// Service defines portfolio operations.
//
// ListByUser returns portfolios newest first. ReserveSlug binds a slug to a
// portfolio so two portfolios never publish to the same site; reserving the
// slug a portfolio already holds succeeds. ReleaseSlug frees a reservation
// the portfolio holds and ignores slugs it does not hold. MarkPublished
// releases the portfolio's previous slug when the slug changes.
type Service interface {
	Create(ctx context.Context, userID string, params CreateParams) (*Portfolio, error)
	Get(ctx context.Context, id string) (*Portfolio, error)
	ListByUser(ctx context.Context, userID string) ([]Portfolio, error)
	RecordView(ctx context.Context, id string) (*Portfolio, error)
	ReserveSlug(ctx context.Context, id, userID, slug string) error
	ReleaseSlug(ctx context.Context, id, userID, slug string) error
	MarkPublished(ctx context.Context, id, userID, slug, url string) (*Portfolio, error)
}

// categorizeError converts errors to audit-safe categories. nil maps to the
// empty category.
func categorizeError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNotOwner):
		return "forbidden"
	case errors.Is(err, ErrSlugTaken):
		return "conflict"
	default:
		return "internal_error"
	}
}
