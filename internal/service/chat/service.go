// Package chat runs the portfolio interview: each turn produces an assistant
// reply and folds newly extracted details into the session's profile.
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/janisto/portfolio-builder/internal/profile"
)

// Service errors
var (
	ErrValidation      = errors.New("validation failed")
	ErrSessionNotFound = errors.New("chat session not found")
)

// ValidationError reports a missing or malformed turn input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// Is lets errors.Is match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one chronological message of a session. Turns are never mutated
// after they are appended.
type Turn struct {
	Role      string
	Content   string
	Timestamp time.Time
}

// Session is the stored state of one interview.
type Session struct {
	ID          string
	UserID      string
	Turns       []Turn
	Profile     profile.Profile
	CurrentStep int
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TurnRecord is one answered turn: the exchange to append and the details
// extracted from it.
type TurnRecord struct {
	Turns []Turn
	Delta profile.Profile
}

// apply folds rec into s. The delta is merged into the stored profile and the
// step advances from the stored value, so concurrent turns never undo each
// other.
func (s *Session) apply(rec TurnRecord) {
	s.Turns = append(s.Turns, rec.Turns...)
	s.Profile = profile.Merge(s.Profile, rec.Delta.Clone())
	s.CurrentStep++
	s.Completed = s.CurrentStep > TopicCount
}

// Store persists sessions.
type Store interface {
	Create(ctx context.Context, userID string) (*Session, error)
	Load(ctx context.Context, id string) (*Session, error)
	// RecordTurn applies rec to the stored session as one atomic write and
	// returns the updated session. On error nothing is written.
	RecordTurn(ctx context.Context, id string, rec TurnRecord) (*Session, error)
	Clear(ctx context.Context, id string) error
}

// categorizeError converts errors to audit-safe categories. nil maps to the
// empty category.
func categorizeError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSessionNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal_error"
	}
}

const auditResource = "chat_session"

// initialStep is the step of a fresh session.
const initialStep = 1
