// Package llm is a small client for OpenAI-compatible chat completion APIs.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors wrapped by UpstreamError.
var (
	ErrTimeout         = errors.New("language model request timed out")
	ErrRateLimited     = errors.New("language model rate limit exceeded")
	ErrUnauthorized    = errors.New("language model rejected credentials")
	ErrUpstream        = errors.New("language model upstream error")
	ErrUnavailable     = errors.New("language model not configured")
	ErrEmptyCompletion = errors.New("language model returned no content")
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a chat transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options are per-call sampling parameters.
type Options struct {
	Temperature float64
	MaxTokens   int
	// JSONOnly asks the provider to constrain output to a JSON object.
	JSONOnly bool
}

// Completer produces a single assistant message for a transcript.
type Completer interface {
	ChatComplete(ctx context.Context, system string, messages []Message, opts Options) (string, error)
}

// UpstreamErrorKind classifies language model failures.
type UpstreamErrorKind string

const (
	KindTimeout      UpstreamErrorKind = "timeout"
	KindRateLimited  UpstreamErrorKind = "rate_limited"
	KindUnauthorized UpstreamErrorKind = "unauthorized"
	KindUpstream     UpstreamErrorKind = "upstream"
	KindUnavailable  UpstreamErrorKind = "unavailable"
)

// UpstreamError carries the provider response metadata of a failed call.
type UpstreamError struct {
	Kind       UpstreamErrorKind
	Status     int
	RetryAfter time.Duration
	cause      error
}

// NewUpstreamError builds an UpstreamError wrapping cause.
func NewUpstreamError(kind UpstreamErrorKind, status int, cause error) *UpstreamError {
	return &UpstreamError{Kind: kind, Status: status, cause: cause}
}

func (e *UpstreamError) Error() string {
	if e == nil {
		return "language model upstream error"
	}
	if e.cause == nil {
		return fmt.Sprintf("language model upstream error (kind=%s status=%d)", e.Kind, e.Status)
	}
	return fmt.Sprintf("language model upstream error (kind=%s status=%d): %v", e.Kind, e.Status, e.cause)
}

// Unwrap enables errors.Is/As against the sentinel errors.
func (e *UpstreamError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Disabled is the Completer used when no API key is configured. Every call
// fails with KindUnavailable.
type Disabled struct{}

func (Disabled) ChatComplete(context.Context, string, []Message, Options) (string, error) {
	return "", NewUpstreamError(KindUnavailable, 0, ErrUnavailable)
}

// Compile-time interface check
var _ Completer = Disabled{}
