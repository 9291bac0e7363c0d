// Package auth verifies Firebase ID tokens and gates huma operations on the
// result. Portfolios are owned by the verified UID; chat accepts anonymous
// callers.
package auth

import (
	"context"
	"errors"
	"strings"
)

// User is the verified caller.
type User struct {
	UID           string
	Email         string
	EmailVerified bool
	Name          string
}

var (
	ErrNoToken      = errors.New("missing authorization header")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
	ErrUserDisabled = errors.New("user disabled")
	// ErrCertificateFetch means the signing keys could not be loaded; callers
	// answer 503 rather than 401.
	ErrCertificateFetch = errors.New("failed to fetch certificates")
)

// Verifier validates tokens and returns user information.
type Verifier interface {
	Verify(ctx context.Context, token string) (*User, error)
}

// ExtractBearerToken returns the credential of a "Bearer <token>" header.
func ExtractBearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrNoToken
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrInvalidToken
	}
	return token, nil
}

// DisabledVerifier rejects every token. It stands in for FirebaseVerifier
// when no Firebase project is configured, so protected portfolio endpoints
// answer 401 while anonymous chat keeps working.
type DisabledVerifier struct{}

func (DisabledVerifier) Verify(context.Context, string) (*User, error) {
	return nil, ErrInvalidToken
}

var _ Verifier = DisabledVerifier{}
