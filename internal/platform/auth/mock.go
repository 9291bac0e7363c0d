package auth

import "context"

// MockVerifier accepts any token as User unless Error is set. A nil User
// rejects every token.
type MockVerifier struct {
	User  *User
	Error error
}

func (m *MockVerifier) Verify(context.Context, string) (*User, error) {
	switch {
	case m.Error != nil:
		return nil, m.Error
	case m.User == nil:
		return nil, ErrInvalidToken
	}
	return m.User, nil
}

// TestUser is the portfolio owner used across handler tests.
func TestUser() *User {
	return &User{
		UID:           "test-user-123",
		Email:         "jane@example.com",
		EmailVerified: true,
		Name:          "Jane Doe",
	}
}

var _ Verifier = (*MockVerifier)(nil)
