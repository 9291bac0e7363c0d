package auth

import (
	"context"

	fbauth "firebase.google.com/go/v4/auth"
)

// firebaseFailures maps SDK error predicates onto this package's errors.
// Order matters: a revoked token is also reported invalid.
var firebaseFailures = []struct {
	match func(error) bool
	err   error
}{
	{fbauth.IsCertificateFetchFailed, ErrCertificateFetch},
	{fbauth.IsIDTokenExpired, ErrTokenExpired},
	{fbauth.IsIDTokenRevoked, ErrTokenRevoked},
	{fbauth.IsUserDisabled, ErrUserDisabled},
}

// FirebaseVerifier implements Verifier with the Firebase Admin SDK.
type FirebaseVerifier struct {
	client *fbauth.Client
}

func NewFirebaseVerifier(client *fbauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

// Verify validates an ID token and checks it has not been revoked.
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*User, error) {
	token, err := v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return nil, classifyFirebaseError(err)
	}
	return userFromClaims(token.UID, token.Claims), nil
}

func classifyFirebaseError(err error) error {
	for _, f := range firebaseFailures {
		if f.match(err) {
			return f.err
		}
	}
	return ErrInvalidToken
}

func userFromClaims(uid string, claims map[string]any) *User {
	email, _ := claims["email"].(string)
	verified, _ := claims["email_verified"].(bool)
	name, _ := claims["name"].(string)
	return &User{UID: uid, Email: email, EmailVerified: verified, Name: name}
}

var _ Verifier = (*FirebaseVerifier)(nil)
