package auth

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	applog "github.com/janisto/portfolio-builder/internal/platform/logging"
)

type userContextKey struct{}

// certRetryAfter is sent with 503 responses while signing keys are unavailable.
const certRetryAfter = "30"

var failureReasons = map[error]string{
	ErrNoToken:          "no_token",
	ErrInvalidToken:     "invalid_token",
	ErrTokenExpired:     "token_expired",
	ErrTokenRevoked:     "token_revoked",
	ErrUserDisabled:     "user_disabled",
	ErrCertificateFetch: "certificate_fetch_failed",
}

// NewAuthMiddleware enforces the Security requirements of each operation.
// Operations without requirements are public. A requirement list containing
// the empty requirement ({}) makes authentication optional: anonymous
// requests pass, while a presented token must still verify.
func NewAuthMiddleware(api huma.API, verifier Verifier) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		security := ctx.Operation().Security
		header := ctx.Header("Authorization")
		if len(security) == 0 || (header == "" && isOptional(security)) {
			next(ctx)
			return
		}

		reject := func(err error, msg string) {
			applog.LogWarn(ctx.Context(), "authentication failed",
				zap.String("reason", reasonFor(err)),
				zap.String("operation", ctx.Operation().OperationID))
			if errors.Is(err, ErrCertificateFetch) {
				ctx.SetHeader("Retry-After", certRetryAfter)
				_ = huma.WriteErr(api, ctx, http.StatusServiceUnavailable,
					"authentication service temporarily unavailable")
				return
			}
			ctx.SetHeader("WWW-Authenticate", "Bearer")
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, msg)
		}

		token, err := ExtractBearerToken(header)
		if err != nil {
			reject(err, "missing or invalid authorization header")
			return
		}
		user, err := verifier.Verify(ctx.Context(), token)
		if err != nil {
			reject(err, "invalid or expired token")
			return
		}

		logCtx := applog.WithFields(ctx.Context(), zap.String("userId", user.UID))
		ctx = huma.WithContext(ctx, context.WithValue(logCtx, userContextKey{}, user))
		next(ctx)
	}
}

func isOptional(security []map[string][]string) bool {
	return slices.ContainsFunc(security, func(req map[string][]string) bool { return len(req) == 0 })
}

// reasonFor returns a log-safe category for an authentication failure.
func reasonFor(err error) string {
	for target, reason := range failureReasons {
		if errors.Is(err, target) {
			return reason
		}
	}
	return "unknown"
}

// UserFromContext returns the verified caller, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey{}).(*User)
	return user
}
