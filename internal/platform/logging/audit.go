package logging

import (
	"context"

	"go.uber.org/zap"
)

// Audit describes a state change on a user-owned resource such as a chat
// session or a portfolio.
type Audit struct {
	Action     string // create, delete, publish, reserve_slug
	UserID     string // empty for anonymous callers
	Resource   string
	ResourceID string
	// Failure is an audit-safe error category. Empty means success. Raw
	// errors never go into audit records.
	Failure string
}

// LogAudit writes the event at INFO with details nested under audit.details.
func LogAudit(ctx context.Context, a Audit, details ...zap.Field) {
	result := "success"
	fields := []zap.Field{
		zap.String("audit.action", a.Action),
		zap.String("audit.user_id", a.UserID),
		zap.String("audit.resource_type", a.Resource),
		zap.String("audit.resource_id", a.ResourceID),
	}
	if a.Failure != "" {
		result = "failure"
		fields = append(fields, zap.String("audit.error", a.Failure))
	}
	fields = append(fields, zap.String("audit.result", result))
	if len(details) > 0 {
		fields = append(fields, zap.Dict("audit.details", details...))
	}
	LoggerFromContext(ctx).Info("audit event", fields...)
}
