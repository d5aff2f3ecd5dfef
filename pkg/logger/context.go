package logger

import (
	"context"
	"log/slog"
)

// Field keys for request-scoped attributes.
const (
	KeyTraceID     = "trace_id"
	KeyRequestID   = "request_id"
	KeyUserID      = "user_id"
	KeyCompanyID   = "company_id"
	KeyDashboardID = "dashboard_id"
)

type scopeKey struct{}

// With returns ctx carrying the request logger extended with fields.
func With(ctx context.Context, fields ...any) context.Context {
	return Attach(ctx, From(ctx).With(fields...))
}

// WithUser tags the request logger with the authenticated user.
func WithUser(ctx context.Context, userID string) context.Context {
	return With(ctx, KeyUserID, userID)
}

// WithCompany tags the request logger with the tenant being addressed.
func WithCompany(ctx context.Context, companyID string) context.Context {
	return With(ctx, KeyCompanyID, companyID)
}

func WithDashboard(ctx context.Context, dashboardID string) context.Context {
	return With(ctx, KeyDashboardID, dashboardID)
}

// Attach makes l the request logger for ctx; later With calls extend it.
func Attach(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, scopeKey{}, l)
}

// Scoped returns the request logger, if one was attached.
func Scoped(ctx context.Context) (*slog.Logger, bool) {
	if ctx == nil {
		return nil, false
	}
	l, ok := ctx.Value(scopeKey{}).(*slog.Logger)
	return l, ok
}

// From returns the request logger, or the process logger outside a request.
func From(ctx context.Context) *slog.Logger {
	if l, ok := Scoped(ctx); ok {
		return l
	}
	return LoggerWrapper()
}
