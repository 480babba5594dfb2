package audit

import (
	"context"
	"log/slog"
	"time"
)

// Logger writes a structured audit line per sensitive action. This is the
// log-side complement of the per-row blame columns the repositories stamp.
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates an audit logger.
func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

// LogAction emits one audit record.
func (al *Logger) LogAction(ctx context.Context, userID, action, resource, resourceID, status, details string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.String("details", details),
		slog.Time("timestamp", time.Now()),
	)
}

// LogPurchase records a payment confirmation reaching the purchase recorder.
func (al *Logger) LogPurchase(ctx context.Context, userID, kind, itemID, status, paymentRef string) {
	al.LogAction(ctx, userID, "purchase", kind, itemID, status, "session="+paymentRef)
}

// LogValidation records a lesson validation attempt.
func (al *Logger) LogValidation(ctx context.Context, userID, lessonID, outcome string) {
	al.LogAction(ctx, userID, "validate", "lesson", lessonID, outcome, "")
}

// LogDenied records a rejected access.
func (al *Logger) LogDenied(ctx context.Context, userID, reason string) {
	al.LogAction(ctx, userID, "access_denied", "api", "", "denied", reason)
}
