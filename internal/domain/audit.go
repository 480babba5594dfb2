package domain

import (
	"context"
	"time"
)

// AuditFields carries creation/update time and actor for every mutable
// record. Blame fields stay empty for system-initiated writes (workers,
// seeding) and must never fail a write.
type AuditFields struct {
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	CreatedBy string     `json:"createdBy,omitempty"`
	UpdatedBy string     `json:"updatedBy,omitempty"`
}

// StampCreate initializes audit fields before an insert. The repository
// layer calls this on every create; actor may be empty.
func (a *AuditFields) StampCreate(actor string, now time.Time) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.CreatedBy = actor
	a.UpdatedBy = actor
}

// StampUpdate refreshes audit fields before an update.
func (a *AuditFields) StampUpdate(actor string, now time.Time) {
	a.UpdatedAt = &now
	a.UpdatedBy = actor
}

type actorContextKey struct{}

// WithActor returns a context carrying the acting user's ID. The JWT
// middleware sets it for authenticated requests; workers and the seed CLI
// leave it unset so blame columns stay NULL.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, userID)
}

// ActorID extracts the acting user's ID from the context, or "" when the
// write is system-initiated.
func ActorID(ctx context.Context) string {
	if v := ctx.Value(actorContextKey{}); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
