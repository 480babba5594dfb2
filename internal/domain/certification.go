package domain

import (
	"context"
	"time"
)

// Certification proves a user validated every lesson of a cursus. Issued
// exactly once per (user, cursus); immutable afterwards, never re-issued
// and never revoked by this engine.
type Certification struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	CursusID   string    `json:"cursusId"`
	ObtainedAt time.Time `json:"obtainedAt"`
	AuditFields
}

// CertificationRepository defines data access for certifications.
type CertificationRepository interface {
	// Create inserts the certification unless one already exists for
	// (user, cursus); a conflict reports created=false.
	Create(ctx context.Context, c *Certification) (created bool, err error)

	Get(ctx context.Context, userID, cursusID string) (*Certification, error)
	ListByUser(ctx context.Context, userID string) ([]*Certification, error)
}
