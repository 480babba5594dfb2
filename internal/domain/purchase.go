package domain

import "context"

// PurchaseKind discriminates what a purchase row entitles the user to.
type PurchaseKind string

const (
	PurchaseKindLesson PurchaseKind = "lesson"
	PurchaseKindCursus PurchaseKind = "cursus"
)

// Purchase records that a user paid for a lesson or a whole cursus. Exactly
// one of LessonID/CursusID is set, matching Kind. A cursus purchase also
// materializes one lesson purchase per contained lesson so entitlement
// checks stay single-table lookups.
//
// Invariant: at most one purchase per (user, lesson) and per (user, cursus),
// enforced by partial unique indexes and insert-or-ignore writes.
type Purchase struct {
	ID         string       `json:"id"`
	Kind       PurchaseKind `json:"kind"`
	UserID     string       `json:"userId"`
	LessonID   string       `json:"lessonId,omitempty"`
	CursusID   string       `json:"cursusId,omitempty"`
	PaymentRef string       `json:"paymentRef,omitempty"` // opaque checkout session token, display/logging only
	AuditFields
}

// CursusPurchaseResult is the outcome of recording a cursus purchase: the
// cursus-level row plus every lesson row that exists after the backfill.
type CursusPurchaseResult struct {
	CursusPurchase  *Purchase   `json:"cursusPurchase"`
	LessonPurchases []*Purchase `json:"lessonPurchases"`
	CursusCreated   bool        `json:"-"`
	LessonsCreated  int         `json:"-"`
}

// PurchaseRepository defines data access for purchases. Create methods are
// idempotent: a uniqueness conflict reports created=false instead of failing.
type PurchaseRepository interface {
	// CreateLessonPurchase inserts a lesson purchase unless one already
	// exists for (user, lesson).
	CreateLessonPurchase(ctx context.Context, p *Purchase) (created bool, err error)

	// CreateCursusPurchase inserts the cursus-level row and backfills a
	// lesson purchase for every lesson of the cursus the user does not own
	// yet. All writes commit in a single transaction.
	CreateCursusPurchase(ctx context.Context, p *Purchase, lessons []*Lesson) (*CursusPurchaseResult, error)

	GetLessonPurchase(ctx context.Context, userID, lessonID string) (*Purchase, error)
	GetCursusPurchase(ctx context.Context, userID, cursusID string) (*Purchase, error)
	HasLessonPurchase(ctx context.Context, userID, lessonID string) (bool, error)
	HasCursusPurchase(ctx context.Context, userID, cursusID string) (bool, error)

	ListByUser(ctx context.Context, userID string) ([]*Purchase, error)

	// ListCursusPurchases returns every cursus-level purchase; the backfill
	// worker walks it to reconcile lessons added after the purchase.
	ListCursusPurchases(ctx context.Context) ([]*Purchase, error)
}
