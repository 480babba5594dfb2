package domain

import (
	"context"
	"time"
)

// LessonValidation tracks that a user completed a lesson. ValidatedAt is set
// the first time Validated flips to true and is never cleared; there is no
// un-validate operation.
//
// Invariant: at most one row per (user, lesson).
type LessonValidation struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	LessonID    string     `json:"lessonId"`
	Validated   bool       `json:"validated"`
	ValidatedAt *time.Time `json:"validatedAt,omitempty"`
	AuditFields
}

// ValidationOutcome is the terminal result of a ValidateLesson call.
type ValidationOutcome string

const (
	// OutcomeAlreadyValidated: the lesson was validated before; nothing changed.
	OutcomeAlreadyValidated ValidationOutcome = "alreadyValidated"
	// OutcomeValidated: the validation was recorded; the cursus is not yet
	// complete, or its certification already existed.
	OutcomeValidated ValidationOutcome = "validated"
	// OutcomeCertificationGranted: this validation completed the cursus and
	// a new certification was issued.
	OutcomeCertificationGranted ValidationOutcome = "certificationGranted"
)

// ValidationResult pairs the outcome with the affected records.
type ValidationResult struct {
	Outcome       ValidationOutcome `json:"outcome"`
	Validation    *LessonValidation `json:"validation,omitempty"`
	Certification *Certification    `json:"certification,omitempty"`
}

// ValidationRepository defines data access for lesson validations.
type ValidationRepository interface {
	Get(ctx context.Context, userID, lessonID string) (*LessonValidation, error)

	// MarkValidated upserts the (user, lesson) row with validated=true,
	// keeping the earliest validated_at on conflict.
	MarkValidated(ctx context.Context, v *LessonValidation) error

	// CountValidatedInCursus counts the user's validated lessons belonging
	// to the given cursus.
	CountValidatedInCursus(ctx context.Context, userID, cursusID string) (int, error)
}
