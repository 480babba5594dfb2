package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/knowledgehub/internal/domain"
)

// PostgresValidationRepository implements domain.ValidationRepository using
// PostgreSQL.
type PostgresValidationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresValidationRepository creates a new validation repository
func NewPostgresValidationRepository(db *sql.DB, logger *slog.Logger) *PostgresValidationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresValidationRepository{db: db, logger: logger}
}

// Get fetches the validation row for (user, lesson)
func (r *PostgresValidationRepository) Get(ctx context.Context, userID, lessonID string) (*domain.LessonValidation, error) {
	v := &domain.LessonValidation{}
	query := `
		SELECT id, user_id, lesson_id, is_validated, validated_at, created_at, updated_at
		FROM lesson_validations
		WHERE user_id = $1 AND lesson_id = $2
	`
	err := r.db.QueryRowContext(ctx, query, userID, lessonID).Scan(
		&v.ID, &v.UserID, &v.LessonID, &v.Validated, &v.ValidatedAt,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lesson validation: %w", err)
	}
	return v, nil
}

// MarkValidated upserts the (user, lesson) validation with validated=true.
// On conflict the earliest validated_at wins, keeping the timestamp of the
// first successful validation.
func (r *PostgresValidationRepository) MarkValidated(ctx context.Context, v *domain.LessonValidation) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	actor := domain.ActorID(ctx)
	now := time.Now()
	v.StampCreate(actor, now)
	if v.ValidatedAt == nil {
		v.ValidatedAt = &now
	}
	v.Validated = true

	query := `
		INSERT INTO lesson_validations (id, user_id, lesson_id, is_validated, validated_at, created_at, created_by, updated_by)
		VALUES ($1, $2, $3, TRUE, $4, $5, $6, $6)
		ON CONFLICT (user_id, lesson_id) DO UPDATE
		SET is_validated = TRUE,
		    validated_at = COALESCE(lesson_validations.validated_at, EXCLUDED.validated_at),
		    updated_at = NOW(),
		    updated_by = EXCLUDED.updated_by
		RETURNING id, validated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		v.ID, v.UserID, v.LessonID, v.ValidatedAt, v.CreatedAt, nullString(actor),
	).Scan(&v.ID, &v.ValidatedAt)
	if err != nil {
		return fmt.Errorf("failed to mark lesson validated: %w", err)
	}
	return nil
}

// CountValidatedInCursus counts the user's validated lessons within a cursus
func (r *PostgresValidationRepository) CountValidatedInCursus(ctx context.Context, userID, cursusID string) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM lesson_validations lv
		JOIN lessons l ON l.id = lv.lesson_id
		WHERE lv.user_id = $1 AND l.cursus_id = $2 AND lv.is_validated
	`
	if err := r.db.QueryRowContext(ctx, query, userID, cursusID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count validated lessons: %w", err)
	}
	return count, nil
}
