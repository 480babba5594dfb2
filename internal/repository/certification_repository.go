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

// PostgresCertificationRepository implements domain.CertificationRepository
// using PostgreSQL. Inserts are idempotent under the (user_id, cursus_id)
// unique constraint so racing roll-ups issue at most one certification.
type PostgresCertificationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresCertificationRepository creates a new certification repository
func NewPostgresCertificationRepository(db *sql.DB, logger *slog.Logger) *PostgresCertificationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCertificationRepository{db: db, logger: logger}
}

// Create inserts the certification unless one already exists.
func (r *PostgresCertificationRepository) Create(ctx context.Context, c *domain.Certification) (bool, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now()
	c.StampCreate(domain.ActorID(ctx), now)
	if c.ObtainedAt.IsZero() {
		c.ObtainedAt = now
	}

	query := `
		INSERT INTO certifications (id, user_id, cursus_id, obtained_at, created_at, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (user_id, cursus_id) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query,
		c.ID, c.UserID, c.CursusID, c.ObtainedAt, c.CreatedAt, nullString(c.CreatedBy),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create certification: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows > 0, nil
}

// Get fetches the certification for (user, cursus)
func (r *PostgresCertificationRepository) Get(ctx context.Context, userID, cursusID string) (*domain.Certification, error) {
	c := &domain.Certification{}
	query := `
		SELECT id, user_id, cursus_id, obtained_at, created_at, updated_at
		FROM certifications
		WHERE user_id = $1 AND cursus_id = $2
	`
	err := r.db.QueryRowContext(ctx, query, userID, cursusID).Scan(
		&c.ID, &c.UserID, &c.CursusID, &c.ObtainedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get certification: %w", err)
	}
	return c, nil
}

// ListByUser lists all certifications of a user, newest first
func (r *PostgresCertificationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Certification, error) {
	query := `
		SELECT id, user_id, cursus_id, obtained_at, created_at, updated_at
		FROM certifications
		WHERE user_id = $1
		ORDER BY obtained_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list certifications: %w", err)
	}
	defer rows.Close()

	var certs []*domain.Certification
	for rows.Next() {
		c := &domain.Certification{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.CursusID, &c.ObtainedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan certification: %w", err)
		}
		certs = append(certs, c)
	}
	return certs, rows.Err()
}
