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

// PostgresPurchaseRepository implements domain.PurchaseRepository using
// PostgreSQL. All create paths are insert-or-ignore against the partial
// unique indexes so concurrent payment confirmations cannot duplicate rows.
type PostgresPurchaseRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresPurchaseRepository creates a new purchase repository
func NewPostgresPurchaseRepository(db *sql.DB, logger *slog.Logger) *PostgresPurchaseRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPurchaseRepository{db: db, logger: logger}
}

const insertLessonPurchase = `
	INSERT INTO purchases (id, kind, user_id, lesson_id, payment_ref, created_at, created_by, updated_by)
	VALUES ($1, 'lesson', $2, $3, $4, $5, $6, $6)
	ON CONFLICT (user_id, lesson_id) WHERE kind = 'lesson' DO NOTHING
`

// CreateLessonPurchase inserts a lesson purchase unless one already exists.
func (r *PostgresPurchaseRepository) CreateLessonPurchase(ctx context.Context, p *domain.Purchase) (bool, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.Kind = domain.PurchaseKindLesson
	p.StampCreate(domain.ActorID(ctx), time.Now())

	result, err := r.db.ExecContext(ctx, insertLessonPurchase,
		p.ID, p.UserID, p.LessonID, p.PaymentRef, p.CreatedAt, nullString(p.CreatedBy),
	)
	if err != nil {
		// The conflict target covers the invariant; 23505 can still fire
		// under odd isolation settings and means the same thing.
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create lesson purchase: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows > 0, nil
}

// CreateCursusPurchase inserts the cursus purchase and backfills per-lesson
// purchases in one transaction. Existing rows are left untouched.
func (r *PostgresPurchaseRepository) CreateCursusPurchase(ctx context.Context, p *domain.Purchase, lessons []*domain.Lesson) (*domain.CursusPurchaseResult, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.Kind = domain.PurchaseKindCursus
	actor := domain.ActorID(ctx)
	now := time.Now()
	p.StampCreate(actor, now)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result := &domain.CursusPurchaseResult{CursusPurchase: p}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO purchases (id, kind, user_id, cursus_id, payment_ref, created_at, created_by, updated_by)
		VALUES ($1, 'cursus', $2, $3, $4, $5, $6, $6)
		ON CONFLICT (user_id, cursus_id) WHERE kind = 'cursus' DO NOTHING
	`, p.ID, p.UserID, p.CursusID, p.PaymentRef, p.CreatedAt, nullString(p.CreatedBy))
	if err != nil {
		return nil, fmt.Errorf("failed to create cursus purchase: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows > 0 {
		result.CursusCreated = true
	}

	// Backfill runs regardless of whether the cursus row already existed:
	// lessons added to the cursus since an earlier purchase get their
	// entitlement rows here.
	for _, lesson := range lessons {
		lp := &domain.Purchase{
			ID:         uuid.New().String(),
			Kind:       domain.PurchaseKindLesson,
			UserID:     p.UserID,
			LessonID:   lesson.ID,
			PaymentRef: p.PaymentRef,
		}
		lp.StampCreate(actor, now)

		res, err := tx.ExecContext(ctx, insertLessonPurchase,
			lp.ID, lp.UserID, lp.LessonID, lp.PaymentRef, lp.CreatedAt, nullString(lp.CreatedBy),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to backfill lesson purchase: %w", err)
		}
		if rows, err := res.RowsAffected(); err == nil && rows > 0 {
			result.LessonsCreated++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cursus purchase: %w", err)
	}

	if !result.CursusCreated {
		existing, err := r.GetCursusPurchase(ctx, p.UserID, p.CursusID)
		if err != nil {
			return nil, err
		}
		result.CursusPurchase = existing
	}

	// Return the lesson rows as they exist after the backfill, including
	// ones that predate this purchase.
	for _, lesson := range lessons {
		lp, err := r.GetLessonPurchase(ctx, p.UserID, lesson.ID)
		if err != nil {
			return nil, err
		}
		result.LessonPurchases = append(result.LessonPurchases, lp)
	}

	return result, nil
}

const purchaseColumns = `id, kind, user_id, COALESCE(lesson_id::text, ''), COALESCE(cursus_id::text, ''), payment_ref, created_at, updated_at`

func scanPurchase(scanner interface{ Scan(...any) error }) (*domain.Purchase, error) {
	p := &domain.Purchase{}
	err := scanner.Scan(
		&p.ID, &p.Kind, &p.UserID, &p.LessonID, &p.CursusID, &p.PaymentRef,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetLessonPurchase fetches the lesson purchase for (user, lesson)
func (r *PostgresPurchaseRepository) GetLessonPurchase(ctx context.Context, userID, lessonID string) (*domain.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE kind = 'lesson' AND user_id = $1 AND lesson_id = $2`
	p, err := scanPurchase(r.db.QueryRowContext(ctx, query, userID, lessonID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lesson purchase: %w", err)
	}
	return p, nil
}

// GetCursusPurchase fetches the cursus purchase for (user, cursus)
func (r *PostgresPurchaseRepository) GetCursusPurchase(ctx context.Context, userID, cursusID string) (*domain.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE kind = 'cursus' AND user_id = $1 AND cursus_id = $2`
	p, err := scanPurchase(r.db.QueryRowContext(ctx, query, userID, cursusID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cursus purchase: %w", err)
	}
	return p, nil
}

// HasLessonPurchase reports whether the user purchased the lesson directly
func (r *PostgresPurchaseRepository) HasLessonPurchase(ctx context.Context, userID, lessonID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM purchases WHERE kind = 'lesson' AND user_id = $1 AND lesson_id = $2)`
	if err := r.db.QueryRowContext(ctx, query, userID, lessonID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check lesson purchase: %w", err)
	}
	return exists, nil
}

// HasCursusPurchase reports whether the user purchased the whole cursus
func (r *PostgresPurchaseRepository) HasCursusPurchase(ctx context.Context, userID, cursusID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM purchases WHERE kind = 'cursus' AND user_id = $1 AND cursus_id = $2)`
	if err := r.db.QueryRowContext(ctx, query, userID, cursusID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check cursus purchase: %w", err)
	}
	return exists, nil
}

// ListByUser lists all purchases of a user, newest first
func (r *PostgresPurchaseRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []*domain.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

// ListCursusPurchases lists every cursus-level purchase for the backfill
// reconciler.
func (r *PostgresPurchaseRepository) ListCursusPurchases(ctx context.Context) ([]*domain.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE kind = 'cursus' ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list cursus purchases: %w", err)
	}
	defer rows.Close()

	var purchases []*domain.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}
