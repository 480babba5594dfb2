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

// PostgresCatalogRepository implements domain.CatalogRepository using PostgreSQL
type PostgresCatalogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresCatalogRepository creates a new catalog repository
func NewPostgresCatalogRepository(db *sql.DB, logger *slog.Logger) *PostgresCatalogRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCatalogRepository{db: db, logger: logger}
}

// CreateTheme inserts a new theme
func (r *PostgresCatalogRepository) CreateTheme(ctx context.Context, theme *domain.Theme) error {
	if theme.ID == "" {
		theme.ID = uuid.New().String()
	}
	theme.StampCreate(domain.ActorID(ctx), time.Now())

	query := `
		INSERT INTO themes (id, title, description, created_at, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $5)
	`
	if _, err := r.db.ExecContext(ctx, query,
		theme.ID, theme.Title, theme.Description, theme.CreatedAt, nullString(theme.CreatedBy),
	); err != nil {
		return fmt.Errorf("failed to create theme: %w", err)
	}
	return nil
}

// CreateCursus inserts a new cursus under an existing theme
func (r *PostgresCatalogRepository) CreateCursus(ctx context.Context, cursus *domain.Cursus) error {
	if cursus.ID == "" {
		cursus.ID = uuid.New().String()
	}
	cursus.StampCreate(domain.ActorID(ctx), time.Now())

	query := `
		INSERT INTO cursuses (id, theme_id, title, description, price, created_at, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`
	if _, err := r.db.ExecContext(ctx, query,
		cursus.ID, cursus.ThemeID, cursus.Title, cursus.Description, cursus.Price,
		cursus.CreatedAt, nullString(cursus.CreatedBy),
	); err != nil {
		return fmt.Errorf("failed to create cursus: %w", err)
	}
	return nil
}

// CreateLesson inserts a new lesson under an existing cursus
func (r *PostgresCatalogRepository) CreateLesson(ctx context.Context, lesson *domain.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.New().String()
	}
	lesson.StampCreate(domain.ActorID(ctx), time.Now())

	query := `
		INSERT INTO lessons (id, cursus_id, title, description, price, position, created_at, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`
	if _, err := r.db.ExecContext(ctx, query,
		lesson.ID, lesson.CursusID, lesson.Title, lesson.Description, lesson.Price,
		lesson.Position, lesson.CreatedAt, nullString(lesson.CreatedBy),
	); err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}
	return nil
}

// GetTheme retrieves a theme by ID
func (r *PostgresCatalogRepository) GetTheme(ctx context.Context, id string) (*domain.Theme, error) {
	theme := &domain.Theme{}
	query := `SELECT id, title, description, created_at, updated_at FROM themes WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&theme.ID, &theme.Title, &theme.Description, &theme.CreatedAt, &theme.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get theme: %w", err)
	}
	return theme, nil
}

// GetCursus retrieves a cursus by ID
func (r *PostgresCatalogRepository) GetCursus(ctx context.Context, id string) (*domain.Cursus, error) {
	cursus := &domain.Cursus{}
	query := `SELECT id, theme_id, title, description, price, created_at, updated_at FROM cursuses WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&cursus.ID, &cursus.ThemeID, &cursus.Title, &cursus.Description, &cursus.Price,
		&cursus.CreatedAt, &cursus.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cursus: %w", err)
	}
	return cursus, nil
}

// GetLesson retrieves a lesson by ID
func (r *PostgresCatalogRepository) GetLesson(ctx context.Context, id string) (*domain.Lesson, error) {
	lesson := &domain.Lesson{}
	query := `SELECT id, cursus_id, title, description, price, position, created_at, updated_at FROM lessons WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&lesson.ID, &lesson.CursusID, &lesson.Title, &lesson.Description, &lesson.Price,
		&lesson.Position, &lesson.CreatedAt, &lesson.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return lesson, nil
}

// ListThemes lists all themes ordered by title
func (r *PostgresCatalogRepository) ListThemes(ctx context.Context) ([]*domain.Theme, error) {
	query := `SELECT id, title, description, created_at, updated_at FROM themes ORDER BY title`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}
	defer rows.Close()

	var themes []*domain.Theme
	for rows.Next() {
		theme := &domain.Theme{}
		if err := rows.Scan(&theme.ID, &theme.Title, &theme.Description, &theme.CreatedAt, &theme.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan theme: %w", err)
		}
		themes = append(themes, theme)
	}
	return themes, rows.Err()
}

// ListCursusesByTheme lists cursuses belonging to a theme
func (r *PostgresCatalogRepository) ListCursusesByTheme(ctx context.Context, themeID string) ([]*domain.Cursus, error) {
	query := `
		SELECT id, theme_id, title, description, price, created_at, updated_at
		FROM cursuses WHERE theme_id = $1 ORDER BY title
	`
	rows, err := r.db.QueryContext(ctx, query, themeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cursuses: %w", err)
	}
	defer rows.Close()

	var cursuses []*domain.Cursus
	for rows.Next() {
		cursus := &domain.Cursus{}
		if err := rows.Scan(
			&cursus.ID, &cursus.ThemeID, &cursus.Title, &cursus.Description, &cursus.Price,
			&cursus.CreatedAt, &cursus.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cursus: %w", err)
		}
		cursuses = append(cursuses, cursus)
	}
	return cursuses, rows.Err()
}

// ListLessonsByCursus lists lessons of a cursus in display order
func (r *PostgresCatalogRepository) ListLessonsByCursus(ctx context.Context, cursusID string) ([]*domain.Lesson, error) {
	query := `
		SELECT id, cursus_id, title, description, price, position, created_at, updated_at
		FROM lessons WHERE cursus_id = $1 ORDER BY position, title
	`
	rows, err := r.db.QueryContext(ctx, query, cursusID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	defer rows.Close()

	var lessons []*domain.Lesson
	for rows.Next() {
		lesson := &domain.Lesson{}
		if err := rows.Scan(
			&lesson.ID, &lesson.CursusID, &lesson.Title, &lesson.Description, &lesson.Price,
			&lesson.Position, &lesson.CreatedAt, &lesson.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}
	return lessons, rows.Err()
}

// CountLessons counts the lessons of a cursus
func (r *PostgresCatalogRepository) CountLessons(ctx context.Context, cursusID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM lessons WHERE cursus_id = $1`
	if err := r.db.QueryRowContext(ctx, query, cursusID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return count, nil
}
