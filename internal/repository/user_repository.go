package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/yourorg/knowledgehub/internal/domain"
)

// PostgresUserRepository implements domain.UserRepository using PostgreSQL
type PostgresUserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresUserRepository creates a new user repository
func NewPostgresUserRepository(db *sql.DB, logger *slog.Logger) *PostgresUserRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresUserRepository{db: db, logger: logger}
}

// Create inserts a new user. A duplicate email surfaces as
// domain.ErrAlreadyExists.
func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.StampCreate(domain.ActorID(ctx), time.Now())

	query := `
		INSERT INTO users (id, email, password_hash, roles, is_verified, created_at, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		pq.Array(user.Roles),
		user.IsVerified,
		user.CreatedAt,
		nullString(user.CreatedBy),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		r.logger.Error("failed to create user",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

const userColumns = `id, email, password_hash, roles, is_verified, created_at, updated_at, created_by, updated_by`

func (r *PostgresUserRepository) scanUser(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	var createdBy, updatedBy sql.NullString

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		pq.Array(&user.Roles),
		&user.IsVerified,
		&user.CreatedAt,
		&user.UpdatedAt,
		&createdBy,
		&updatedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	user.CreatedBy = createdBy.String
	user.UpdatedBy = updatedBy.String
	return user, nil
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

// Update updates an existing user
func (r *PostgresUserRepository) Update(ctx context.Context, user *domain.User) error {
	user.StampUpdate(domain.ActorID(ctx), time.Now())

	query := `
		UPDATE users
		SET email = $1, password_hash = $2, roles = $3, is_verified = $4, updated_at = $5, updated_by = $6
		WHERE id = $7
	`

	result, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.PasswordHash,
		pq.Array(user.Roles),
		user.IsVerified,
		user.UpdatedAt,
		nullString(user.UpdatedBy),
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}
