package database

import (
	"context"
	"fmt"
	"log/slog"
)

// Schema migrations applied in order at startup. Every statement is
// idempotent so re-running on boot is safe.
var migrations = []string{
	// users
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		roles TEXT[] NOT NULL DEFAULT '{}',
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ,
		created_by UUID REFERENCES users(id),
		updated_by UUID REFERENCES users(id)
	)`,

	// catalog: theme -> cursus -> lesson, cascading deletes down the tree
	`CREATE TABLE IF NOT EXISTS themes (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ,
		created_by UUID REFERENCES users(id),
		updated_by UUID REFERENCES users(id)
	)`,

	`CREATE TABLE IF NOT EXISTS cursuses (
		id UUID PRIMARY KEY,
		theme_id UUID NOT NULL REFERENCES themes(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price NUMERIC(10,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ,
		created_by UUID REFERENCES users(id),
		updated_by UUID REFERENCES users(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cursuses_theme_id ON cursuses(theme_id)`,

	`CREATE TABLE IF NOT EXISTS lessons (
		id UUID PRIMARY KEY,
		cursus_id UUID NOT NULL REFERENCES cursuses(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price NUMERIC(10,2) NOT NULL DEFAULT 0,
		position INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ,
		created_by UUID REFERENCES users(id),
		updated_by UUID REFERENCES users(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_lessons_cursus_id ON lessons(cursus_id)`,

	// purchases: exactly one of lesson_id/cursus_id set, matching kind.
	// The partial unique indexes back the application-level "at most one
	// purchase per (user, item)" invariant under concurrent confirmations.
	`CREATE TABLE IF NOT EXISTS purchases (
		id UUID PRIMARY KEY,
		kind TEXT NOT NULL CHECK (kind IN ('lesson', 'cursus')),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		lesson_id UUID REFERENCES lessons(id) ON DELETE CASCADE,
		cursus_id UUID REFERENCES cursuses(id) ON DELETE CASCADE,
		payment_ref TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ,
		created_by UUID REFERENCES users(id),
		updated_by UUID REFERENCES users(id),
		CONSTRAINT purchase_target CHECK (
			(kind = 'lesson' AND lesson_id IS NOT NULL AND cursus_id IS NULL) OR
			(kind = 'cursus' AND cursus_id IS NOT NULL AND lesson_id IS NULL)
		)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_purchases_user_lesson
		ON purchases(user_id, lesson_id) WHERE kind = 'lesson'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_purchases_user_cursus
		ON purchases(user_id, cursus_id) WHERE kind = 'cursus'`,
	`CREATE INDEX IF NOT EXISTS idx_purchases_user_id ON purchases(user_id)`,

	// lesson validations: validated_at keeps its first value forever
	`CREATE TABLE IF NOT EXISTS lesson_validations (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		lesson_id UUID NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
		is_validated BOOLEAN NOT NULL DEFAULT FALSE,
		validated_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ,
		created_by UUID REFERENCES users(id),
		updated_by UUID REFERENCES users(id),
		CONSTRAINT uq_validations_user_lesson UNIQUE (user_id, lesson_id)
	)`,

	// certifications: immutable once issued
	`CREATE TABLE IF NOT EXISTS certifications (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		cursus_id UUID NOT NULL REFERENCES cursuses(id) ON DELETE CASCADE,
		obtained_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ,
		created_by UUID REFERENCES users(id),
		updated_by UUID REFERENCES users(id),
		CONSTRAINT uq_certifications_user_cursus UNIQUE (user_id, cursus_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_certifications_user_id ON certifications(user_id)`,
}

// Migrate applies the schema to the connected database.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := cp.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	cp.logger.Info("schema migrations applied", slog.Int("statements", len(migrations)))
	return nil
}
