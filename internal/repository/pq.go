package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505). Idempotent writes convert these to no-ops.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// nullString maps an empty string to SQL NULL, used for blame columns so
// system-initiated writes leave them unset.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
