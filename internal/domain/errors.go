package domain

import "errors"

// Sentinel errors shared by services and repositories. Handlers map these to
// HTTP status codes; everything else is treated as an internal failure.
var (
	// ErrNotFound is returned when a referenced entity does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when a user is not entitled to the requested
	// operation, e.g. validating a lesson that was never purchased.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyExists is returned for uniqueness conflicts that are real
	// errors to the caller (duplicate email on registration). Idempotent
	// writes (purchases, validations, certifications) never surface it.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalid is wrapped around input validation failures.
	ErrInvalid = errors.New("invalid input")
)
