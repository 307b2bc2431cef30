package database

import "errors"

// Store-level failures. They are wrapped with context and propagate unmodified
// through the lifecycle service, so callers should match with errors.Is.
var (
	// ErrValidation marks malformed or empty required input
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an unknown incident id
	ErrNotFound = errors.New("incident not found")
	// ErrConflict marks an illegal state transition
	ErrConflict = errors.New("conflict")
)
