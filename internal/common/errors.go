// Package common defines shared constants and sentinel errors used across
// the client and server layers of the session engine. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors (missing required fields, bad input shape).
	ErrorValidation = errors.New("validation error")

	// ErrSequenceConflict is returned when a step result is submitted for a
	// step the session has already moved past, or has not yet reached.
	// Accepting it would move current_step backward.
	ErrSequenceConflict = errors.New("step sequence conflict")

	// ErrPartialIndex signals that the evidence index write succeeded but the
	// status update did not. Callers should retry only the status transition,
	// not the index write.
	ErrPartialIndex = errors.New("index written, status update failed")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
