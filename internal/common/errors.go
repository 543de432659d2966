// Package common defines shared constants and sentinel errors used across
// the server layers. Callers should use errors.Is / errors.As to match them.
package common

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// ValidationError reports a rejected request field. It matches ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError is a shorthand for &ValidationError{Field: field, Reason: reason}.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// LockedError is returned when capsule media is requested before the capsule
// open date. It matches ErrForbidden and carries the unlock time for the caller.
type LockedError struct {
	OpenDate time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("This capsule will be available for viewing on %s", e.OpenDate.UTC().Format(time.RFC3339))
}

func (e *LockedError) Unwrap() error { return ErrForbidden }
