package request

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a request or its book/user does not exist.
var ErrNotFound = errors.New("request not found")

// ErrInvalidState is returned when an admin decides a request that is no
// longer pending. Double decisions are a caller bug or a lost race, never
// retried automatically.
var ErrInvalidState = errors.New("request is not pending")

// ErrInventoryUnavailable is returned when a borrow is accepted but the book
// has no copies left at decision time. The request stays pending; the admin
// can retry once stock frees up.
var ErrInventoryUnavailable = errors.New("no copies of this book are currently available")

// ValidationError marks malformed input: bad duration enum, score out of
// range, missing description. Not retryable with the same input.
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

func validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ConflictError marks a domain uniqueness or ordering violation: duplicate
// pending request, already-borrowed, already-reviewed. The in-process checks
// raise it early; the partial unique indexes raise it under races.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

func conflict(reason string) error {
	return &ConflictError{Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
