package seeder

import (
	"errors"
	"fmt"

	"adminseed/internal/storage"
)

// Reason classifies why a seeding run failed.
type Reason string

const (
	ReasonConnection   Reason = "connection_error"
	ReasonConstraint   Reason = "constraint_violation"
	ReasonHashing      Reason = "hashing_error"
	ReasonInvalidInput Reason = "invalid_input"
	ReasonStorage      Reason = "storage_error"
)

type Error struct {
	Reason Reason
	Op     string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ReasonOf returns the failure reason carried by err, or "" when err is not a seeding error.
func ReasonOf(err error) Reason {
	var seedErr *Error
	if errors.As(err, &seedErr) {
		return seedErr.Reason
	}
	return ""
}

func classify(op string, err error) *Error {
	reason := ReasonStorage
	switch {
	case errors.Is(err, ErrVerificationFailed):
		reason = ReasonHashing
	case storage.IsConnectionError(err):
		reason = ReasonConnection
	case storage.IsConstraintViolation(err):
		reason = ReasonConstraint
	}
	return &Error{Reason: reason, Op: op, Err: err}
}
