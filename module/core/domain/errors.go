package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input. Never retried.
	ErrValidation = errors.New("validation error")
	// ErrDuplicateKey is returned when creating a place whose id already exists.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrInternal marks storage or backend faults, including exceeded deadlines.
	// It is the only category a caller may retry.
	ErrInternal = errors.New("internal error")
)

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

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Internal wraps err so that errors.Is(err, ErrInternal) holds while the
// original cause stays reachable.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}
