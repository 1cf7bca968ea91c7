package estimate

import (
	"errors"
	"fmt"
)

// Sentinel errors for profile validation. Use errors.Is to classify a failure.
var (
	// ErrInvalidInput indicates a field that would make a requirement or a
	// ratio undefined (zero or negative counts, NaN, zero required capacity).
	ErrInvalidInput = errors.New("invalid input")

	// ErrNonPositiveMesh indicates a mesh with no cells.
	ErrNonPositiveMesh = errors.New("mesh cell count must be positive")
)

// FieldError names the profile field or resource that failed validation.
type FieldError struct {
	Field  string
	Value  any
	Reason string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Reason, e.Value)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func invalid(field string, value any, reason string) error {
	return &FieldError{Field: field, Value: value, Reason: reason, Err: ErrInvalidInput}
}
