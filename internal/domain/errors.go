package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument rejects bad call arguments: invalid instants,
	// negative durations, non-positive steps.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConfiguration rejects a malformed profile or an unknown convention.
	ErrConfiguration = errors.New("configuration error")
)

// FieldError reports a profile field that failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrConfiguration.
func (e *FieldError) Unwrap() error {
	return ErrConfiguration
}

func newFieldError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
