package models

import (
	"errors"
	"fmt"
)

// ValidationError signals missing or malformed required input.
// It is surfaced to the caller immediately with no partial effect.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, a ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, a...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UpstreamFormatError signals that the generation backend returned
// a payload that could not be parsed as JSON. The request is abandoned.
type UpstreamFormatError struct {
	Raw string
	Err error
}

func (e *UpstreamFormatError) Error() string {
	return fmt.Sprintf("upstream returned non-JSON payload: %v", e.Err)
}

func (e *UpstreamFormatError) Unwrap() error { return e.Err }

// IsUpstreamFormat reports whether err is an UpstreamFormatError.
func IsUpstreamFormat(err error) bool {
	var ue *UpstreamFormatError
	return errors.As(err, &ue)
}

// ErrNotFound is the sentinel for a missing project or finding.
// Store errors wrap it so callers can map to a user-visible message.
var ErrNotFound = errors.New("not found")

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
