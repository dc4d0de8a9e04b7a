// Package domain defines domain-specific errors.
// These errors represent invalid widget configuration and are independent
// of the UI toolkit and the audio backends.
package domain

import (
	"errors"
	"fmt"
)

// Common errors returned by the engines and services.
var (
	// ErrInvalidIndicatorMode is returned when an unsupported indicator
	// mode is configured.
	ErrInvalidIndicatorMode = errors.New("unsupported indicator mode")

	// ErrInvalidSecondaryStyle is returned when an unsupported secondary
	// indicator placement is configured.
	ErrInvalidSecondaryStyle = errors.New("unsupported secondary indicator style")

	// ErrInvalidBarVariant is returned when an unsupported bar variant is
	// configured.
	ErrInvalidBarVariant = errors.New("unsupported bar variant")

	// ErrInvalidSmoothingFactor is returned when the spectrum smoothing
	// factor is outside [0.0 .. 1.0].
	ErrInvalidSmoothingFactor = errors.New("smoothing factor must be between 0.0 and 1.0")

	// ErrInvalidBucketStride is returned when the FFT bucket stride is
	// outside the supported range.
	ErrInvalidBucketStride = errors.New("bucket stride out of range")

	// ErrInvalidMaxProgress is returned when the maximum progress is not a
	// positive value.
	ErrInvalidMaxProgress = errors.New("max progress must be positive")

	// ErrInvalidTimeout is returned when the countdown timeout is not a
	// positive duration.
	ErrInvalidTimeout = errors.New("timeout must be positive")

	// ErrSourceRunning is returned when a spectrum source is started twice.
	ErrSourceRunning = errors.New("spectrum source already running")

	// ErrSourceStopped is returned when a spectrum source is stopped
	// without being started.
	ErrSourceStopped = errors.New("spectrum source not running")

	// ErrServiceClosed is returned when an operation is attempted on a
	// service that has been shut down.
	ErrServiceClosed = errors.New("service has been shut down")
)

// ValidationError represents a rejected configuration value.
type ValidationError struct {
	Field   string      // Field that failed validation
	Value   interface{} // Value that failed validation
	Message string      // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// SourceError wraps a failure from a spectrum source backend with the
// source name and failed operation.
type SourceError struct {
	Source  string // Source name (e.g. "file", "capture")
	Op      string // Operation that failed (e.g. "decode", "open stream")
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return fmt.Sprintf("spectrum source %s.%s failed: %s", e.Source, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError creates a new SourceError.
func NewSourceError(source, op, message string, err error) *SourceError {
	return &SourceError{
		Source:  source,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
