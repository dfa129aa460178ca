// Package model holds the engine's data types and the error taxonomy shared
// by every layer.  Handlers translate these errors into HTTP responses;
// repositories translate driver errors into them at their boundary.
package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSeatUnavailable is matched by *SeatUnavailableError via errors.Is.
	ErrSeatUnavailable = errors.New("seat unavailable")

	// ErrHoldExpired is returned when a hold lapsed or was released
	// before it could be confirmed.  The caller must start over.
	ErrHoldExpired = errors.New("hold expired")

	// ErrNotFound is returned when a ticket (or other record) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyTerminal is returned when cancelling or refunding a ticket
	// that is already cancelled or refunded.
	ErrAlreadyTerminal = errors.New("ticket already cancelled or refunded")

	// ErrForbidden is returned when the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports malformed or missing input.  Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// Invalid builds a *ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ConfigurationError reports missing or inconsistent reference data.  It
// points at an administrative data problem rather than a client error.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string { return "configuration: " + e.Reason }

// Misconfigured builds a *ConfigurationError.
func Misconfigured(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// SeatUnavailableError lists exactly the seats that were not FREE.
type SeatUnavailableError struct {
	SeatIDs []string
}

func (e *SeatUnavailableError) Error() string {
	return "seats unavailable: " + strings.Join(e.SeatIDs, ",")
}

// Is lets errors.Is(err, ErrSeatUnavailable) match.
func (e *SeatUnavailableError) Is(target error) bool { return target == ErrSeatUnavailable }

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsConfiguration reports whether err is a *ConfigurationError.
func IsConfiguration(err error) bool {
	var c *ConfigurationError
	return errors.As(err, &c)
}
