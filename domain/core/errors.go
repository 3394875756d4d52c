package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// ErrInsufficientData means a requested window contained zero rows.
	// Fatal for the affected campaign/window pair only, never for the run.
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// ErrInvalidConfig is the only run-fatal condition. Undefined metrics
	// and degenerate rankings carry no error value: they are recovered in
	// place through nil p-values and the single-campaign convention.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Error constructors with context
func NewInsufficientDataError(scope string, rows int) error {
	return fmt.Errorf("%w: %s window has %d rows", ErrInsufficientData, scope, rows)
}

func NewConfigError(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidConfig, field, reason)
}

// Error checking helpers
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
