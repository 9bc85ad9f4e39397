package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound      = errors.New("resource not found")
	ErrEntryNotFound = fmt.Errorf("%w: cache entry", ErrNotFound)
	ErrEntryExpired  = fmt.Errorf("%w: cache entry expired", ErrNotFound)
	ErrTestNotFound  = fmt.Errorf("%w: test variant", ErrNotFound)

	// Validation errors
	ErrValidation       = errors.New("input validation failed")
	ErrSampleTooSmall   = fmt.Errorf("%w: sample below minimum length", ErrValidation)
	ErrArityMismatch    = fmt.Errorf("%w: wrong number of sample groups", ErrValidation)
	ErrUnpairedSamples  = fmt.Errorf("%w: paired samples differ in length", ErrValidation)
	ErrNonFiniteValue   = fmt.Errorf("%w: sample contains NaN or infinite value", ErrValidation)
	ErrAlphaOutOfRange  = fmt.Errorf("%w: alpha must lie strictly in (0,1)", ErrValidation)

	// Computation errors
	ErrDegenerateInput = errors.New("numerically degenerate input")
)

// Error constructors with context
func NewValidationError(constraint string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrValidation, constraint, reason)
}

func NewDegenerateInputError(sample string, reason string) error {
	return fmt.Errorf("%w: sample %q: %s", ErrDegenerateInput, sample, reason)
}

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsDegenerateInputError(err error) bool {
	return errors.Is(err, ErrDegenerateInput)
}
