package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is to test for them.
var (
	ErrRateLimited         = errors.New("rate limited")
	ErrAccessDenied        = errors.New("access denied")
	ErrNotFound            = errors.New("not found")
	ErrNoData              = errors.New("no data available")
	ErrValidation          = errors.New("validation failed")
	ErrStore               = errors.New("store failure")
	ErrUnsupportedExchange = errors.New("unsupported exchange")
)

// PriceError is a failed price or ticker operation on one symbol.
// Message is meant for display, Kind is one of the error kinds above
// or nil for generic failures.
type PriceError struct {
	Symbol  string
	Kind    error
	Message string
	Cause   error
}

func (e *PriceError) Error() string {
	return e.Message
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As
func (e *PriceError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// NewStoreError wraps a database failure so it satisfies errors.Is(err, ErrStore)
func NewStoreError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}

// NewValidationError reports unusable input
func NewValidationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsStoreError reports whether err is a ledger or cache failure
func IsStoreError(err error) bool {
	return errors.Is(err, ErrStore)
}
