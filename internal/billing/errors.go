package billing

import (
	"errors"
	"fmt"
)

// Validation failures. Every *ValidationError returned by this package
// matches exactly one of these through errors.Is.
var (
	// ErrMissingBillerName is returned when the biller name is blank or whitespace only.
	ErrMissingBillerName = errors.New("biller name is required")

	// ErrMissingBillerContact is returned when the biller contact is blank.
	ErrMissingBillerContact = errors.New("biller contact is required")

	// ErrInvalidBillerContact is returned when the contact does not match the configured pattern.
	ErrInvalidBillerContact = errors.New("biller contact is invalid")

	// ErrNoLineItems is returned when a draft carries no line items.
	ErrNoLineItems = errors.New("at least one line item is required")

	// ErrMissingItemName is returned when a line item has a blank name.
	ErrMissingItemName = errors.New("line item name is required")

	// ErrInvalidQuantity is returned for a missing, non-numeric or non-positive quantity.
	ErrInvalidQuantity = errors.New("line item quantity must be a positive number")

	// ErrInvalidPrice is returned for a missing, non-numeric or non-positive price.
	ErrInvalidPrice = errors.New("line item price must be a positive number")

	// ErrTotalTooLarge is returned when a line amount or the grand total reaches MaxAmount.
	ErrTotalTooLarge = errors.New("bill total is too large")
)

// ValidationError reports the first violated draft rule. Message is the
// user-facing text shown by the form.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap returns the rule sentinel.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, rule error, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
		Err:     rule,
	}
}

// IsValidationError reports whether err carries a *ValidationError and returns it.
func IsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
