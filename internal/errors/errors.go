// Package errors defines the error values shared by the storefront service
// and the helpers used to classify them at the HTTP boundary.
package errors

import (
	"fmt"

	ferrors "github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a product, order or image does not exist.
	ErrNotFound = ferrors.New("not found")

	// ErrUnauthorized is returned when admin credentials are missing or wrong.
	ErrUnauthorized = ferrors.New("unauthorized")

	// ErrSubmissionFailed marks a failed order submission. The cart is left
	// untouched so the customer can resubmit.
	ErrSubmissionFailed = ferrors.New("order submission failed")

	// ErrCartNotCleared accompanies a recorded order whose emptied cart
	// could not be stored. The shopper must be told the cart may reappear.
	ErrCartNotCleared = ferrors.New("cart not cleared after order")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string            `json:"field"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Details: map[string]string{field: message},
	}
}

// New creates a plain error.
func New(msg string) error {
	return ferrors.New(msg)
}

// Wrap annotates err with msg. A nil err stays nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return ferrors.Wrap(err, msg)
}

// Wrapf annotates err with a formatted message. A nil err stays nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return ferrors.Wrapf(err, format, args...)
}

func Is(err, target error) bool {
	return ferrors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return ferrors.As(err, target)
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return ferrors.As(err, &v)
}
