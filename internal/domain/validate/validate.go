// Package validate provides the field-level error returned by domain
// validation before anything reaches the store.
package validate

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Error reports a missing or malformed input field.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Required returns an Error for a missing field.
func Required(field string) error {
	return &Error{Field: field, Reason: "is required"}
}

// Invalid returns an Error with a custom reason.
func Invalid(field, reason string) error {
	return &Error{Field: field, Reason: reason}
}

// NonNegative checks that a money value is not below zero.
func NonNegative(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return Invalid(field, "must not be negative")
	}
	return nil
}
