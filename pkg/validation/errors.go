// Package validation provides input validation utilities and the invalid
// input error type shared by the calculation packages.
package validation

import (
	"errors"
	"fmt"
	"math"
)

// InvalidInputError reports a rejected input field before any computation
// has started.
type InvalidInputError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %s=%v: %s", e.Field, e.Value, e.Reason)
}

// IsInvalidInput reports whether err wraps an *InvalidInputError.
func IsInvalidInput(err error) bool {
	var invalid *InvalidInputError
	return errors.As(err, &invalid)
}

// Field returns the offending field name of an invalid input error, or an
// empty string when err is not one.
func Field(err error) string {
	var invalid *InvalidInputError
	if errors.As(err, &invalid) {
		return invalid.Field
	}
	return ""
}

// Finite rejects NaN and infinite values.
func Finite(field string, value float64) error {
	if math.IsNaN(value) {
		return &InvalidInputError{Field: field, Value: value, Reason: "must be a number"}
	}
	if math.IsInf(value, 0) {
		return &InvalidInputError{Field: field, Value: value, Reason: "must be finite"}
	}
	return nil
}

// NonNegative rejects non-finite and negative values.
func NonNegative(field string, value float64) error {
	if err := Finite(field, value); err != nil {
		return err
	}
	if value < 0 {
		return &InvalidInputError{Field: field, Value: value, Reason: "must not be negative"}
	}
	return nil
}

// Positive rejects non-finite, zero and negative values.
func Positive(field string, value float64) error {
	if err := Finite(field, value); err != nil {
		return err
	}
	if value <= 0 {
		return &InvalidInputError{Field: field, Value: value, Reason: "must be greater than zero"}
	}
	return nil
}

// Percentage rejects values outside [0, 100].
func Percentage(field string, value float64) error {
	if err := NonNegative(field, value); err != nil {
		return err
	}
	if value > 100 {
		return &InvalidInputError{Field: field, Value: value, Reason: "must not exceed 100 percent"}
	}
	return nil
}

// PositiveInt rejects zero and negative counts such as terms and horizons.
func PositiveInt(field string, value int) error {
	if value <= 0 {
		return &InvalidInputError{Field: field, Value: float64(value), Reason: "must be greater than zero"}
	}
	return nil
}

// IntAtMost rejects counts above max.
func IntAtMost(field string, value, max int) error {
	if value > max {
		return &InvalidInputError{Field: field, Value: float64(value), Reason: fmt.Sprintf("must not exceed %d", max)}
	}
	return nil
}

// First returns the first non-nil error, so callers can list checks in field
// order and report the earliest offender.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
