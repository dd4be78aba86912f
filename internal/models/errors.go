package models

import "fmt"

// ValidationError reports a required field that is missing or malformed
// before a write reaches the store.
type ValidationError struct {
	// Field is the name of the offending field.
	Field string

	// Reason describes what is wrong with it.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func validationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
