package column

import "fmt"

// ValidationError reports a value rejected by a column's validation or by a
// typed conversion.
type ValidationError struct {
	// Column is the column name, empty when the Spec was used directly.
	Column string

	// Kind is the column type.
	Kind Kind

	// Value is the rejected value.
	Value any

	// Reason describes the failure.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("invalid value for column %q (%s): %#v: %s", e.Column, e.Kind, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s value %#v: %s", e.Kind, e.Value, e.Reason)
}
