// Package dberr defines the error kinds reported by every table and document operation.
package dberr

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingFields is returned when a required field is absent, or present
	// with the wrong JSON type for its declared key datatype.
	ErrMissingFields = errors.New("missing fields")

	// ErrTableNotFound is returned when an operation names a table that does not exist.
	ErrTableNotFound = errors.New("table not found")

	// ErrBadInput is returned when a payload does not have the required shape.
	ErrBadInput = errors.New("bad input")
)

// MissingFields returns an error wrapping ErrMissingFields.
func MissingFields(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMissingFields, fmt.Sprintf(format, args...))
}

// TableNotFound returns an error wrapping ErrTableNotFound for the named table.
func TableNotFound(name string) error {
	return fmt.Errorf("%w: %q", ErrTableNotFound, name)
}

// BadInput returns an error wrapping ErrBadInput.
func BadInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadInput, fmt.Sprintf(format, args...))
}

// KindOf returns the sentinel kind err wraps, or nil for errors outside the taxonomy.
func KindOf(err error) error {
	for _, kind := range []error{ErrMissingFields, ErrTableNotFound, ErrBadInput} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
