// internal/form/errors.go
//
// Forms subsystem: the validation error type.
//
// Handlers wrap []ErrorField in ValidationError when they need to pass a
// failed validation through an error return, and use IsValidationError to
// tell user input errors from system failures.

package form

import (
	"errors"
	"strings"
)

// ValidationError wraps []ErrorField and satisfies the error interface.
type ValidationError struct{ Fields []ErrorField }

func (ve ValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return "form validation failed"
	}
	names := make([]string, len(ve.Fields))
	for i, f := range ve.Fields {
		names[i] = f.Name
	}
	return "form validation failed: " + strings.Join(names, ", ")
}

// IsValidationError reports whether err wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// AsValidationError extracts the field list from err.
func AsValidationError(err error) ([]ErrorField, bool) {
	var ve ValidationError
	if errors.As(err, &ve) {
		return ve.Fields, true
	}
	return nil, false
}

// FieldMessages flattens errs into name → message.  Nil in, nil out.
func FieldMessages(errs []ErrorField) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		out[e.Name] = e.Message
	}
	return out
}
