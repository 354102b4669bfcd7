package validation

import (
	"fmt"
	"strings"
)

// FieldError is a single violated constraint, addressed by field name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violated constraint of a payload, not just
// the first one found. Callers translate it into a client error response.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field violation.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Merge appends all violations from other, prefixing each field name.
func (e *ValidationError) Merge(prefix string, other *ValidationError) {
	if other == nil {
		return
	}
	for _, f := range other.Fields {
		field := f.Field
		if prefix != "" {
			if field == "" {
				field = prefix
			} else {
				field = prefix + "." + field
			}
		}
		e.Fields = append(e.Fields, FieldError{Field: field, Message: f.Message})
	}
}

// Empty reports whether no violations were recorded.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// AsError returns the receiver as an error, or nil when nothing failed.
// Avoids the typed-nil pitfall of returning *ValidationError directly.
func (e *ValidationError) AsError() error {
	if e == nil || e.Empty() {
		return nil
	}
	return e
}

// UnknownActionTypeError signals an action type outside the closed enum.
// Unlike trigger conditions, which fall back to a permissive map, unknown
// action types are a hard failure with no partial validation attempted.
type UnknownActionTypeError struct {
	ActionType string
}

func (e *UnknownActionTypeError) Error() string {
	return fmt.Sprintf("unknown action type %q", e.ActionType)
}
