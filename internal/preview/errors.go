package preview

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorKind classifies a form field failure.
type ErrorKind string

const (
	InvalidURL       ErrorKind = "invalid_url"
	InvalidVariables ErrorKind = "invalid_variables"
)

var (
	// ErrInvalidURL matches any FieldError of kind InvalidURL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidVariables matches any FieldError of kind InvalidVariables.
	ErrInvalidVariables = errors.New("invalid variables")
)

// Form field names used in FieldError.Field.
const (
	FieldBase      = "base"
	FieldTemplate  = "template"
	FieldVariables = "variables"
)

// FieldError ties a parse failure to the form control that caused it.
type FieldError struct {
	Field string
	Kind  ErrorKind
	Err   error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

// Unwrap exposes the underlying parse error.
func (e *FieldError) Unwrap() error { return e.Err }

// Is matches the kind sentinels.
func (e *FieldError) Is(target error) bool {
	switch target {
	case ErrInvalidURL:
		return e.Kind == InvalidURL
	case ErrInvalidVariables:
		return e.Kind == InvalidVariables
	}
	return false
}

// Message is the text shown next to the offending field.
func (e *FieldError) Message() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

// FieldErrors collects every failing field of a form submission.
type FieldErrors []*FieldError

// Error implements the error interface.
func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, e := range fe {
		parts = append(parts, e.Error())
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// Field returns the error for field, if any.
func (fe FieldErrors) Field(name string) *FieldError {
	for _, e := range fe {
		if e.Field == name {
			return e
		}
	}
	return nil
}

// Messages maps field names to their inline message.
func (fe FieldErrors) Messages() map[string]string {
	if len(fe) == 0 {
		return nil
	}
	out := make(map[string]string, len(fe))
	for _, e := range fe {
		out[e.Field] = e.Message()
	}
	return out
}

// Err returns nil for an empty collection.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}
