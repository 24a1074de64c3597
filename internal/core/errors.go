package core

import "fmt"

// ValidationError reports a rejected input or an operation attempted against
// a record in the wrong state. Callers detect it with errors.As to separate
// caller mistakes from infrastructure failures.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func validationErrf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ErrNotFound is returned when a referenced order, rule or record does not
// exist in its table.
type ErrNotFound struct {
	Kind string
	Key  string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

func notFound(kind, key string) *ErrNotFound {
	return &ErrNotFound{Kind: kind, Key: key}
}
