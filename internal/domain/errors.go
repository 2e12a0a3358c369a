package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrRateLimited       = errors.New("rate limited")
	ErrUpstreamTimeout   = errors.New("upstream timeout")
	ErrUpstreamRateLimit = errors.New("upstream rate limit")
	ErrInternal          = errors.New("internal error")
)

// FieldError is a single violated input constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every violated field of one input, not just the first.
type ValidationError struct {
	Fields []FieldError
}

// Add records a violation.
func (e *ValidationError) Add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

// OrNil returns e when at least one violation was recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidArgument, strings.Join(parts, "; "))
}

// Unwrap lets callers match ValidationError with errors.Is(err, ErrInvalidArgument).
func (e *ValidationError) Unwrap() error { return ErrInvalidArgument }

// SaveError reports a persistence failure for a candidate and keeps the
// identity fields for diagnostics.
type SaveError struct {
	Name  string
	Email string
	Err   error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save candidate %q <%s>: %v", e.Name, e.Email, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }
