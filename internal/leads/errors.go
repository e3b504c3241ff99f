package leads

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrInvalidPayload is returned when the request body is not a JSON object.
	ErrInvalidPayload = errors.New("leads: payload must be a JSON object")

	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")

	// ErrDuplicateLead is returned when a store already holds a lead with the same id.
	ErrDuplicateLead = errors.New("leads: duplicate lead id")

	// ErrStoreUnavailable is returned when a store is not configured.
	ErrStoreUnavailable = errors.New("leads: store unavailable")
)

// ValidationError lists every invalid field with one message per field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
