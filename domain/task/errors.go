package task

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates no task exists with the given id.
	ErrNotFound = errors.New("task not found")
	// ErrForbidden indicates the actor may not perform the action on the task.
	ErrForbidden = errors.New("this action is unauthorized")
	// ErrUnauthenticated indicates the request carries no valid actor identity.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ValidationError collects per-field messages for rejected input.
type ValidationError struct {
	Fields map[string][]string `json:"fields"`
}

// NewValidationError creates a ValidationError with a single field message.
func NewValidationError(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

// Add records a message for field.
func (v *ValidationError) Add(field, msg string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], msg)
}

// Has reports whether field already has a message.
func (v *ValidationError) Has(field string) bool {
	return len(v.Fields[field]) > 0
}

// Empty reports whether no messages were recorded.
func (v *ValidationError) Empty() bool {
	return len(v.Fields) == 0
}

// Err returns v as an error, or nil when it holds no messages.
func (v *ValidationError) Err() error {
	if v == nil || v.Empty() {
		return nil
	}
	return v
}

// Error implements error. Fields are listed in sorted order.
func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(v.Fields[k], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
