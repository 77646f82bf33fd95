// services/errors.go
package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrSessionNotFound        = errors.New("registration session not found")
	ErrSessionForbidden       = errors.New("registration session belongs to another user")
	ErrInvalidPhase           = errors.New("action not allowed in the current phase")
	ErrSessionClosed          = errors.New("registration session closed")
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrUploadsDisabled        = errors.New("thumbnail uploads are not configured")
)

const genericBackendMessage = "Something went wrong. Please try again."

// ValidationError is raised locally before any request leaves the service.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = message
}

func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// BackendError is a non-2xx answer from the tournament API.
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// UserMessage returns the text shown to the player for err.
func UserMessage(err error) string {
	var be *BackendError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	if errors.Is(err, ErrAuthenticationRequired) {
		return "Please log in to continue."
	}
	return genericBackendMessage
}
