package domain

import (
	"errors"
	"strings"
)

// Repository error taxonomy / Taxonomie des erreurs du repository
var (
	// ErrTransport wraps network or service-level failures.
	ErrTransport = errors.New("transport failure")
	// ErrEmptyAcknowledgment means the backend accepted the call but returned no row.
	ErrEmptyAcknowledgment = errors.New("no row acknowledged by the backend")
	// ErrInvalidRow means a returned row could not be mapped to a Deliverable.
	ErrInvalidRow = errors.New("invalid row returned by the backend")
)

// ValidationError carries every violated rule of a rejected candidate.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// NewValidationError returns nil when messages is empty.
func NewValidationError(messages []string) error {
	if len(messages) == 0 {
		return nil
	}
	return &ValidationError{Messages: messages}
}
