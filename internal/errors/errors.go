// Package errors provides structured error handling with a relay-oriented taxonomy.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error for logging, metrics and exit handling.
type ErrorType string

const (
	// TypeStartup indicates a fatal startup condition (e.g. listening port already bound).
	// The process must not proceed to accept connections.
	TypeStartup ErrorType = "startup"
	// TypeAccept indicates a transient accept-loop failure. The loop retries.
	TypeAccept ErrorType = "accept"
	// TypeSession indicates a per-connection failure. Only that session terminates.
	TypeSession ErrorType = "session"
	// TypeRecipient indicates a single recipient's write failure during fan-out.
	// Delivery to the remaining recipients continues.
	TypeRecipient ErrorType = "recipient"
	// TypeInternal indicates an unexpected server-side error.
	TypeInternal ErrorType = "internal"
)

// Error represents a structured error with type, message, and context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// StartupError creates a new startup-fatal error.
func StartupError(message string, cause error) *Error {
	return &Error{
		Type:    TypeStartup,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// AcceptError creates a new accept-loop error.
func AcceptError(message string, cause error) *Error {
	return &Error{
		Type:    TypeAccept,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// SessionError creates a new per-connection error.
func SessionError(message string, cause error) *Error {
	return &Error{
		Type:    TypeSession,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// RecipientError creates a new per-recipient fan-out error.
func RecipientError(message string, cause error) *Error {
	return &Error{
		Type:    TypeRecipient,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// InternalError creates a new internal error.
func InternalError(message string, cause error) *Error {
	return &Error{
		Type:    TypeInternal,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// WithContext adds context fields to the error (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Fields returns the error's context as alternating key/value pairs for slog,
// always including "error" and "error_type".
func (e *Error) Fields() []any {
	fields := make([]any, 0, 2*len(e.Context)+4)
	fields = append(fields, "error", e.Error(), "error_type", string(e.Type))
	for k, v := range e.Context {
		fields = append(fields, k, v)
	}
	return fields
}

// IsType reports whether err is (or wraps) an *Error of the given type.
func IsType(err error, t ErrorType) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == t
}

// IsStartup reports whether err is a startup-fatal error.
func IsStartup(err error) bool {
	return IsType(err, TypeStartup)
}
