// Package fault is the error taxonomy of the synthesis and publish
// pipeline. Every failure carries a technical message for the logs and a
// short user-facing message for the configuration surface.
package fault

import (
	"errors"
	"fmt"
)

// Code identifies a failure class.
type Code string

const (
	NoCredential           Code = "NO_API_KEY"
	InvalidCredential      Code = "INVALID_API_KEY"
	MalformedDeckResponse  Code = "MALFORMED_DECK_RESPONSE"
	InvalidDeckSchema      Code = "INVALID_DECK_SCHEMA"
	CardServiceUnavailable Code = "ANKI_UNAVAILABLE"
	NoTemplateAvailable    Code = "NO_MODEL_AVAILABLE"
	InsufficientFields     Code = "INSUFFICIENT_FIELDS"
	NetworkError           Code = "NETWORK_ERROR"
)

// Error is a classified pipeline failure.
type Error struct {
	Code    Code
	User    string // short message fit for the user
	Message string // technical detail for the logs
	cause   error
}

// New creates a classified error.
func New(code Code, user, message string) *Error {
	return &Error{Code: code, User: user, Message: message}
}

// Wrap classifies an underlying error.
func Wrap(code Code, user string, cause error) *Error {
	return &Error{Code: code, User: user, Message: cause.Error(), cause: cause}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// CodeOf extracts the failure class from an error chain. Unclassified
// errors report NetworkError, the generic transport failure.
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return NetworkError
}

// UserMessage extracts the user-facing message from an error chain.
func UserMessage(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.User
	}
	return "Error de red inesperado."
}
