// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"
	"net/http"
)

// ErrNotFound is returned by repositories when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Repository-level uniqueness violations. Postgres repositories map unique
// index violations onto these so services can answer with a ValidationError
// even when a concurrent write slipped past the pre-check.
var (
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already taken")
)

// Kind classifies an error shown to API clients.
type Kind string

// Error kinds and their JSON names.
const (
	KindValidation       Kind = "ValidationError"
	KindNotFound         Kind = "NotFoundError"
	KindUnauthorized     Kind = "UnauthorizedError"
	KindMethodNotAllowed Kind = "MethodNotAllowedError"
	KindInternal         Kind = "InternalServerError"
)

// StatusCode returns the HTTP status associated with the kind.
func (k Kind) StatusCode() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Error is a client-facing failure carrying a message and a suggested action.
// Cause is kept for logging and errors.Is checks; it is never rendered.
type Error struct {
	Kind    Kind
	Message string
	Action  string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Cause.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// StatusCode returns the HTTP status for the error.
func (e *Error) StatusCode() int { return e.Kind.StatusCode() }

// NewValidationError creates a ValidationError.
func NewValidationError(message, action string) *Error {
	return &Error{Kind: KindValidation, Message: message, Action: action}
}

// NewNotFoundError creates a NotFoundError wrapping cause.
func NewNotFoundError(message, action string, cause error) *Error {
	return &Error{Kind: KindNotFound, Message: message, Action: action, Cause: cause}
}

// NewUnauthorizedError creates an UnauthorizedError.
func NewUnauthorizedError(message, action string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message, Action: action}
}

// NewMethodNotAllowedError creates a MethodNotAllowedError.
func NewMethodNotAllowedError() *Error {
	return &Error{
		Kind:    KindMethodNotAllowed,
		Message: "Method not allowed for this endpoint.",
		Action:  "Check that the HTTP method is valid for this endpoint.",
	}
}

// NewInternalError hides cause behind a generic message.
func NewInternalError(cause error) *Error {
	return &Error{
		Kind:    KindInternal,
		Message: "An unexpected internal error occurred.",
		Action:  "Contact support.",
		Cause:   cause,
	}
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}
