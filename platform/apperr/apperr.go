// Package apperr provides standardized domain error types for the application.
// Domain services return these typed errors, and the conversation engine maps
// them to the appropriate re-prompt or failure message.
package apperr

import (
	"errors"
	"fmt"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindValidation indicates invalid user input (wrong MIME type,
	// malformed numeric field). Always recoverable by re-prompting.
	KindValidation
	// KindNotFound indicates a resource was not found.
	KindNotFound
	// KindExtraction indicates a transient extraction failure
	// (network/service error, malformed artifact).
	KindExtraction
	// KindNoText indicates the document contained no recoverable text.
	KindNoText
	// KindPublish indicates the board record creation failed.
	KindPublish
	// KindInternal indicates an unexpected internal error.
	KindInternal
)

// Error is a domain error with a typed Kind.
type Error struct {
	Kind    Kind
	Message string
	Op      string // Operation that failed (optional)
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Recoverable reports whether the conversation can continue after this
// error without losing state. Validation errors re-prompt; extraction
// errors leave the document uploaded with absent fields.
func (e *Error) Recoverable() bool {
	switch e.Kind {
	case KindValidation, KindExtraction, KindNoText:
		return true
	default:
		return false
	}
}

// New creates a new domain error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp returns the error with the operation set.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// Convenience constructors for common error types.

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// NotFound creates a not found error.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Extraction creates a transient extraction failure.
func Extraction(message string, err error) *Error {
	return Wrap(KindExtraction, message, err)
}

// NoText creates an error for documents with no recoverable text.
func NoText(message string) *Error {
	return New(KindNoText, message)
}

// Publish creates a board publish failure.
func Publish(message string, err error) *Error {
	return Wrap(KindPublish, message, err)
}

// Internal creates an internal error.
func Internal(message string) *Error {
	return New(KindInternal, message)
}

// GetKind extracts the error kind from an error, unwrapping as needed.
// Returns KindUnknown if no *Error is in the chain.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is checks if err is an *Error with the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
