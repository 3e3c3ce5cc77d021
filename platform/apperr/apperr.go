// Package apperr provides standardized domain error types for the application.
// Domain services return these typed errors, and the HTTP layer maps them to
// status codes and lookup envelopes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind represents the category of error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindValidation indicates invalid input data.
	KindValidation
	// KindBadRequest indicates a malformed or invalid request.
	KindBadRequest
	// KindInternal indicates an unexpected internal error.
	KindInternal
	// KindMissingInput indicates an empty postcode or house number after trimming.
	KindMissingInput
	// KindIncompleteBinding indicates a binding spec without both drivers or
	// without any dependent field.
	KindIncompleteBinding
	// KindMalformedResponse indicates the lookup service broke the envelope
	// contract (unparseable body, missing success or data).
	KindMalformedResponse
	// KindService indicates the lookup service explicitly reported failure.
	KindService
	// KindUpstream indicates the lookup service could not be reached or
	// answered with a non-success status.
	KindUpstream
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindValidation:        "validation",
	KindBadRequest:        "bad_request",
	KindInternal:          "internal",
	KindMissingInput:      "missing_input",
	KindIncompleteBinding: "incomplete_binding",
	KindMalformedResponse: "malformed_response",
	KindService:           "service_error",
	KindUpstream:          "upstream_error",
}

// String returns the snake_case name used in logs and metrics.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Error is a domain error with a typed Kind for HTTP mapping.
type Error struct {
	Kind    Kind
	Message string
	Op      string      // Operation that failed (optional)
	Err     error       // Underlying error (optional)
	Details interface{} // Additional details for response (optional)
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

// HTTPStatus returns the appropriate HTTP status code for this error kind.
// Service failures travel inside a 200 envelope so clients can read the message.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindBadRequest, KindMissingInput:
		return http.StatusBadRequest
	case KindService:
		return http.StatusOK
	case KindMalformedResponse, KindUpstream:
		return http.StatusBadGateway
	case KindInternal, KindIncompleteBinding:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
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

// WithDetails returns the error with additional details.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// Convenience constructors for common error types.

// Validation creates a validation error.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// BadRequest creates a bad request error.
func BadRequest(message string) *Error {
	return New(KindBadRequest, message)
}

// Internal creates an internal server error.
func Internal(message string) *Error {
	return New(KindInternal, message)
}

// MissingInput creates a missing input error.
func MissingInput(message string) *Error {
	return New(KindMissingInput, message)
}

// IncompleteBinding creates a binding setup error.
func IncompleteBinding(message string) *Error {
	return New(KindIncompleteBinding, message)
}

// MalformedResponse creates a protocol violation error.
func MalformedResponse(message string) *Error {
	return New(KindMalformedResponse, message)
}

// Service creates an error reported by the lookup service itself.
func Service(message string) *Error {
	return New(KindService, message)
}

// Upstream wraps a transport failure or non-success status.
func Upstream(message string, err error) *Error {
	return Wrap(KindUpstream, message, err)
}

// GetKind extracts the error kind from the first *Error in the chain.
// Returns KindUnknown if there is none.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is checks if err carries an *Error with the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && GetKind(err) == kind
}
