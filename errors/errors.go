// Package errors defines the error taxonomy returned by the request pipeline.
// Every failure surfaces as a single *Error whose Kind tells the caller which
// branch it is on: invalid URL, unauthenticated session, no network connection,
// malformed JSON, decode failure, request failure, or a custom domain error.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Error is the single error type returned by the repository layer.
type Error struct {
	// Kind classifies the failure.
	Kind Kind `json:"kind"`
	// Message is a human-readable description.
	Message string `json:"message"`
	// Retryable indicates whether the caller may retry the same call.
	Retryable bool `json:"retryable"`
	// StatusCode is the HTTP status code of the underlying transport failure, if any.
	StatusCode int `json:"status_code,omitempty"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is a repository error of the same kind, so the
// sentinel values below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *Error) WithDetails(details map[string]any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Sentinels for errors.Is checks. They match any error of the same kind.
var (
	ErrInvalidURL             = &Error{Kind: KindInvalidURL}
	ErrUnauthenticatedSession = &Error{Kind: KindUnauthenticatedSession}
	ErrNoNetworkConnection    = &Error{Kind: KindNoNetworkConnection}
	ErrJSON                   = &Error{Kind: KindJSON}
	ErrDecode                 = &Error{Kind: KindDecode}
	ErrRequest                = &Error{Kind: KindRequest}
	ErrCustom                 = &Error{Kind: KindCustom}
)

// New creates an Error of the given kind with automatic retryable detection.
func New(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:      kind,
		Message:   message,
		Retryable: IsRetryableKind(kind),
		Cause:     cause,
	}
}

// InvalidURL creates an error for a URL that could not be assembled.
func InvalidURL(cause error) *Error {
	return New(KindInvalidURL, "The request URL is invalid.", cause)
}

// UnauthenticatedSession creates an error for a call that needs a session but has none.
func UnauthenticatedSession() *Error {
	return New(KindUnauthenticatedSession, "No active session. Please log in again.", nil)
}

// NoNetworkConnection creates an error for a transport failure caused by lost connectivity.
func NoNetworkConnection(cause error) *Error {
	return New(KindNoNetworkConnection, "The Internet connection appears to be offline.", cause)
}

// JSON creates an error for a response body that is not valid JSON.
func JSON(cause error) *Error {
	return New(KindJSON, "The response body is not valid JSON.", cause)
}

// Decode creates an error for a response body that does not match the expected shape.
func Decode(cause error) *Error {
	return New(KindDecode, "The response body could not be decoded.", cause)
}

// Request creates an error wrapping a transport or HTTP failure. The status
// code and retryability are taken from the cause when it exposes them.
func Request(cause error) *Error {
	e := New(KindRequest, "The request failed.", cause)
	var sc statusCoder
	if stderrors.As(cause, &sc) {
		e.StatusCode = sc.Status()
	}
	var r retryabler
	if stderrors.As(cause, &r) {
		e.Retryable = r.IsRetryable()
	}
	if e.StatusCode > 0 {
		e.Message = fmt.Sprintf("The request failed with HTTP %d.", e.StatusCode)
	}
	return e
}

// Custom wraps a domain error extracted from a response body. Decoders return
// it to surface the domain error instead of a generic decode failure.
func Custom(cause error) *Error {
	msg := "The server returned an error."
	if cause != nil {
		msg = cause.Error()
	}
	return New(KindCustom, msg, cause)
}

// statusCoder is implemented by transport errors that carry an HTTP status code.
type statusCoder interface {
	Status() int
}

// retryabler is implemented by transport errors that know whether they are transient.
type retryabler interface {
	IsRetryable() bool
}
