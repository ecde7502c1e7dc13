package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"

	"github.com/emmanuelhcpk/wolmo-networking/resilience"
)

// ErrorCode classifies transport failures.
type ErrorCode int

const (
	// ErrCodeTimeout indicates a request or connection timeout.
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeConnection indicates a connection failure (refused, reset, unknown host).
	ErrCodeConnection
	// ErrCodeOffline indicates the device has no usable network.
	ErrCodeOffline
	// ErrCodeCanceled indicates the caller cancelled the request.
	ErrCodeCanceled
	// ErrCodeRejected indicates a local limiter refused to send the request.
	ErrCodeRejected
	// ErrCodeInvalidRequest indicates the request could not be built.
	ErrCodeInvalidRequest
	// ErrCodeAuth indicates an authentication/authorization failure (401/403).
	ErrCodeAuth
	// ErrCodeNotFound indicates the resource was not found (404).
	ErrCodeNotFound
	// ErrCodeRateLimit indicates rate limiting (429).
	ErrCodeRateLimit
	// ErrCodeValidation indicates the server rejected the request (other 4xx).
	ErrCodeValidation
	// ErrCodeServer indicates a server-side error (5xx).
	ErrCodeServer
)

var errorCodeNames = map[ErrorCode]string{
	ErrCodeTimeout:        "timeout",
	ErrCodeConnection:     "connection",
	ErrCodeOffline:        "offline",
	ErrCodeCanceled:       "canceled",
	ErrCodeRejected:       "rejected",
	ErrCodeInvalidRequest: "invalid_request",
	ErrCodeAuth:           "auth",
	ErrCodeNotFound:       "not_found",
	ErrCodeRateLimit:      "rate_limit",
	ErrCodeValidation:     "validation",
	ErrCodeServer:         "server",
}

// String returns the error code name.
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "unknown"
}

// OfflineDescription is the description carried by ErrCodeOffline errors.
const OfflineDescription = "The Internet connection appears to be offline."

// Error is a structured transport failure.
type Error struct {
	// StatusCode is the HTTP status code (0 for connection-level errors).
	StatusCode int
	// Code classifies the error.
	Code ErrorCode
	// Description is a human-readable description of the failure.
	Description string
	// Reason is the low-level failure reason.
	Reason string
	// Retryable indicates whether the operation can be retried.
	Retryable bool
	// Body is the response body for HTTP failures (may be nil).
	Body []byte
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Description
	if e.Reason != "" && e.Reason != e.Description {
		msg += " (" + e.Reason + ")"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, msg)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, msg)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status code, or 0 for connection-level failures.
func (e *Error) Status() int {
	return e.StatusCode
}

// IsRetryable reports whether the failure is transient.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(err error) *Error {
	return &Error{
		Code:        ErrCodeTimeout,
		Description: "The request timed out.",
		Reason:      err.Error(),
		Retryable:   true,
		Err:         err,
	}
}

// NewConnectionError creates a connection error.
func NewConnectionError(err error) *Error {
	return &Error{
		Code:        ErrCodeConnection,
		Description: "Could not connect to the server.",
		Reason:      err.Error(),
		Retryable:   true,
		Err:         err,
	}
}

// NewOfflineError creates an error for a device without network access.
func NewOfflineError(err error) *Error {
	return &Error{
		Code:        ErrCodeOffline,
		Description: OfflineDescription,
		Reason:      err.Error(),
		Retryable:   true,
		Err:         err,
	}
}

// NewCanceledError creates an error for a request cancelled by the caller.
func NewCanceledError(err error) *Error {
	return &Error{
		Code:        ErrCodeCanceled,
		Description: "The request was cancelled.",
		Reason:      err.Error(),
		Err:         err,
	}
}

// NewRejectedError creates an error for a request refused by a local limiter.
func NewRejectedError(err error) *Error {
	return &Error{
		Code:        ErrCodeRejected,
		Description: "The request was not sent.",
		Reason:      err.Error(),
		Err:         err,
	}
}

// NewInvalidRequestError creates an error for a request that could not be built.
func NewInvalidRequestError(err error) *Error {
	return &Error{
		Code:        ErrCodeInvalidRequest,
		Description: "The request is invalid.",
		Reason:      err.Error(),
		Err:         err,
	}
}

// ClassifyStatusCode converts an HTTP status code into a typed error.
// Returns nil for 2xx status codes.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	e := &Error{
		StatusCode:  statusCode,
		Description: http.StatusText(statusCode),
		Reason:      fmt.Sprintf("HTTP %d", statusCode),
		Body:        body,
	}
	if e.Description == "" {
		e.Description = e.Reason
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		e.Code = ErrCodeAuth
	case statusCode == http.StatusNotFound:
		e.Code = ErrCodeNotFound
	case statusCode == http.StatusTooManyRequests:
		e.Code = ErrCodeRateLimit
		e.Retryable = true
	case statusCode >= 400 && statusCode < 500:
		e.Code = ErrCodeValidation
	case statusCode >= 500:
		e.Code = ErrCodeServer
		e.Retryable = statusCode != http.StatusNotImplemented
	default:
		e.Code = ErrCodeServer
	}
	return e
}

// classifyError converts an error returned while sending a request into an *Error.
func classifyError(ctx context.Context, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	switch {
	case errors.Is(err, context.Canceled):
		return NewCanceledError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError(err)
	case ctx.Err() != nil:
		return classifyError(ctx, fmt.Errorf("%w: %v", ctx.Err(), err))
	case errors.Is(err, resilience.ErrCircuitOpen),
		errors.Is(err, resilience.ErrBulkheadFull),
		errors.Is(err, resilience.ErrBulkheadTimeout),
		errors.Is(err, resilience.ErrRateLimited):
		return NewRejectedError(err)
	case isOffline(err):
		return NewOfflineError(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(err)
	}
	return NewConnectionError(err)
}

// isOffline reports whether err means the host has no route to any network.
func isOffline(err error) bool {
	if errors.Is(err, syscall.ENETUNREACH) || errors.Is(err, syscall.ENETDOWN) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary && !dnsErr.IsNotFound
	}
	return false
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool { return hasCode(err, ErrCodeTimeout) }

// IsConnection checks if an error is a connection error.
func IsConnection(err error) bool { return hasCode(err, ErrCodeConnection) }

// IsOffline checks if an error means the device is offline.
func IsOffline(err error) bool { return hasCode(err, ErrCodeOffline) }

// IsCanceled checks if an error is a caller cancellation.
func IsCanceled(err error) bool { return hasCode(err, ErrCodeCanceled) }

// IsRejected checks if an error was produced by a local limiter.
func IsRejected(err error) bool { return hasCode(err, ErrCodeRejected) }

// IsAuth checks if an error is an authentication error.
func IsAuth(err error) bool { return hasCode(err, ErrCodeAuth) }

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsRateLimit checks if an error is a rate-limit error.
func IsRateLimit(err error) bool { return hasCode(err, ErrCodeRateLimit) }

// IsServerError checks if an error is a server error.
func IsServerError(err error) bool { return hasCode(err, ErrCodeServer) }

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// StatusCode returns the HTTP status code carried by err, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// isBreakerFailure decides which failures count against the circuit breaker:
// server errors and connection-level failures, never client errors.
func isBreakerFailure(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return err != nil
	}
	switch e.Code {
	case ErrCodeServer, ErrCodeTimeout, ErrCodeConnection, ErrCodeOffline:
		return true
	default:
		return false
	}
}
