package errors

import (
	stderrors "errors"
)

// AsError converts an error to an *Error if possible.
func AsError(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of the first *Error in the chain.
func KindOf(err error) (Kind, bool) {
	e, ok := AsError(err)
	if !ok {
		return "", false
	}
	return e.Kind, true
}

// IsKind reports whether err is a repository error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// StatusCode returns the HTTP status code carried by err, or 0.
func StatusCode(err error) int {
	if e, ok := AsError(err); ok {
		return e.StatusCode
	}
	return 0
}

// CustomCause returns the domain error carried by a custom error.
func CustomCause(err error) (error, bool) {
	e, ok := AsError(err)
	if !ok || e.Kind != KindCustom {
		return nil, false
	}
	return e.Cause, true
}

// IsInvalidURL checks if an error is an invalid URL error.
func IsInvalidURL(err error) bool { return IsKind(err, KindInvalidURL) }

// IsUnauthenticated checks if an error is an unauthenticated session error.
func IsUnauthenticated(err error) bool { return IsKind(err, KindUnauthenticatedSession) }

// IsNoNetwork checks if an error is a no network connection error.
func IsNoNetwork(err error) bool { return IsKind(err, KindNoNetworkConnection) }

// IsJSON checks if an error is a JSON parse error.
func IsJSON(err error) bool { return IsKind(err, KindJSON) }

// IsDecode checks if an error is a decode error.
func IsDecode(err error) bool { return IsKind(err, KindDecode) }

// IsRequest checks if an error is a request error.
func IsRequest(err error) bool { return IsKind(err, KindRequest) }

// IsCustom checks if an error is a custom domain error.
func IsCustom(err error) bool { return IsKind(err, KindCustom) }

// IsRetryable checks if an error is a repository error the caller may retry.
func IsRetryable(err error) bool {
	e, ok := AsError(err)
	return ok && e.Retryable
}
