package errors

// Kind identifies which branch of the repository error taxonomy an error belongs to.
type Kind string

// Local failures, detected before any transport call.
const (
	// KindInvalidURL indicates the request URL could not be built from the endpoint and path.
	KindInvalidURL Kind = "INVALID_URL"
	// KindUnauthenticatedSession indicates there is no session, or the session was just expired.
	KindUnauthenticatedSession Kind = "UNAUTHENTICATED_SESSION"
)

// Transport failures.
const (
	// KindNoNetworkConnection indicates the transport reported a loss of connectivity.
	KindNoNetworkConnection Kind = "NO_NETWORK_CONNECTION"
	// KindRequest indicates any other transport or HTTP failure.
	KindRequest Kind = "REQUEST_ERROR"
)

// Body failures.
const (
	// KindJSON indicates the response body is not well-formed JSON.
	KindJSON Kind = "JSON_ERROR"
	// KindDecode indicates the body parsed but did not have the expected shape.
	KindDecode Kind = "DECODE_ERROR"
	// KindCustom carries a domain error extracted from the body by a decoder.
	KindCustom Kind = "CUSTOM_ERROR"
)

var retryableKinds = map[Kind]bool{
	KindNoNetworkConnection:    true,
	KindInvalidURL:             false,
	KindUnauthenticatedSession: false,
	KindJSON:                   false,
	KindDecode:                 false,
	KindCustom:                 false,
}

// IsRetryableKind reports whether a caller may retry errors of the given kind as-is.
// Request errors are not listed: their retryability comes from the transport failure.
func IsRetryableKind(kind Kind) bool {
	return retryableKinds[kind]
}
