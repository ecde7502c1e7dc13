package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
)

// Transport is the port the request pipeline sends requests through.
// A failed call returns an *Error; for HTTP failures the *Response is
// returned alongside it.
type Transport interface {
	Execute(ctx context.Context, req Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req Request) (*Response, error)

// Execute calls f(ctx, req).
func (f TransportFunc) Execute(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// Request describes an outbound HTTP request.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, PATCH, DELETE, etc).
	Method string
	// URL is the absolute request URL.
	URL *url.URL
	// Params are sent in the query string for GET, HEAD and DELETE and as a
	// JSON object body for every other method.
	Params map[string]any
	// Headers are request-specific headers (merged with client defaults).
	Headers map[string]string
	// Auth authenticates this request.
	Auth *AuthConfig
}

// Response is the result of an HTTP request.
type Response struct {
	// Request is the request that was sent.
	Request *http.Request
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers http.Header
	// Body is the raw response body.
	Body []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError returns true if the status code is 4xx or 5xx.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// ParamsInQuery reports whether params of the given method go into the query string.
func ParamsInQuery(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return true
	default:
		return false
	}
}

// EncodeQuery formats params as query values. Slices and arrays repeat the key,
// nil values are skipped, everything else is formatted with %v.
func EncodeQuery(params map[string]any) url.Values {
	q := make(url.Values, len(params))
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := params[k]
		if v == nil {
			continue
		}
		rv := reflect.ValueOf(v)
		if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
			for i := 0; i < rv.Len(); i++ {
				q.Add(k, fmt.Sprintf("%v", rv.Index(i).Interface()))
			}
			continue
		}
		if b, ok := v.([]byte); ok {
			q.Add(k, string(b))
			continue
		}
		q.Add(k, fmt.Sprintf("%v", v))
	}
	return q
}

// EncodeBody marshals params as a JSON object. Nil params produce no body.
func EncodeBody(params map[string]any) ([]byte, error) {
	if params == nil {
		return nil, nil
	}
	return json.Marshal(params)
}
