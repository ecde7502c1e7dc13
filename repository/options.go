package repository

import "maps"

// CallOption configures a single call.
type CallOption func(*callOptions)

type callOptions struct {
	headers      map[string]string
	errorDecoder func(body any) error
}

// WithCallHeaders adds headers to one call. They override repository headers.
func WithCallHeaders(headers map[string]string) CallOption {
	return func(o *callOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string, len(headers))
		}
		maps.Copy(o.headers, headers)
	}
}

// WithErrorDecoder extracts a domain error from the JSON body of a failed
// response. A non-nil result is returned as a custom error instead of a
// request error.
func WithErrorDecoder(fn func(body any) error) CallOption {
	return func(o *callOptions) {
		o.errorDecoder = fn
	}
}

func newCallOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
