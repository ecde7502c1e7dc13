// Package httpclient is the HTTP transport of the request pipeline.
//
// Transport is the port the pipeline depends on; Adapter is its net/http
// implementation. Failures are returned as *Error values that carry the
// status code, a human-readable description, the low-level reason, and
// whether the failure is transient.
//
// # Basic Usage
//
//	adapter, err := httpclient.New(httpclient.Config{Timeout: 10 * time.Second})
//	resp, err := adapter.Execute(ctx, httpclient.Request{
//	    Method: http.MethodGet,
//	    URL:    u,
//	    Params: map[string]any{"page": 2},
//	    Auth:   httpclient.TokenAuth(token),
//	})
//
// # With Resilience
//
//	adapter, err := httpclient.New(httpclient.Config{
//	    Retry:          httpclient.DefaultRetryConfig(),
//	    CircuitBreaker: httpclient.DefaultCircuitBreakerConfig("orders-api"),
//	    Bulkhead:       httpclient.DefaultBulkheadConfig("orders-api"),
//	})
package httpclient
