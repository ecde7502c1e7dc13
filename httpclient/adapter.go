package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/net/http2"

	"github.com/emmanuelhcpk/wolmo-networking/logger"
	"github.com/emmanuelhcpk/wolmo-networking/observability"
	"github.com/emmanuelhcpk/wolmo-networking/resilience"
)

// HeaderRequestID carries the per-attempt request identifier.
const HeaderRequestID = "X-Request-ID"

// Adapter is the net/http implementation of Transport, with TLS and
// optional retry, rate limiting, bulkhead and circuit breaking.
type Adapter struct {
	httpClient *http.Client
	config     Config
	log        *logger.Logger
	clock      resilience.Clock
	cb         *resilience.CircuitBreaker
	rl         *resilience.RateLimiter
	bh         *resilience.Bulkhead
}

var (
	_ Transport                   = (*Adapter)(nil)
	_ observability.HealthChecker = (*Adapter)(nil)
)

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for request and response traces.
func WithLogger(l *logger.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.log = l.WithComponent("httpclient")
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client. TLS and HTTP/2 settings
// from Config are not applied to a replaced client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		if c != nil {
			a.httpClient = c
		}
	}
}

// WithClock sets the clock used by retry backoff and the resilience primitives.
func WithClock(c resilience.Clock) Option {
	return func(a *Adapter) {
		if c != nil {
			a.clock = c
		}
	}
}

// New creates a new HTTP adapter with the given configuration.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}

	a := &Adapter{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		config: cfg,
		log:    logger.Nop(),
		clock:  resilience.RealClock{},
	}
	for _, opt := range opts {
		opt(a)
	}

	if cfg.Retry != nil {
		retry := *cfg.Retry
		if retry.RetryIf == nil {
			retry.RetryIf = IsRetryable
		}
		retry.Clock = a.clock
		a.config.Retry = &retry
	}
	if cfg.CircuitBreaker != nil {
		cbCfg := *cfg.CircuitBreaker
		if cbCfg.IsFailure == nil {
			cbCfg.IsFailure = isBreakerFailure
		}
		cbCfg.Clock = a.clock
		a.cb = resilience.NewCircuitBreaker(cbCfg)
	}
	if cfg.RateLimiter != nil {
		rlCfg := *cfg.RateLimiter
		rlCfg.Clock = a.clock
		a.rl = resilience.NewRateLimiter(rlCfg)
	}
	if cfg.Bulkhead != nil {
		bhCfg := *cfg.Bulkhead
		bhCfg.Clock = a.clock
		a.bh = resilience.NewBulkhead(bhCfg)
	}

	return a, nil
}

func newTransport(cfg Config) (*http.Transport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.TLS != nil {
		tlsCfg, err := cfg.TLS.Build()
		if err != nil {
			return nil, err
		}
		if tlsCfg != nil {
			transport.TLSClientConfig = tlsCfg
		}
	}

	if cfg.HTTP2.Enabled {
		h2, err := http2.ConfigureTransports(transport)
		if err != nil {
			return nil, fmt.Errorf("httpclient: configure http2: %w", err)
		}
		h2.ReadIdleTimeout = cfg.HTTP2.ReadIdleTimeout
		h2.PingTimeout = cfg.HTTP2.PingTimeout
	}

	return transport, nil
}

// Execute sends the request and returns the response. Non-2xx responses are
// returned together with an *Error carrying the status code and body.
func (a *Adapter) Execute(ctx context.Context, req Request) (*Response, error) {
	if a.config.Retry == nil {
		return a.doOnce(ctx, req)
	}

	var last *Response
	_, err := resilience.Retry(ctx, *a.config.Retry, func() (*Response, error) {
		resp, err := a.doOnce(ctx, req)
		last = resp
		return resp, err
	})
	if err != nil {
		return last, classifyError(ctx, err)
	}
	return last, nil
}

// doOnce runs a single attempt through rate limiter, bulkhead and circuit breaker.
func (a *Adapter) doOnce(ctx context.Context, req Request) (*Response, error) {
	if a.rl != nil {
		if err := a.rl.Wait(ctx); err != nil {
			return nil, classifyError(ctx, err)
		}
	}

	var resp *Response
	send := func() error {
		var err error
		resp, err = a.executeRequest(ctx, req)
		return err
	}
	guarded := send
	if a.cb != nil {
		guarded = func() error { return a.cb.Execute(send) }
	}

	var err error
	if a.bh != nil {
		err = a.bh.Execute(ctx, guarded)
	} else {
		err = guarded()
	}
	if err != nil {
		return resp, classifyError(ctx, err)
	}
	return resp, nil
}

// executeRequest builds and sends the HTTP request.
func (a *Adapter) executeRequest(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := a.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	reqID := httpReq.Header.Get(HeaderRequestID)
	log := a.log.WithContext(logger.ContextWithRequestID(ctx, reqID))
	log.Debug("http request", logger.Fields(
		logger.FieldMethod, httpReq.Method,
		logger.FieldURL, httpReq.URL.Redacted(),
	))

	start := a.clock.Now()
	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		terr := classifyError(ctx, err)
		log.Debug("http request failed", logger.Fields(
			logger.FieldError, terr.Error(),
			logger.FieldDuration, a.clock.Now().Sub(start).Milliseconds(),
		))
		return nil, terr
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyError(ctx, fmt.Errorf("read response body: %w", err))
	}

	log.Debug("http response", logger.Fields(
		logger.FieldStatus, resp.StatusCode,
		logger.FieldDuration, a.clock.Now().Sub(start).Milliseconds(),
	))

	result := &Response{
		Request:    httpReq,
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}
	if classErr := ClassifyStatusCode(resp.StatusCode, body); classErr != nil {
		return result, classErr
	}
	return result, nil
}

// buildRequest constructs an *http.Request from the adapter config and request.
func (a *Adapter) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	if req.URL == nil || !req.URL.IsAbs() {
		return nil, NewInvalidRequestError(fmt.Errorf("request URL must be absolute, got %v", req.URL))
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	u := *req.URL
	var body io.Reader
	if ParamsInQuery(method) {
		if len(req.Params) > 0 {
			q := u.Query()
			for k, vs := range EncodeQuery(req.Params) {
				for _, v := range vs {
					q.Add(k, v)
				}
			}
			u.RawQuery = q.Encode()
		}
	} else {
		data, err := EncodeBody(req.Params)
		if err != nil {
			return nil, NewInvalidRequestError(fmt.Errorf("encode body: %w", err))
		}
		if data != nil {
			body = bytes.NewReader(data)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, NewInvalidRequestError(fmt.Errorf("create request: %w", err))
	}

	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", a.config.UserAgent)
	}
	if httpReq.Header.Get(HeaderRequestID) == "" {
		httpReq.Header.Set(HeaderRequestID, uuid.NewString())
	}
	req.Auth.apply(httpReq)

	return httpReq, nil
}

// CircuitState returns the circuit breaker state, or StateClosed when no breaker is configured.
func (a *Adapter) CircuitState() resilience.State {
	if a.cb == nil {
		return resilience.StateClosed
	}
	return a.cb.State()
}

// CheckHealth reports the transport health from its circuit breaker state.
func (a *Adapter) CheckHealth(_ context.Context) observability.Health {
	h := observability.Health{Name: "httpclient", Status: observability.HealthStatusUp}
	state := a.CircuitState()
	switch state {
	case resilience.StateOpen:
		h.Status = observability.HealthStatusDown
		h.Message = "circuit breaker is open"
	case resilience.StateHalfOpen:
		h.Status = observability.HealthStatusDegraded
		h.Message = "circuit breaker is half-open"
	}
	if a.cb != nil {
		h.Details = map[string]string{"circuit": state.String()}
	}
	return h
}

// Unwrap returns the underlying *http.Client for advanced use cases.
func (a *Adapter) Unwrap() *http.Client {
	return a.httpClient
}

// Close releases idle connections.
func (a *Adapter) Close(_ context.Context) error {
	a.httpClient.CloseIdleConnections()
	return nil
}
