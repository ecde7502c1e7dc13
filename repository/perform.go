package repository

import (
	"context"
	"maps"
	"net/http"

	"github.com/emmanuelhcpk/wolmo-networking/errors"
	"github.com/emmanuelhcpk/wolmo-networking/httpclient"
	"github.com/emmanuelhcpk/wolmo-networking/logger"
	"github.com/emmanuelhcpk/wolmo-networking/observability"
	"github.com/emmanuelhcpk/wolmo-networking/resilience"
)

// call is one logical request as issued by a mode.
type call struct {
	mode          string
	authenticated bool
	method        string
	path          string
	params        map[string]any
	opts          callOptions
}

// Perform sends an authenticated request and decodes the response.
// Without an authenticated session it fails with an unauthenticated session
// error before anything is sent.
func Perform[T any](ctx context.Context, r *Repository, method, path string, params map[string]any, decoder Decoder[T], opts ...CallOption) (T, error) {
	c := r.newCall(ModePerform, true, method, path, params, opts)
	return performDecoded(ctx, r, c, decoder)
}

// PerformAuthentication sends a request that needs no session, such as a
// login, and decodes the response. No Authorization header is sent.
func PerformAuthentication[T any](ctx context.Context, r *Repository, method, path string, params map[string]any, decoder Decoder[T], opts ...CallOption) (T, error) {
	c := r.newCall(ModeAuthentication, false, method, path, params, opts)
	return performDecoded(ctx, r, c, decoder)
}

// PerformPolling sends an authenticated request and re-issues it after the
// poll interval for as long as the server answers 202 Accepted. Only the
// terminal response is decoded.
func PerformPolling[T any](ctx context.Context, r *Repository, method, path string, params map[string]any, decoder Decoder[T], opts ...CallOption) (T, error) {
	var zero T
	c := r.newCall(ModePolling, true, method, path, params, opts)

	ctx, tc := observability.StartCall(ctx, r.tracer, r.metrics, c.mode, c.method, c.path)
	resp, err := r.poll(ctx, c, tc)
	if err != nil {
		tc.End(ctx, outcomeOf(err), err)
		return zero, err
	}

	out, err := Decode(ctx, resp.Body, decoder, r.decodeErrorHandler())
	tc.End(ctx, outcomeOf(err), err)
	return out, err
}

// PerformRaw sends an authenticated request and returns the response undecoded.
func (r *Repository) PerformRaw(ctx context.Context, method, path string, params map[string]any, opts ...CallOption) (*httpclient.Response, error) {
	return r.performRaw(ctx, r.newCall(ModeRaw, true, method, path, params, opts))
}

// PerformAuthenticationRaw sends a request that needs no session and returns
// the response undecoded.
func (r *Repository) PerformAuthenticationRaw(ctx context.Context, method, path string, params map[string]any, opts ...CallOption) (*httpclient.Response, error) {
	return r.performRaw(ctx, r.newCall(ModeAuthenticationRaw, false, method, path, params, opts))
}

func (r *Repository) newCall(mode string, authenticated bool, method, path string, params map[string]any, opts []CallOption) *call {
	if method == "" {
		method = http.MethodGet
	}
	return &call{
		mode:          mode,
		authenticated: authenticated,
		method:        method,
		path:          path,
		params:        params,
		opts:          newCallOptions(opts),
	}
}

func performDecoded[T any](ctx context.Context, r *Repository, c *call, decoder Decoder[T]) (T, error) {
	var zero T
	ctx, tc := observability.StartCall(ctx, r.tracer, r.metrics, c.mode, c.method, c.path)

	tc.Attempt(1)
	resp, err := r.send(ctx, c, tc)
	if err != nil {
		tc.End(ctx, outcomeOf(err), err)
		return zero, err
	}

	out, err := Decode(ctx, resp.Body, decoder, r.decodeErrorHandler())
	tc.End(ctx, outcomeOf(err), err)
	return out, err
}

func (r *Repository) performRaw(ctx context.Context, c *call) (*httpclient.Response, error) {
	ctx, tc := observability.StartCall(ctx, r.tracer, r.metrics, c.mode, c.method, c.path)
	tc.Attempt(1)
	resp, err := r.send(ctx, c, tc)
	tc.End(ctx, outcomeOf(err), err)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// poll issues c until the response is not 202 Accepted.
func (r *Repository) poll(ctx context.Context, c *call, tc *observability.Call) (*httpclient.Response, error) {
	cfg := r.polling
	cfg.OnAttempt = func(attempt int) {
		tc.Attempt(attempt)
		r.metrics.RecordPollAttempt(ctx)
	}

	resp, attempts, err := resilience.Poll(ctx, cfg, func(ctx context.Context, attempt int) (*httpclient.Response, bool, error) {
		resp, err := r.send(ctx, c, tc)
		if err != nil {
			return nil, true, err
		}
		if resp.StatusCode == http.StatusAccepted {
			r.log.WithContext(ctx).Debug("request still processing", logger.Fields(
				logger.FieldMode, c.mode,
				logger.FieldPath, c.path,
				logger.FieldAttempt, attempt,
			))
			return nil, false, nil
		}
		return resp, true, nil
	})
	if err != nil {
		if _, ok := errors.AsError(err); !ok {
			err = errors.Request(err).WithDetail("attempts", attempts)
		}
		return nil, err
	}
	return resp, nil
}

// send runs one attempt of c: session gate, URL resolution, transport call
// and failure classification.
func (r *Repository) send(ctx context.Context, c *call, tc *observability.Call) (*httpclient.Response, error) {
	if c.authenticated && !r.session.IsAuthenticated() {
		return nil, errors.UnauthenticatedSession()
	}

	u, err := r.endpoint.Resolve(c.path, nil)
	if err != nil {
		return nil, errors.InvalidURL(err).WithDetail("path", c.path)
	}

	req := httpclient.Request{
		Method: c.method,
		URL:    u,
		Params: c.params,
	}
	if len(r.headers) > 0 || len(c.opts.headers) > 0 {
		req.Headers = make(map[string]string, len(r.headers)+len(c.opts.headers))
		maps.Copy(req.Headers, r.headers)
		maps.Copy(req.Headers, c.opts.headers)
	}
	if c.authenticated {
		req.Auth = httpclient.TokenAuth(r.session.Token())
	}

	log := r.log.WithContext(ctx)
	log.Debug("dispatching request", logger.Fields(
		logger.FieldMode, c.mode,
		logger.FieldMethod, c.method,
		logger.FieldURL, u.Redacted(),
	))

	resp, err := r.transport.Execute(ctx, req)
	if resp != nil {
		tc.SetStatusCode(resp.StatusCode)
	}
	if err != nil {
		return nil, r.classify(ctx, c, err)
	}
	if resp == nil {
		return nil, errors.Request(errNoResponse)
	}
	return resp, nil
}

func outcomeOf(err error) string {
	if err == nil {
		return observability.OutcomeSuccess
	}
	if kind, ok := errors.KindOf(err); ok {
		return string(kind)
	}
	return "UNKNOWN"
}
