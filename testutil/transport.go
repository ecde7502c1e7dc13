package testutil

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/emmanuelhcpk/wolmo-networking/httpclient"
)

// Step is one scripted transport outcome.
type Step struct {
	Response *httpclient.Response
	Err      error
}

// Respond scripts a response with the given status and body. Non-2xx statuses
// also return the *httpclient.Error a real transport would produce.
func Respond(status int, body string) Step {
	resp := &httpclient.Response{
		StatusCode: status,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
		Body:       []byte(body),
	}
	if classErr := httpclient.ClassifyStatusCode(status, resp.Body); classErr != nil {
		return Step{Response: resp, Err: classErr}
	}
	return Step{Response: resp}
}

// Fail scripts a transport failure with no response.
func Fail(err error) Step {
	return Step{Err: err}
}

// Offline scripts the failure of a device without connectivity.
func Offline() Step {
	return Fail(httpclient.NewOfflineError(errors.New("dial tcp: connect: network is unreachable")))
}

// Transport is a scripted httpclient.Transport that records every request.
// Steps are consumed in order; the last step repeats once the script runs out.
type Transport struct {
	mu    sync.Mutex
	steps []Step
	next  int
	calls []httpclient.Request
}

var _ httpclient.Transport = (*Transport)(nil)

// NewTransport creates a Transport playing steps in order.
func NewTransport(steps ...Step) *Transport {
	return &Transport{steps: steps}
}

// Execute records req and returns the next scripted step.
func (t *Transport) Execute(ctx context.Context, req httpclient.Request) (*httpclient.Response, error) {
	t.mu.Lock()
	t.calls = append(t.calls, req)
	var step Step
	switch {
	case len(t.steps) == 0:
		step = Respond(http.StatusOK, "")
	case t.next < len(t.steps):
		step = t.steps[t.next]
		t.next++
	default:
		step = t.steps[len(t.steps)-1]
	}
	t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, httpclient.NewCanceledError(err)
	}
	return step.Response, step.Err
}

// Calls returns a copy of the recorded requests.
func (t *Transport) Calls() []httpclient.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]httpclient.Request(nil), t.calls...)
}

// CallCount returns the number of recorded requests.
func (t *Transport) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}

// LastCall returns the most recent request. ok is false when none was made.
func (t *Transport) LastCall() (req httpclient.Request, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.calls) == 0 {
		return httpclient.Request{}, false
	}
	return t.calls[len(t.calls)-1], true
}
