package client_test

import (
	"context"
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/emmanuelhcpk/wolmo-networking/client"
	"github.com/emmanuelhcpk/wolmo-networking/config"
	"github.com/emmanuelhcpk/wolmo-networking/endpoint"
	"github.com/emmanuelhcpk/wolmo-networking/errors"
	"github.com/emmanuelhcpk/wolmo-networking/logger"
	"github.com/emmanuelhcpk/wolmo-networking/observability"
	"github.com/emmanuelhcpk/wolmo-networking/repository"
	"github.com/emmanuelhcpk/wolmo-networking/security"
	"github.com/emmanuelhcpk/wolmo-networking/security/tlstest"
	"github.com/emmanuelhcpk/wolmo-networking/session"
	"github.com/emmanuelhcpk/wolmo-networking/testutil"
)

type order struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
}

func newClient(t *testing.T, cfg config.Config, sess session.Manager, opts ...client.Option) *client.Client {
	t.Helper()
	opts = append([]client.Option{client.WithLogger(logger.Nop())}, opts...)
	c, err := client.New(context.Background(), cfg, sess, opts...)
	if err != nil {
		t.Fatalf("client.New failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.Config
		errMsg string
	}{
		{"missing host", config.Config{}, "config.endpoint"},
		{"pinning without pins", config.Config{Endpoint: endpoint.Config{Host: "api.example.com", Secure: true, UsePinning: true}}, "use_pinning"},
		{"bad environment", config.Config{Environment: "qa", Endpoint: endpoint.Config{Host: "api.example.com"}}, "config.environment"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.New(context.Background(), tc.cfg, session.NewStore(), client.WithLogger(logger.Nop()))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "config validation") || !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
			}
		})
	}
}

func TestNew_PerformAgainstServer(t *testing.T) {
	srv := testutil.NewAPIServer(t, testutil.Route{Method: http.MethodGet, Path: "/v2/orders/:id", Replies: []testutil.Reply{
		{Status: http.StatusOK, Body: `{"id":7,"status":"packed"}`},
	}})
	store := session.NewStore(session.WithToken("opaque-token"))
	c := newClient(t, config.Config{Endpoint: srv.Endpoint("/v2")}, store,
		client.WithRepositoryOptions(repository.WithHeaders(map[string]string{"X-App": "orders"})))

	got, err := repository.Perform(context.Background(), c.Repository, http.MethodGet, "orders/7", nil, repository.Into[order]())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 7 || got.Status != "packed" {
		t.Errorf("unexpected order %+v", got)
	}

	reqs := srv.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	h := reqs[0].Headers
	if h.Get("Authorization") != "opaque-token" {
		t.Errorf("expected raw token header, got %q", h.Get("Authorization"))
	}
	if h.Get("X-App") != "orders" {
		t.Errorf("expected repository header, got %q", h.Get("X-App"))
	}
	if !strings.HasPrefix(h.Get("User-Agent"), "wolmo-networking/") {
		t.Errorf("expected default user agent, got %q", h.Get("User-Agent"))
	}
}

func TestNew_PollingUsesConfiguredInterval(t *testing.T) {
	srv := testutil.NewAPIServer(t, testutil.Route{Method: http.MethodGet, Path: "/jobs/:id", Replies: []testutil.Reply{
		{Status: http.StatusAccepted, Body: `{}`},
		{Status: http.StatusOK, Body: `{"id":3,"status":"done"}`},
	}})
	clock := testutil.NewAutoClock(time.Time{})
	cfg := config.Config{Endpoint: srv.Endpoint("")}
	cfg.Polling.Interval = 250 * time.Millisecond
	c := newClient(t, cfg, session.NewStore(session.WithToken("t")), client.WithClock(clock))

	got, err := repository.PerformPolling(context.Background(), c.Repository, http.MethodGet, "jobs/3", nil, repository.Into[order]())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != "done" {
		t.Errorf("unexpected result %+v", got)
	}
	sleeps := clock.Sleeps()
	if len(sleeps) != 1 || sleeps[0] != 250*time.Millisecond {
		t.Errorf("expected one 250ms delay, got %v", sleeps)
	}
}

func TestNew_UnauthorizedExpiresStore(t *testing.T) {
	srv := testutil.NewAPIServer(t, testutil.Route{Method: http.MethodGet, Path: "/me", Replies: []testutil.Reply{
		{Status: http.StatusUnauthorized, Body: `{}`},
	}})
	store := session.NewStore(session.WithToken("stale"))
	c := newClient(t, config.Config{Endpoint: srv.Endpoint("")}, store)

	_, err := repository.Perform(context.Background(), c.Repository, http.MethodGet, "me", nil, repository.Ignore())
	if !errors.IsUnauthenticated(err) {
		t.Fatalf("expected unauthenticated session error, got %v", err)
	}
	if store.IsAuthenticated() {
		t.Error("expected store to be expired")
	}
}

func pinnedConfig(t *testing.T, certs *tlstest.TLSCerts, url string, pin string) config.Config {
	t.Helper()
	hostPort := strings.TrimPrefix(url, "https://")
	i := strings.LastIndex(hostPort, ":")
	port, err := strconv.Atoi(hostPort[i+1:])
	if err != nil {
		t.Fatalf("bad server url %q: %v", url, err)
	}
	cfg := config.Config{Endpoint: endpoint.Config{
		Secure:     true,
		Host:       hostPort[:i],
		Port:       port,
		UsePinning: true,
		Pins:       []string{pin},
	}}
	cfg.HTTP.TLS = &security.TLSConfig{CAFile: certs.CAFile}
	return cfg
}

func TestNew_CertificatePinning(t *testing.T) {
	certs := tlstest.GenerateTLSCerts(t)
	srv := tlstest.NewServer(t, certs, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1,"status":"ok"}`))
	}))

	t.Run("matching pin", func(t *testing.T) {
		cfg := pinnedConfig(t, certs, srv.URL, security.SPKIFingerprint(certs.ServerCert))
		c := newClient(t, cfg, session.NewStore())

		got, err := repository.PerformAuthentication(context.Background(), c.Repository, http.MethodGet, "status", nil, repository.Into[order]())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != "ok" {
			t.Errorf("unexpected result %+v", got)
		}
	})

	t.Run("mismatched pin", func(t *testing.T) {
		other := tlstest.GenerateTLSCerts(t)
		cfg := pinnedConfig(t, certs, srv.URL, security.SPKIFingerprint(other.ServerCert))
		c := newClient(t, cfg, session.NewStore())

		_, err := repository.PerformAuthentication(context.Background(), c.Repository, http.MethodGet, "status", nil, repository.Ignore())
		if !errors.IsRequest(err) {
			t.Fatalf("expected request error, got %v", err)
		}
		if !stderrors.Is(err, security.ErrPinMismatch) {
			t.Errorf("expected pin mismatch in chain, got %v", err)
		}
	})
}

func TestNew_HTTPClientWithPinningRejected(t *testing.T) {
	certs := tlstest.GenerateTLSCerts(t)
	cfg := pinnedConfig(t, certs, "https://127.0.0.1:8443", security.SPKIFingerprint(certs.ServerCert))

	_, err := client.New(context.Background(), cfg, session.NewStore(),
		client.WithLogger(logger.Nop()), client.WithHTTPClient(&http.Client{}))
	if !stderrors.Is(err, client.ErrPinningWithHTTPClient) {
		t.Fatalf("expected ErrPinningWithHTTPClient, got %v", err)
	}
}

func TestNew_HTTPClientWithoutPinning(t *testing.T) {
	srv := testutil.NewAPIServer(t, testutil.Route{Method: http.MethodGet, Path: "/ping", Replies: []testutil.Reply{
		{Status: http.StatusOK, Body: `{}`},
	}})
	c := newClient(t, config.Config{Endpoint: srv.Endpoint("")}, session.NewStore(),
		client.WithHTTPClient(srv.Client()))

	if _, err := c.Repository.PerformAuthenticationRaw(context.Background(), http.MethodGet, "ping", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(srv.Requests()) != 1 {
		t.Errorf("expected 1 request, got %d", len(srv.Requests()))
	}
}

func TestClient_HealthAndClose(t *testing.T) {
	srv := testutil.NewAPIServer(t)
	c, err := client.New(context.Background(), config.Config{Endpoint: srv.Endpoint("")}, session.NewStore(),
		client.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("client.New failed: %v", err)
	}

	h := c.Health(context.Background())
	if h.Service != "wolmo-networking" || h.Status != observability.HealthStatusUp {
		t.Errorf("expected healthy client, got %+v", h)
	}
	if len(h.Components) != 1 || h.Components[0].Name != "httpclient" {
		t.Errorf("expected transport component, got %+v", h.Components)
	}

	if err := c.Close(context.Background()); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
	if err := c.Close(context.Background()); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
}
