package repository_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/emmanuelhcpk/wolmo-networking/errors"
	"github.com/emmanuelhcpk/wolmo-networking/httpclient"
	"github.com/emmanuelhcpk/wolmo-networking/repository"
	"github.com/emmanuelhcpk/wolmo-networking/session"
	"github.com/emmanuelhcpk/wolmo-networking/testutil"
)

type order struct {
	ID     int    `json:"id" validate:"required"`
	Status string `json:"status" validate:"oneof=pending shipped"`
}

func newAdapter(t *testing.T) *httpclient.Adapter {
	t.Helper()
	a, err := httpclient.New(httpclient.Config{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestIntegration_PerformAgainstServer(t *testing.T) {
	srv := testutil.NewAPIServer(t,
		testutil.Route{Method: http.MethodGet, Path: "/api/v1/orders/:id", Replies: []testutil.Reply{
			{Status: http.StatusOK, Body: `{"id":42,"status":"shipped"}`},
		}},
		testutil.Route{Method: http.MethodPost, Path: "/api/v1/orders", Replies: []testutil.Reply{
			{Status: http.StatusBadRequest, Body: `{}`},
		}},
	)
	store := session.NewStore(session.WithToken("opaque-token"))
	repo := repository.New(srv.Endpoint("/api/v1"), newAdapter(t), store)
	ctx := context.Background()

	got, err := repository.Perform(ctx, repo, http.MethodGet, "orders/42", map[string]any{"fields": []string{"id", "status"}},
		repository.Validated(repository.Into[order]()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 42 || got.Status != "shipped" {
		t.Errorf("unexpected order %+v", got)
	}

	_, err = repository.Perform(ctx, repo, http.MethodPost, "orders", map[string]any{"sku": "A1", "qty": 2}, repository.Ignore())
	if !errors.IsRequest(err) || errors.StatusCode(err) != 400 {
		t.Fatalf("expected request error 400, got %v", err)
	}

	reqs := srv.Requests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
	if reqs[0].Headers.Get("Authorization") != "opaque-token" {
		t.Errorf("expected raw token header, got %q", reqs[0].Headers.Get("Authorization"))
	}
	if fields := reqs[0].Query["fields"]; len(fields) != 2 {
		t.Errorf("expected repeated query key, got %v", reqs[0].Query)
	}
	var body map[string]any
	if err := json.Unmarshal(reqs[1].Body, &body); err != nil || body["sku"] != "A1" {
		t.Errorf("expected JSON body, got %s", reqs[1].Body)
	}
}

func TestIntegration_UnauthorizedExpiresStore(t *testing.T) {
	srv := testutil.NewAPIServer(t, testutil.Route{Method: http.MethodGet, Path: "/me", Replies: []testutil.Reply{
		{Status: http.StatusUnauthorized, Body: `{"error":"token expired"}`},
	}})
	store := session.NewStore(session.WithToken("opaque-token"))
	expired := 0
	store.OnExpire(func() { expired++ })
	repo := repository.New(srv.Endpoint(""), newAdapter(t), store)

	_, err := repository.Perform(context.Background(), repo, http.MethodGet, "me", nil, repository.Ignore())
	if !errors.IsUnauthenticated(err) {
		t.Fatalf("expected unauthenticated session error, got %v", err)
	}
	if store.IsAuthenticated() || expired != 1 {
		t.Errorf("expected the store to expire once, got authenticated=%v expired=%d", store.IsAuthenticated(), expired)
	}
}

func TestIntegration_Polling(t *testing.T) {
	srv := testutil.NewAPIServer(t, testutil.Route{Method: http.MethodGet, Path: "/exports/:id", Replies: []testutil.Reply{
		{Status: http.StatusAccepted, Body: `{"state":"running"}`},
		{Status: http.StatusAccepted, Body: `{"state":"running"}`},
		{Status: http.StatusOK, Body: `{"data":{"url":"https://files.example.com/e/9"}}`},
	}})
	clock := testutil.NewAutoClock(time.Time{})
	repo := repository.New(srv.Endpoint(""), newAdapter(t), session.NewStore(session.WithToken("t")), repository.WithClock(clock))

	url, err := repository.PerformPolling(context.Background(), repo, http.MethodGet, "exports/9", nil,
		repository.Field("data", repository.Field("url", repository.Into[string]())))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://files.example.com/e/9" {
		t.Errorf("unexpected url %q", url)
	}
	if n := len(srv.Requests()); n != 3 {
		t.Errorf("expected 3 requests, got %d", n)
	}
}
