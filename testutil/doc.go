// Package testutil provides fakes for exercising the request pipeline
// without a network.
//
// Scripted transport and session:
//
//	transport := testutil.NewTransport(
//	    testutil.Respond(http.StatusAccepted, ""),
//	    testutil.Respond(http.StatusOK, `{"id":1}`),
//	)
//	sess := testutil.NewSession("token")
//	repo := repository.New(cfg, transport, sess, repository.WithClock(testutil.NewAutoClock(time.Time{})))
//
// Fake API server backed by gin and httptest:
//
//	srv := testutil.NewAPIServer(t,
//	    testutil.Route{Method: http.MethodGet, Path: "/v1/users/:id",
//	        Replies: []testutil.Reply{{Status: http.StatusOK, Body: `{"id":1}`}}},
//	)
//	cfg := srv.Endpoint("/v1")
//
// Deterministic time:
//
//	clock := testutil.NewManualClock(start)
//	clock.BlockUntil(1)
//	clock.Advance(time.Second)
package testutil
