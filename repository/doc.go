// Package repository is the request pipeline between application code and a
// remote HTTP API.
//
// A Repository assembles request URLs from one endpoint.Config, gates calls on
// the session, sends them through an httpclient.Transport, classifies failures
// into the errors taxonomy and decodes successful bodies into typed values.
//
// Go methods cannot take type parameters, so the typed call modes are package
// functions taking the repository first:
//
//	repo := repository.New(cfg, transport, store,
//	    repository.WithLogger(log),
//	    repository.WithDecodeErrorHandler(repository.LogDecodeErrors(log)),
//	)
//
//	user, err := repository.Perform(ctx, repo, http.MethodGet, "users/42", nil,
//	    repository.Into[User]())
//
//	token, err := repository.PerformAuthentication(ctx, repo, http.MethodPost, "login",
//	    map[string]any{"email": email, "password": password},
//	    repository.Field("token", repository.Into[string]()))
//
//	report, err := repository.PerformPolling(ctx, repo, http.MethodGet, "reports/7", nil,
//	    repository.Validated(repository.Into[Report]()))
//
// Modes:
//   - Perform: requires an authenticated session and sends its token.
//   - PerformAuthentication: no session requirement, no Authorization header.
//   - PerformPolling: like Perform, re-issuing the request while the server
//     answers 202 Accepted.
//   - PerformRaw: like Perform, returning the undecoded response.
//
// Every failure is an *errors.Error; inspect it with errors.KindOf or the
// errors.Is* helpers.
package repository
