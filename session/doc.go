// Package session holds the authentication state the request pipeline gates on.
//
// The pipeline only depends on the Manager interface. Store is the default
// goroutine-safe implementation: it keeps the session token in memory, reads
// the exp claim of JWT tokens to detect expiry, and notifies listeners when an
// authenticated session is expired.
//
// Usage:
//
//	store := session.NewStore()
//	store.OnExpire(func() { log.Info("session expired") })
//	store.Login(token)
//
//	repo := repository.New(cfg, transport, store)
package session
