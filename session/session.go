package session

import (
	"sync"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/emmanuelhcpk/wolmo-networking/resilience"
)

// Manager is the session port consumed by the request pipeline.
type Manager interface {
	// IsAuthenticated reports whether a usable session exists.
	IsAuthenticated() bool
	// Token returns the session token. It returns "" when not authenticated;
	// callers check IsAuthenticated first.
	Token() string
	// Expire invalidates the current session.
	Expire()
}

// Store is an in-memory Manager.
type Store struct {
	clock resilience.Clock

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	listeners []func()
}

var _ Manager = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to evaluate token expiry.
func WithClock(c resilience.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithToken starts the store logged in with token.
func WithToken(token string) Option {
	return func(s *Store) {
		s.token = token
		s.expiresAt = expiryOf(token)
	}
}

// NewStore creates a Store. Without WithToken it starts logged out.
func NewStore(opts ...Option) *Store {
	s := &Store{clock: resilience.RealClock{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login stores token as the current session. JWT tokens carrying an exp claim
// stop being authenticated once that time has passed; opaque tokens never do.
func (s *Store) Login(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expiresAt = expiryOf(token)
}

// Logout clears the session without notifying expiry listeners.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiresAt = time.Time{}
}

// Expire clears the session and notifies listeners. Calling it on a store that
// is already logged out does nothing.
func (s *Store) Expire() {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return
	}
	s.token = ""
	s.expiresAt = time.Time{}
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// OnExpire registers fn to run after every Expire that ends a session.
func (s *Store) OnExpire(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// IsAuthenticated reports whether a token is stored and not past its expiry.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.valid()
}

// Token returns the stored token, or "" when not authenticated.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.valid() {
		return ""
	}
	return s.token
}

// ExpiresAt returns the exp claim of the current token. ok is false for
// opaque tokens and logged-out stores.
func (s *Store) ExpiresAt() (t time.Time, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || s.expiresAt.IsZero() {
		return time.Time{}, false
	}
	return s.expiresAt, true
}

func (s *Store) valid() bool {
	if s.token == "" {
		return false
	}
	return s.expiresAt.IsZero() || s.clock.Now().Before(s.expiresAt)
}

// expiryOf returns the exp claim of a JWT token, or the zero time. The
// signature is not verified: the server is the authority on validity.
func expiryOf(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	claims := gojwt.RegisteredClaims{}
	if _, _, err := gojwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
