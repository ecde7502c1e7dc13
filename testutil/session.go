package testutil

import (
	"sync"

	"github.com/emmanuelhcpk/wolmo-networking/session"
)

// Session is a session.Manager fake that counts Expire calls.
type Session struct {
	mu            sync.Mutex
	token         string
	authenticated bool
	expireCalls   int
}

var _ session.Manager = (*Session)(nil)

// NewSession returns a Session logged in with token, or logged out when token is empty.
func NewSession(token string) *Session {
	return &Session{token: token, authenticated: token != ""}
}

// IsAuthenticated reports whether the fake is logged in.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// Token returns the token while logged in.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authenticated {
		return ""
	}
	return s.token
}

// Expire logs the fake out and counts the call.
func (s *Session) Expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireCalls++
	s.authenticated = false
}

// Login logs the fake in with token.
func (s *Session) Login(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.authenticated = true
}

// ExpireCalls returns how many times Expire was called.
func (s *Session) ExpireCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expireCalls
}
