package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) After(d time.Duration) <-chan time.Time {
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: gojwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestStore_LoginLogout(t *testing.T) {
	s := NewStore()
	if s.IsAuthenticated() {
		t.Fatal("new store should be logged out")
	}
	if s.Token() != "" {
		t.Error("Token should be empty when logged out")
	}

	s.Login("opaque")
	if !s.IsAuthenticated() || s.Token() != "opaque" {
		t.Errorf("expected authenticated with opaque token, got %q", s.Token())
	}
	if _, ok := s.ExpiresAt(); ok {
		t.Error("opaque tokens have no expiry")
	}

	s.Logout()
	if s.IsAuthenticated() {
		t.Error("expected logged out")
	}
}

func TestStore_WithToken(t *testing.T) {
	s := NewStore(WithToken("abc"))
	if !s.IsAuthenticated() {
		t.Fatal("expected authenticated store")
	}
}

func TestStore_Expire_NotifiesOnce(t *testing.T) {
	s := NewStore(WithToken("abc"))
	var calls int32
	s.OnExpire(func() { atomic.AddInt32(&calls, 1) })
	s.OnExpire(nil)

	s.Expire()
	s.Expire()

	if s.IsAuthenticated() {
		t.Error("expected expired session")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 notification, got %d", got)
	}
}

func TestStore_Logout_DoesNotNotify(t *testing.T) {
	s := NewStore(WithToken("abc"))
	called := false
	s.OnExpire(func() { called = true })
	s.Logout()
	s.Expire()
	if called {
		t.Error("Logout should not notify expiry listeners")
	}
}

func TestStore_Expire_Concurrent(t *testing.T) {
	s := NewStore(WithToken("abc"))
	var calls int32
	s.OnExpire(func() { atomic.AddInt32(&calls, 1) })

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Expire()
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected exactly 1 notification, got %d", got)
	}
}

func TestStore_JWTExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fixedClock{now: now}
	exp := now.Add(time.Minute)

	s := NewStore(WithClock(clock))
	s.Login(signedToken(t, exp))

	if !s.IsAuthenticated() {
		t.Fatal("expected token to be valid before exp")
	}
	got, ok := s.ExpiresAt()
	if !ok || !got.Equal(exp) {
		t.Errorf("expected expiry %v, got %v (ok=%v)", exp, got, ok)
	}

	clock.now = exp
	if s.IsAuthenticated() {
		t.Error("expected token to be invalid at exp")
	}
	if s.Token() != "" {
		t.Error("expected empty token once expired")
	}
}

func TestStore_MalformedJWTIsOpaque(t *testing.T) {
	s := NewStore()
	s.Login("not.a.jwt")
	if !s.IsAuthenticated() {
		t.Error("unparseable tokens should be treated as opaque")
	}
	if _, ok := s.ExpiresAt(); ok {
		t.Error("unparseable tokens have no expiry")
	}
}
