package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/emmanuelhcpk/wolmo-networking/resilience"
)

func TestErrorCode_String(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrCodeTimeout, "timeout"},
		{ErrCodeConnection, "connection"},
		{ErrCodeOffline, "offline"},
		{ErrCodeCanceled, "canceled"},
		{ErrCodeRejected, "rejected"},
		{ErrCodeInvalidRequest, "invalid_request"},
		{ErrCodeAuth, "auth"},
		{ErrCodeNotFound, "not_found"},
		{ErrCodeRateLimit, "rate_limit"},
		{ErrCodeValidation, "validation"},
		{ErrCodeServer, "server"},
		{ErrorCode(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("ErrorCode(%d).String() = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestError_Error(t *testing.T) {
	e := &Error{StatusCode: 404, Code: ErrCodeNotFound, Description: "Not Found", Reason: "HTTP 404"}
	want := "httpclient: not_found (HTTP 404): Not Found (HTTP 404)"
	if got := e.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	e2 := &Error{Code: ErrCodeConnection, Description: "connection refused"}
	want2 := "httpclient: connection: connection refused"
	if got := e2.Error(); got != want2 {
		t.Errorf("got %q, want %q", got, want2)
	}
}

func TestError_StatusAndRetryable(t *testing.T) {
	e := ClassifyStatusCode(503, []byte("down"))
	if e.Status() != 503 || !e.IsRetryable() {
		t.Errorf("expected status 503 retryable, got %d %v", e.Status(), e.IsRetryable())
	}
	if StatusCode(fmt.Errorf("wrapped: %w", e)) != 503 {
		t.Error("StatusCode should unwrap")
	}
	if StatusCode(errors.New("plain")) != 0 {
		t.Error("StatusCode of a plain error should be 0")
	}
}

func TestClassifyStatusCode(t *testing.T) {
	tests := []struct {
		code    int
		wantNil bool
		errCode ErrorCode
		retry   bool
	}{
		{200, true, 0, false},
		{202, true, 0, false},
		{204, true, 0, false},
		{400, false, ErrCodeValidation, false},
		{401, false, ErrCodeAuth, false},
		{403, false, ErrCodeAuth, false},
		{404, false, ErrCodeNotFound, false},
		{422, false, ErrCodeValidation, false},
		{429, false, ErrCodeRateLimit, true},
		{500, false, ErrCodeServer, true},
		{501, false, ErrCodeServer, false},
		{503, false, ErrCodeServer, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("HTTP_%d", tt.code), func(t *testing.T) {
			body := []byte(`{"error":"x"}`)
			err := ClassifyStatusCode(tt.code, body)
			if tt.wantNil {
				if err != nil {
					t.Fatalf("expected nil, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Code != tt.errCode {
				t.Errorf("expected code %s, got %s", tt.errCode, err.Code)
			}
			if err.Retryable != tt.retry {
				t.Errorf("expected retryable=%v, got %v", tt.retry, err.Retryable)
			}
			if string(err.Body) != string(body) {
				t.Errorf("expected body to be kept, got %q", err.Body)
			}
			if err.Description == "" {
				t.Error("expected a description")
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	ctx := context.Background()
	offline := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ENETUNREACH)}
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"offline", offline, IsOffline},
		{"dns temporary", &net.DNSError{Err: "server misbehaving", Name: "api", IsTemporary: true}, IsOffline},
		{"dns not found", &net.DNSError{Err: "no such host", Name: "api", IsNotFound: true}, IsConnection},
		{"refused", &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}, IsConnection},
		{"deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), IsTimeout},
		{"canceled", fmt.Errorf("get: %w", context.Canceled), IsCanceled},
		{"circuit open", resilience.ErrCircuitOpen, IsRejected},
		{"bulkhead full", resilience.ErrBulkheadFull, IsRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(ctx, tt.err)
			if !tt.check(got) {
				t.Errorf("unexpected classification %s for %v", got.Code, tt.err)
			}
			if !errors.Is(got, tt.err) {
				t.Error("expected the original error to be wrapped")
			}
		})
	}
}

func TestClassifyError_OfflineDescription(t *testing.T) {
	err := classifyError(context.Background(), os.NewSyscallError("connect", syscall.ENETDOWN))
	if err.Description != OfflineDescription {
		t.Errorf("expected offline description, got %q", err.Description)
	}
	if !err.Retryable {
		t.Error("offline errors should be retryable")
	}
}

func TestClassifyError_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := classifyError(ctx, errors.New("use of closed connection")); !IsCanceled(got) {
		t.Errorf("expected canceled, got %s", got.Code)
	}
}

func TestClassifyError_KeepsTransportErrors(t *testing.T) {
	orig := ClassifyStatusCode(500, nil)
	if got := classifyError(context.Background(), fmt.Errorf("retry: %w", orig)); got != orig {
		t.Error("expected the existing *Error to be returned")
	}
}

func TestIsBreakerFailure(t *testing.T) {
	if isBreakerFailure(ClassifyStatusCode(400, nil)) {
		t.Error("client errors should not trip the breaker")
	}
	if !isBreakerFailure(ClassifyStatusCode(502, nil)) {
		t.Error("server errors should trip the breaker")
	}
	if !isBreakerFailure(NewConnectionError(errors.New("reset"))) {
		t.Error("connection errors should trip the breaker")
	}
	if isBreakerFailure(nil) {
		t.Error("nil should not count")
	}
}
