package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"yagpt-bot/internal/models"
)

func TestRateLimiter_AllowWithinWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatalf("expected first two requests to pass")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatalf("expected third request in the window to be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatalf("expected other clients to be counted separately")
	}

	now = now.Add(time.Minute + time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Fatalf("expected a new window to reset the count")
	}
}

func TestRateLimiter_ZeroLimitDisables(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	defer rl.Stop()

	for i := 0; i < 100; i++ {
		if !rl.Allow("x") {
			t.Fatalf("expected limiter to be disabled")
		}
	}
}

func TestRateLimiter_MiddlewareReturns429(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	h := RequestID(rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/hook", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", first.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/hook", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	second := httptest.NewRecorder()
	h.ServeHTTP(second, req)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}

	var body models.ErrorResponse
	if err := json.Unmarshal(second.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body.Error.Code != "RATE_LIMITED" || body.Error.RequestID != "req-42" {
		t.Fatalf("unexpected error body %+v", body.Error)
	}
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatalf("expected a generated request id")
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("expected response header to echo %q, got %q", seen, rec.Header().Get(RequestIDHeader))
	}
}

func TestRateLimiter_MiddlewareKeysByHostNotConnection(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodPost, "/hook", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("203.0.113.7:40001"); code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	if code := send("203.0.113.7:40002"); code != http.StatusTooManyRequests {
		t.Fatalf("a new source port must share the host's window, got %d", code)
	}
	if code := send("[2001:db8::1]:40003"); code != http.StatusOK {
		t.Fatalf("expected a different host to pass, got %d", code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"192.0.2.1", "192.0.2.1"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := clientIP(tc.in); got != tc.want {
			t.Errorf("clientIP(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
