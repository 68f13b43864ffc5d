package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rodrigocava/clawpulse/internal/config"
)

func TestRedactTokenPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/sync/my-secret-token", "/api/v1/sync/[token]"},
		{"/api/v1/sync/my-secret-token/status", "/api/v1/sync/[token]/status"},
		{"/api/v1/sync", "/api/v1/sync"},
		{"/api/v1/sync/", "/api/v1/sync/"},
		{"/api/v1/cleanup", "/api/v1/cleanup"},
		{"/healthz", "/healthz"},
		{"/", "/"},
	}
	for _, tt := range tests {
		if got := redactTokenPath(tt.path); got != tt.want {
			t.Errorf("redactTokenPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, config.Config{})

	rec := ts.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected generated X-Request-Id header")
	}

	// A caller-supplied id is echoed back unchanged.
	rec = ts.do(t, http.MethodGet, "/healthz", "", map[string]string{"X-Request-Id": "abc-123"})
	if got := rec.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Fatalf("X-Request-Id: got %q, want abc-123", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, config.Config{})
	rec := ts.do(t, http.MethodGet, "/healthz", "", nil)

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "no-referrer",
		"X-Frame-Options":        "DENY",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s: got %q, want %q", header, got, want)
		}
	}
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()

	h := withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("panic response: got %d, want 500", rec.Code)
	}
}
