package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smallholder-irrigation/survey-merge/internal/middleware"
)

// call wraps a simple 200-OK inner handler in the provided middleware and
// returns the recorded response.
func call(t *testing.T, mw func(http.Handler) http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	mw(inner).ServeHTTP(rec, req)
	return rec
}

// TestCORSMiddleware_AllowedOrigin verifies that an allow-listed origin is echoed back.
func TestCORSMiddleware_AllowedOrigin(t *testing.T) {
	middleware.AllowOrigins("https://maps.example.org")

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	req.Header.Set("Origin", "https://maps.example.org")
	rec := call(t, middleware.CORSMiddleware, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://maps.example.org" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

// TestCORSMiddleware_UnknownOrigin verifies that other origins get no CORS grant.
func TestCORSMiddleware_UnknownOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := call(t, middleware.CORSMiddleware, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no Access-Control-Allow-Origin, got %q", got)
	}
}

// TestCORSMiddleware_Preflight verifies that OPTIONS short-circuits with 204.
func TestCORSMiddleware_Preflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/runs", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := call(t, middleware.CORSMiddleware, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

// TestRateLimit_BlocksAfterBurst verifies that a client exceeding its budget gets 429.
func TestRateLimit_BlocksAfterBurst(t *testing.T) {
	mw := middleware.RateLimit(2)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/runs", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		if rec := call(t, mw, req); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/runs", nil)
	req.RemoteAddr = "10.0.0.1:4001"
	rec := call(t, mw, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	// Another client has its own budget.
	other := httptest.NewRequest(http.MethodPost, "/runs", nil)
	other.RemoteAddr = "10.0.0.2:4000"
	if rec := call(t, mw, other); rec.Code != http.StatusOK {
		t.Errorf("other client: expected 200, got %d", rec.Code)
	}
}

// TestRateLimit_Disabled verifies that a zero budget passes everything through.
func TestRateLimit_Disabled(t *testing.T) {
	mw := middleware.RateLimit(0)
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/runs", nil)
		if rec := call(t, mw, req); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}
}
