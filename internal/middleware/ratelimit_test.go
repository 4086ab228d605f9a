package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/trailpeak/api/internal/service"
)

// ============================================================================
// RateLimit Tests
// ============================================================================

func TestRateLimit_ScopedToAPIRoutes(t *testing.T) {
	t.Parallel()

	// Capacity 2: rate 1 + burst 1
	limiter := NewRateLimiter(RateLimitConfig{Rate: 1, Burst: 1, Window: time.Hour})
	defer limiter.Stop()

	var gotErr error
	var hits int
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ })
	handler := RateLimit(limiter, collectErr(&gotErr))(next)

	// Page and asset routes pass through unlimited
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/tour/forest-hiker", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Header().Get("X-RateLimit-Limit") != "" {
			t.Error("page route should not carry rate limit headers")
		}
	}
	if gotErr != nil || hits != 10 {
		t.Fatalf("page routes limited: err = %v, hits = %d", gotErr, hits)
	}

	// API routes are limited per client address
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	if !errors.Is(gotErr, service.ErrTooManyRequests) {
		t.Errorf("error = %v, want ErrTooManyRequests", gotErr)
	}
	if hits != 12 {
		t.Errorf("hits = %d, want 12", hits)
	}

	// A different client address gets its own bucket
	gotErr = nil
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if gotErr != nil {
		t.Errorf("fresh client limited: %v", gotErr)
	}
}
