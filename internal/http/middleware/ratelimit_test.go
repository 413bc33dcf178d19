package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeClock lets tests move time forward deterministically.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestWindowLimiterAllowsUpToMax(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewWindowLimiter(3, time.Minute, clock.now)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if limiter.Allow("1.2.3.4") {
		t.Fatalf("request over the limit should be rejected")
	}
}

func TestWindowLimiterKeysAreIndependent(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewWindowLimiter(1, time.Minute, clock.now)

	if !limiter.Allow("1.2.3.4") {
		t.Fatalf("first key should be allowed")
	}
	if !limiter.Allow("5.6.7.8") {
		t.Fatalf("second key should be allowed")
	}
	if limiter.Allow("1.2.3.4") {
		t.Fatalf("first key should now be limited")
	}
}

func TestWindowLimiterSlidesWithTime(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewWindowLimiter(2, time.Minute, clock.now)

	limiter.Allow("ip")
	clock.advance(30 * time.Second)
	limiter.Allow("ip")
	if limiter.Allow("ip") {
		t.Fatalf("third request within the window should be rejected")
	}

	// 31 more seconds pushes the first request out of the window.
	clock.advance(31 * time.Second)
	if !limiter.Allow("ip") {
		t.Fatalf("request should be allowed after the oldest entry expires")
	}
}

func TestWindowLimiterSweepDropsIdleKeys(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewWindowLimiter(5, time.Minute, clock.now)

	limiter.Allow("old-ip")
	clock.advance(2 * time.Minute)
	limiter.Allow("new-ip")

	limiter.mu.Lock()
	_, oldExists := limiter.windows["old-ip"]
	limiter.mu.Unlock()
	if oldExists {
		t.Fatalf("expired key should have been swept")
	}
}

func TestRateLimitMiddlewareRejectsWithJSON(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewWindowLimiter(1, time.Minute, clock.now)

	limited := 0
	mw := RateLimit(limiter, 1, time.Minute, func() { limited++ })
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/roi-calculator/submit", nil)
	req.Header.Set("X-Real-Ip", "203.0.113.7")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: expected %d, got %d", http.StatusOK, rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected %d, got %d", http.StatusTooManyRequests, rec.Code)
	}
	if limited != 1 {
		t.Fatalf("expected limited callback once, got %d", limited)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Rate limit exceeded" {
		t.Fatalf("unexpected error field %q", body["error"])
	}
}

func TestRateLimitMiddlewareKeysByClientIP(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewWindowLimiter(1, time.Minute, clock.now)

	mw := RateLimit(limiter, 1, time.Minute, nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest(http.MethodPost, "/api/roi-calculator/submit", nil)
	first.Header.Set("X-Real-Ip", "203.0.113.7")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rec.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/api/roi-calculator/submit", nil)
	second.Header.Set("X-Real-Ip", "198.51.100.4")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	if rec.Code != http.StatusOK {
		t.Fatalf("different IP should not share a window, got %d", rec.Code)
	}
}
