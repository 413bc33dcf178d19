package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

// WindowLimiter is a fixed-size sliding-window rate limiter: at most
// maxRequests per window per key. The clock is injected so tests control
// time; storage per key is bounded by maxRequests timestamps.
type WindowLimiter struct {
	mu          sync.Mutex
	windows     map[string][]time.Time
	maxRequests int
	window      time.Duration
	now         func() time.Time
	lastSweep   time.Time
}

// NewWindowLimiter creates a limiter allowing maxRequests per window per key.
// A nil now func defaults to time.Now.
func NewWindowLimiter(maxRequests int, window time.Duration, now func() time.Time) *WindowLimiter {
	if maxRequests <= 0 {
		maxRequests = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &WindowLimiter{
		windows:     make(map[string][]time.Time),
		maxRequests: maxRequests,
		window:      window,
		now:         now,
	}
}

// Allow reports whether a request from key is within the limit and records it
// if so.
func (l *WindowLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	recent := l.windows[key]
	cutoff := now.Add(-l.window)
	kept := recent[:0]
	for _, t := range recent {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.maxRequests {
		l.windows[key] = kept
		return false
	}
	l.windows[key] = append(kept, now)
	return true
}

// sweep drops keys whose entire window has expired. Runs at most once per
// window so a burst of distinct keys cannot grow the map unbounded.
func (l *WindowLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	cutoff := now.Add(-l.window)
	for key, times := range l.windows {
		if len(times) == 0 || !times[len(times)-1].After(cutoff) {
			delete(l.windows, key)
		}
	}
}

// Limiter is the decision point shared by the in-process and Redis-backed
// implementations.
type Limiter interface {
	Allow(key string) bool
}

// RateLimited is called when a request is rejected, before the 429 is
// written. Used to feed the rate-limit counter.
type RateLimited func()

// RateLimit rejects requests over the limit with 429 and a JSON body naming
// the limit, keyed by client IP.
func RateLimit(limiter Limiter, maxRequests int, window time.Duration, onLimited RateLimited) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			// Prefer X-Real-Ip set by chi's RealIP middleware.
			if xri := r.Header.Get("X-Real-Ip"); xri != "" {
				ip = xri
			}
			if !limiter.Allow(ip) {
				if onLimited != nil {
					onLimited()
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprintf(w, `{"error":"Rate limit exceeded","message":"Maximum %d requests per %s"}`, maxRequests, window)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
