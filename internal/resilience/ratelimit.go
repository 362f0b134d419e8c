package resilience

import (
	"sync"
	"time"
)

// RateResult reports the outcome of a rate-limit check.
type RateResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RateLimiter is a sliding-window counter keyed by an arbitrary string
// (client IP, outbound call type). A window record is created on first use
// and reset once its deadline passes.
type RateLimiter struct {
	mu          sync.Mutex
	windows     map[string]*rateWindow
	maxRequests int
	window      time.Duration
	now         func() time.Time
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

// NewRateLimiter creates a limiter allowing maxRequests per window per key.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows:     make(map[string]*rateWindow),
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

// Check records one request against key and reports whether it is allowed.
func (l *RateLimiter) Check(key string) RateResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &rateWindow{resetAt: now.Add(l.window)}
		l.windows[key] = w
	}

	if w.count >= l.maxRequests {
		return RateResult{Allowed: false, Remaining: 0, ResetAt: w.resetAt}
	}

	w.count++
	return RateResult{
		Allowed:   true,
		Remaining: l.maxRequests - w.count,
		ResetAt:   w.resetAt,
	}
}

// GC removes expired windows. Called periodically by the owner; the limiter
// does not start its own goroutine.
func (l *RateLimiter) GC() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, key)
		}
	}
}
