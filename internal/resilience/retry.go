// Package resilience provides the protective primitives wrapped around every
// outbound call: retry with exponential backoff, a sliding-window rate
// limiter, and a three-state circuit breaker. All state is held by explicitly
// constructed instances owned by the composition root.
package resilience

import (
	"context"
	"fmt"
	"math"
	"time"
)

// RetryConfig controls the backoff schedule for Retry.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultRetryConfig matches the production schedule: three attempts starting
// at one second, doubling, capped at ten seconds.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
		Multiplier:  2,
	}
}

// Delay returns the wait before retrying after the given 1-based attempt.
// The schedule is min(base * multiplier^(attempt-1), max) with no jitter.
func (c RetryConfig) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(c.BaseDelay) * math.Pow(c.Multiplier, float64(attempt-1))
	if d > float64(c.MaxDelay) {
		return c.MaxDelay
	}
	return time.Duration(d)
}

// Retry runs op up to cfg.MaxAttempts times, sleeping per the backoff
// schedule between failures. The last error is returned once attempts are
// exhausted. Context cancellation aborts the wait between attempts.
func Retry(ctx context.Context, cfg RetryConfig, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := op(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-time.After(cfg.Delay(attempt)):
		}
	}
	return lastErr
}
