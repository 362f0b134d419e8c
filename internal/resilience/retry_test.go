package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func fastRetryConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2,
	}
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(3), func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryRecoversAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(3), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryReturnsLastError(t *testing.T) {
	lastErr := errors.New("attempt 3")
	calls := 0
	errs := []error{errors.New("attempt 1"), errors.New("attempt 2"), lastErr}

	err := Retry(context.Background(), fastRetryConfig(3), func(context.Context) error {
		defer func() { calls++ }()
		return errs[calls]
	})
	require.Error(t, err)
	assert.Equal(t, lastErr, err)
	assert.Equal(t, 3, calls)
}

func TestRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	cfg := RetryConfig{MaxAttempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 2}
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Retry(ctx, cfg, func(context.Context) error {
		calls++
		return errors.New("always fails")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDelaySchedule(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
		Multiplier:  2,
	}

	assert.Equal(t, time.Second, cfg.Delay(1))
	assert.Equal(t, 2*time.Second, cfg.Delay(2))
	assert.Equal(t, 4*time.Second, cfg.Delay(3))
	assert.Equal(t, 8*time.Second, cfg.Delay(4))
	assert.Equal(t, 10*time.Second, cfg.Delay(5), "capped at MaxDelay")
	assert.Equal(t, 10*time.Second, cfg.Delay(12))
}

// TestDelayMonotonic checks that for attempts a < b the computed delay for a
// never exceeds the delay for b, across randomly drawn configurations.
func TestDelayMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := RetryConfig{
			MaxAttempts: 10,
			BaseDelay:   time.Duration(rapid.Int64Range(1, int64(time.Minute)).Draw(t, "base")),
			MaxDelay:    time.Duration(rapid.Int64Range(int64(time.Minute), int64(time.Hour)).Draw(t, "max")),
			Multiplier:  rapid.Float64Range(1, 8).Draw(t, "mult"),
		}
		a := rapid.IntRange(1, 19).Draw(t, "a")
		b := rapid.IntRange(a+1, 20).Draw(t, "b")

		if cfg.Delay(a) > cfg.Delay(b) {
			t.Fatalf("delay(%d)=%v > delay(%d)=%v", a, cfg.Delay(a), b, cfg.Delay(b))
		}
		if cfg.Delay(b) > cfg.MaxDelay {
			t.Fatalf("delay(%d)=%v exceeds cap %v", b, cfg.Delay(b), cfg.MaxDelay)
		}
	})
}
