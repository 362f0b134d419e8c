package resilience

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsUpToMax(t *testing.T) {
	l := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		res := l.Check("client-a")
		assert.True(t, res.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res := l.Check("client-a")
	assert.False(t, res.Allowed, "request beyond the window maximum is denied")
	assert.Equal(t, 0, res.Remaining)
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	l := NewRateLimiter(1, time.Minute)

	assert.True(t, l.Check("a").Allowed)
	assert.False(t, l.Check("a").Allowed)
	assert.True(t, l.Check("b").Allowed, "a separate key has its own window")
}

func TestRateLimiterWindowReset(t *testing.T) {
	l := NewRateLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Check("k")
	l.Check("k")
	assert.False(t, l.Check("k").Allowed)

	// After the window passes, the counter starts over at one.
	now = now.Add(61 * time.Second)
	res := l.Check("k")
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
}

func TestRateLimiterGC(t *testing.T) {
	l := NewRateLimiter(5, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		l.Check(fmt.Sprintf("key-%d", i))
	}
	assert.Len(t, l.windows, 10)

	now = now.Add(2 * time.Minute)
	l.GC()
	assert.Empty(t, l.windows)
}
