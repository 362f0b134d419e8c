package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when a breaker short-circuits a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerState is the breaker's position in its state machine.
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// halfOpenSuccesses is how many consecutive successful trial calls close a
// half-open breaker again.
const halfOpenSuccesses = 2

// CircuitBreaker protects a downstream dependency. It opens after
// failureThreshold consecutive failures, allows trial calls once
// resetTimeout has elapsed since the last failure, and closes again after
// two consecutive trial successes. Instances live for the process lifetime
// and are shared across all requests touching the same dependency.
type CircuitBreaker struct {
	name             string
	failureThreshold int
	resetTimeout     time.Duration

	mu          sync.Mutex
	state       BreakerState
	failures    int
	successes   int
	lastFailure time.Time
	now         func() time.Time
}

// NewCircuitBreaker creates a closed breaker for the named dependency.
func NewCircuitBreaker(name string, failureThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:             name,
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		state:            StateClosed,
		now:              time.Now,
	}
}

// State returns the breaker's current state, applying the time-based
// OPEN to HALF_OPEN transition first.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maybeHalfOpen()
	return b.state
}

// Execute runs op under the breaker's protection. While open and before the
// reset timeout, it fails fast with ErrCircuitOpen without invoking op.
func (b *CircuitBreaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	b.maybeHalfOpen()
	if b.state == StateOpen {
		b.mu.Unlock()
		return fmt.Errorf("%s: %w", b.name, ErrCircuitOpen)
	}
	b.mu.Unlock()

	err := op(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.onFailure()
		return err
	}
	b.onSuccess()
	return nil
}

// maybeHalfOpen moves an open breaker to half-open once the reset timeout
// has elapsed since the last recorded failure. Caller holds the lock.
func (b *CircuitBreaker) maybeHalfOpen() {
	if b.state == StateOpen && b.now().Sub(b.lastFailure) >= b.resetTimeout {
		b.state = StateHalfOpen
		b.successes = 0
	}
}

func (b *CircuitBreaker) onFailure() {
	b.lastFailure = b.now()
	switch b.state {
	case StateHalfOpen:
		// A failed trial call reopens immediately.
		b.state = StateOpen
		b.failures = b.failureThreshold
	default:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.state = StateOpen
		}
	}
	b.successes = 0
}

func (b *CircuitBreaker) onSuccess() {
	switch b.state {
	case StateHalfOpen:
		b.successes++
		if b.successes >= halfOpenSuccesses {
			b.state = StateClosed
			b.failures = 0
		}
	default:
		b.failures = 0
	}
}
