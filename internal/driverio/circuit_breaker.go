package driverio

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// circuitState is the state of a CircuitBreaker.
type circuitState int

const (
	stateClosed circuitState = iota
	stateOpen
	stateHalfOpen
)

// CircuitBreaker guards the driver TCP connection against cascading
// failures: once writeFrame/readFrame fail too often it stops attempting
// them for resetTimeout, then allows a handful of trial frames through
// before fully closing again. Grounded on
// internal/elevator/circuit_breaker.go's closed/open/half-open state
// machine, moved here since this system's only external I/O boundary is
// the driver connection rather than a per-elevator operation.
type CircuitBreaker struct {
	mu           sync.Mutex
	state        circuitState
	failureCount int
	successCount int
	nextRetry    time.Time

	maxFailures   int
	resetTimeout  time.Duration
	halfOpenLimit int
}

// NewCircuitBreaker builds a closed circuit breaker.
func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration, halfOpenLimit int) *CircuitBreaker {
	return &CircuitBreaker{
		state:         stateClosed,
		maxFailures:   maxFailures,
		resetTimeout:  resetTimeout,
		halfOpenLimit: halfOpenLimit,
	}
}

// Execute runs op if the breaker currently allows requests through,
// recording the outcome. It returns an error without running op when the
// breaker is open.
func (cb *CircuitBreaker) Execute(_ context.Context, op func() error) error {
	if !cb.allow() {
		return fmt.Errorf("driver circuit breaker open")
	}

	err := op()
	if err != nil {
		cb.recordFailure()
		return err
	}
	cb.recordSuccess()
	return nil
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case stateClosed:
		return true
	case stateOpen:
		if time.Now().After(cb.nextRetry) {
			cb.state = stateHalfOpen
			cb.successCount = 0
			return true
		}
		return false
	case stateHalfOpen:
		return cb.successCount < cb.halfOpenLimit
	default:
		return false
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount = 0
	if cb.state == stateHalfOpen {
		cb.successCount++
		if cb.successCount >= cb.halfOpenLimit {
			cb.state = stateClosed
		}
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	if cb.state == stateHalfOpen {
		cb.state = stateOpen
		cb.nextRetry = time.Now().Add(cb.resetTimeout)
		return
	}
	if cb.failureCount >= cb.maxFailures {
		cb.state = stateOpen
		cb.nextRetry = time.Now().Add(cb.resetTimeout)
	}
}

// State reports the breaker's current state, for tests and diagnostics.
func (cb *CircuitBreaker) State() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}
