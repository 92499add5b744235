// Package breaker implements a circuit breaker around the submission
// collaborator's outbound requests. No circuit-breaker library appears
// anywhere in the retrieved corpus, so this one concern is built directly
// on sync/time rather than an ecosystem dependency.
package breaker

import (
	"sync"
	"time"
)

type state int

const (
	closed state = iota
	open
	halfOpen
)

// Breaker opens after a threshold of consecutive failures and half-opens
// after a recovery interval, matching the original error_handling.rs
// CircuitBreaker state machine.
type Breaker struct {
	mu sync.Mutex

	failureThreshold int
	recoveryTimeout  time.Duration

	st           state
	failureCount int
	openedAt     time.Time
}

// New constructs a Breaker that opens after failureThreshold consecutive
// failures and half-opens recoveryTimeout after opening.
func New(failureThreshold int, recoveryTimeout time.Duration) *Breaker {
	return &Breaker{
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		st:               closed,
	}
}

// Allow reports whether a new call may proceed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.st {
	case closed, halfOpen:
		return true
	case open:
		return time.Since(b.openedAt) >= b.recoveryTimeout
	default:
		return false
	}
}

// RecordSuccess resets the breaker to closed.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.st = closed
	b.failureCount = 0
}

// RecordFailure advances the breaker's state machine on a failed call.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.st {
	case closed:
		b.failureCount++
		if b.failureCount >= b.failureThreshold {
			b.st = open
			b.openedAt = time.Now()
		}
	case open:
		if time.Since(b.openedAt) >= b.recoveryTimeout {
			b.st = halfOpen
		}
	case halfOpen:
		b.st = open
		b.openedAt = time.Now()
	}
}

// State returns a human-readable status string for the health endpoint.
func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.st {
	case closed:
		return "closed"
	case open:
		return "open"
	case halfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}
