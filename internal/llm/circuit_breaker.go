package llm

import (
	"sync"
	"time"
)

// CircuitState is the state of a CircuitBreaker.
type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	FailureThreshold int           // consecutive failures before opening
	ResetTimeout     time.Duration // initial cooldown before transitioning to half-open
	HalfOpenMax      int           // max probe requests allowed in half-open
}

// DefaultCircuitBreakerConfig returns sensible defaults for LLM calls.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		HalfOpenMax:      1,
	}
}

// CircuitBreaker protects the pipeline from hammering an unavailable model
// provider, with exponential backoff on repeated re-opens.
type CircuitBreaker struct {
	mu              sync.Mutex
	config          CircuitBreakerConfig
	state           CircuitState
	failures        int
	lastFailureAt   time.Time
	halfOpenCount   int
	consecutiveOpen int
}

// NewCircuitBreaker creates a new circuit breaker in the closed state.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{config: cfg, state: CircuitClosed}
}

// GetExponentialBackoffDuration doubles the wait time per consecutive
// re-open, capped at 5 minutes.
func (cb *CircuitBreaker) GetExponentialBackoffDuration() time.Duration {
	base := cb.config.ResetTimeout
	multiplier := 1 << uint(cb.consecutiveOpen)
	backoff := time.Duration(multiplier) * base
	const maxBackoff = 5 * time.Minute
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	return backoff
}

// State returns the current state, first applying any due Open -> HalfOpen
// transition.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.checkAndTransition()
	return cb.state
}

func (cb *CircuitBreaker) checkAndTransition() {
	if cb.state == CircuitOpen && time.Since(cb.lastFailureAt) > cb.GetExponentialBackoffDuration() {
		cb.state = CircuitHalfOpen
		cb.halfOpenCount = 0
	}
}

// Allow reports whether a call should be permitted through right now.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.checkAndTransition()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		return false
	case CircuitHalfOpen:
		if cb.halfOpenCount < cb.config.HalfOpenMax {
			cb.halfOpenCount++
			return true
		}
		return false
	}
	return false
}

// RecordSuccess transitions HalfOpen -> Closed and clears all counters.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.consecutiveOpen = 0
	cb.state = CircuitClosed
	cb.halfOpenCount = 0
}

// RecordFailure may transition Closed -> Open or HalfOpen -> Open.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures++
	cb.lastFailureAt = time.Now()
	if cb.state == CircuitHalfOpen {
		cb.state = CircuitOpen
		cb.consecutiveOpen++
		return
	}
	if cb.failures >= cb.config.FailureThreshold {
		cb.state = CircuitOpen
	}
}
