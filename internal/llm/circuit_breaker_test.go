package llm

import (
	"testing"
	"time"
)

func TestCircuitBreaker_StartsClosed(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 5, ResetTimeout: 30 * time.Second, HalfOpenMax: 1})
	if cb.State() != CircuitClosed {
		t.Errorf("expected Closed, got %s", cb.State())
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: 30 * time.Second, HalfOpenMax: 1})
	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	if cb.State() != CircuitOpen {
		t.Errorf("expected Open after 3 failures, got %s", cb.State())
	}
	if cb.Allow() {
		t.Error("should NOT allow requests when open")
	}
}

func TestCircuitBreaker_TransitionsToHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: 50 * time.Millisecond, HalfOpenMax: 1})
	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	time.Sleep(60 * time.Millisecond)
	if cb.State() != CircuitHalfOpen {
		t.Errorf("expected HalfOpen after timeout, got %s", cb.State())
	}
	if !cb.Allow() {
		t.Error("should allow 1 probe request in half-open")
	}
}

func TestCircuitBreaker_ClosesOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: 50 * time.Millisecond, HalfOpenMax: 1})
	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	time.Sleep(60 * time.Millisecond)
	cb.Allow()
	cb.RecordSuccess()
	if cb.State() != CircuitClosed {
		t.Errorf("expected Closed after success, got %s", cb.State())
	}
}

func TestCircuitBreaker_ReopenDoublesBackoff(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Millisecond, HalfOpenMax: 1})
	cb.RecordFailure()
	first := cb.GetExponentialBackoffDuration()

	time.Sleep(15 * time.Millisecond)
	cb.Allow() // consume the half-open probe
	cb.RecordFailure()
	second := cb.GetExponentialBackoffDuration()

	if second <= first {
		t.Errorf("expected backoff to grow on re-open, got %s then %s", first, second)
	}
}

func TestCircuitBreaker_HalfOpenLimitsProbes(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Millisecond, HalfOpenMax: 1})
	cb.RecordFailure()
	time.Sleep(15 * time.Millisecond)
	cb.State() // force the transition check

	if !cb.Allow() {
		t.Fatal("first half-open probe should be allowed")
	}
	if cb.Allow() {
		t.Error("second half-open probe should be rejected until the first resolves")
	}
}
