package errors

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CircuitState represents the breaker state.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig controls when the breaker trips and recovers.
type CircuitBreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
}

// DefaultCircuitBreakerConfig returns defaults tuned for provider calls.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
	}
}

// CircuitBreaker protects the generation collaborator from hammering a
// provider that is consistently failing. While open, calls fail fast with a
// permanent error so the repair loop abstains instead of waiting out
// timeouts round after round.
type CircuitBreaker struct {
	name   string
	config CircuitBreakerConfig

	mu           sync.Mutex
	state        CircuitState
	failures     int
	successes    int
	lastOpenedAt time.Time
}

// NewCircuitBreaker creates a breaker in the closed state.
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = DefaultCircuitBreakerConfig().FailureThreshold
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = DefaultCircuitBreakerConfig().SuccessThreshold
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = DefaultCircuitBreakerConfig().OpenTimeout
	}
	return &CircuitBreaker{name: name, config: config, state: StateClosed}
}

// Execute runs fn under the breaker.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := cb.allow(); err != nil {
		return err
	}
	err := fn(ctx)
	cb.record(err)
	return err
}

// ExecuteFunc runs fn under cb and returns its result.
func ExecuteFunc[T any](cb *CircuitBreaker, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if cb == nil {
		return fn(ctx)
	}
	if err := cb.allow(); err != nil {
		return zero, err
	}
	result, err := fn(ctx)
	cb.record(err)
	if err != nil {
		return zero, err
	}
	return result, nil
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if time.Since(cb.lastOpenedAt) < cb.config.OpenTimeout {
			return NewPermanentError(
				fmt.Errorf("circuit breaker %s is open", cb.name),
				fmt.Sprintf("provider %s is unavailable, failing fast", cb.name),
			)
		}
		cb.state = StateHalfOpen
		cb.successes = 0
	}
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.failures = 0
		if cb.state == StateHalfOpen {
			cb.successes++
			if cb.successes >= cb.config.SuccessThreshold {
				cb.state = StateClosed
			}
		}
		return
	}

	cb.failures++
	if cb.state == StateHalfOpen || cb.failures >= cb.config.FailureThreshold {
		cb.state = StateOpen
		cb.lastOpenedAt = time.Now()
		cb.failures = 0
	}
}
