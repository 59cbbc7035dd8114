package errors

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassification(t *testing.T) {
	base := fmt.Errorf("boom")

	assert.True(t, IsTransient(NewTransientError(base, "")))
	assert.False(t, IsPermanent(NewTransientError(base, "")))

	assert.True(t, IsPermanent(NewPermanentError(base, "")))
	assert.False(t, IsTransient(NewPermanentError(base, "")))

	assert.True(t, IsTransient(fmt.Errorf("request failed with status 429")))
	assert.True(t, IsPermanent(fmt.Errorf("model not found")))
	assert.True(t, IsTransient(fmt.Errorf("dial tcp: connection refused")))

	// Unknown errors default to permanent so retry loops terminate.
	assert.Equal(t, ErrorTypePermanent, GetErrorType(fmt.Errorf("something odd")))
	assert.Equal(t, ErrorTypeTransient, GetErrorType(fmt.Errorf("context deadline exceeded")))
}

func TestHarnessTaxonomyUnwraps(t *testing.T) {
	base := fmt.Errorf("exit status 2")

	cerr := NewCollectorError("tests", base)
	assert.ErrorIs(t, cerr, base)
	assert.Contains(t, cerr.Error(), "tests")

	gerr := NewGenerationError("funds_transfer", base)
	assert.ErrorIs(t, gerr, base)
	assert.Contains(t, gerr.Error(), "funds_transfer")

	pv := NewPolicyViolation("tau_max", "must be positive")
	assert.Contains(t, pv.Error(), "tau_max")
}

func TestRetryStopsOnPermanent(t *testing.T) {
	calls := 0
	_, err := RetryWithResult(context.Background(), DefaultRetryConfig(), func(ctx context.Context) (int, error) {
		calls++
		return 0, NewPermanentError(fmt.Errorf("bad request"), "")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetrySucceedsAfterTransient(t *testing.T) {
	config := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, BackoffFactor: 1}
	calls := 0
	got, err := RetryWithResult(context.Background(), config, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewTransientError(fmt.Errorf("flaky"), "")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	config := RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, BackoffFactor: 1}
	calls := 0
	_, err := RetryWithResult(context.Background(), config, func(ctx context.Context) (int, error) {
		calls++
		return 0, NewTransientError(fmt.Errorf("flaky"), "")
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "all 2 attempts failed")
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RetryWithResult(ctx, DefaultRetryConfig(), func(ctx context.Context) (int, error) {
		return 1, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	cb := NewCircuitBreaker("llm", CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		OpenTimeout:      10 * time.Millisecond,
	})
	ctx := context.Background()
	fail := func(ctx context.Context) (int, error) { return 0, fmt.Errorf("boom") }
	ok := func(ctx context.Context) (int, error) { return 7, nil }

	_, _ = ExecuteFunc(cb, ctx, fail)
	_, _ = ExecuteFunc(cb, ctx, fail)
	assert.Equal(t, StateOpen, cb.State())

	// While open, calls fail fast with a permanent error.
	_, err := ExecuteFunc(cb, ctx, ok)
	require.Error(t, err)
	assert.True(t, IsPermanent(err))

	time.Sleep(15 * time.Millisecond)
	got, err := ExecuteFunc(cb, ctx, ok)
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, StateClosed, cb.State())
}

func TestNilCircuitBreakerPassesThrough(t *testing.T) {
	got, err := ExecuteFunc[int](nil, context.Background(), func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}
