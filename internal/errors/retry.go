package errors

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryConfig controls exponential backoff behavior.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Jitter        bool
}

// DefaultRetryConfig returns sensible retry defaults for provider calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	}
}

// RetryLogger is the logging subset needed by the retry helpers.
type RetryLogger interface {
	Warn(format string, args ...any)
}

// RetryableFunc is a function that can be retried.
type RetryableFunc func(ctx context.Context) error

// Retry executes fn with exponential backoff. Permanent errors and context
// cancellation stop the loop immediately.
func Retry(ctx context.Context, config RetryConfig, fn RetryableFunc) error {
	return RetryWithLog(ctx, config, fn, nil)
}

// RetryWithLog is Retry with per-attempt warnings sent to logger.
func RetryWithLog(ctx context.Context, config RetryConfig, fn RetryableFunc, logger RetryLogger) error {
	_, err := RetryWithResultAndLog(ctx, config, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, logger)
	return err
}

// RetryWithResult executes fn with exponential backoff and returns its result.
func RetryWithResult[T any](ctx context.Context, config RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	return RetryWithResultAndLog(ctx, config, fn, nil)
}

// RetryWithResultAndLog is RetryWithResult with per-attempt warnings.
func RetryWithResultAndLog[T any](ctx context.Context, config RetryConfig, fn func(ctx context.Context) (T, error), logger RetryLogger) (T, error) {
	var zero T
	var lastErr error

	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if IsPermanent(err) {
			return zero, err
		}
		if attempt == attempts {
			break
		}

		delay := calculateBackoff(attempt, config)
		if logger != nil {
			logger.Warn("attempt %d/%d failed, retrying in %v: %v", attempt, attempts, delay, err)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, fmt.Errorf("all %d attempts failed, last error: %w", attempts, lastErr)
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffFactor, float64(attempt-1))
	if max := float64(config.MaxDelay); config.MaxDelay > 0 && delay > max {
		delay = max
	}
	if config.Jitter {
		// Up to 25% jitter so concurrent tasks do not retry in lockstep.
		delay += delay * 0.25 * rand.Float64()
	}
	return time.Duration(delay)
}
