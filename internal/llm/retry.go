package llm

import (
	"context"
	"strings"
	"time"

	guarderrors "guardian/internal/errors"
	"guardian/internal/logging"
)

// retryClient wraps a Client with retry and circuit breaker protection.
type retryClient struct {
	underlying  Client
	retryConfig guarderrors.RetryConfig
	breaker     *guarderrors.CircuitBreaker
	logger      logging.Logger
}

var _ Client = (*retryClient)(nil)

// NewRetryClient wraps client so transient provider failures are retried
// with backoff and sustained failure trips the breaker. A nil breaker
// disables circuit breaking.
func NewRetryClient(client Client, retryConfig guarderrors.RetryConfig, breaker *guarderrors.CircuitBreaker, logger logging.Logger) Client {
	return &retryClient{
		underlying:  client,
		retryConfig: retryConfig,
		breaker:     breaker,
		logger:      logging.OrNop(logger),
	}
}

// Complete implements Client.
func (c *retryClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	resp, err := guarderrors.RetryWithResultAndLog(ctx, c.retryConfig, func(ctx context.Context) (*Response, error) {
		return guarderrors.ExecuteFunc(c.breaker, ctx, func(ctx context.Context) (*Response, error) {
			response, err := c.underlying.Complete(ctx, req)
			if err != nil {
				return nil, classifyProviderError(err)
			}
			return response, nil
		})
	}, c.logger)

	if err != nil {
		c.logger.Warn("completion failed after retries (took %v): %v", time.Since(start), err)
		return nil, err
	}
	return resp, nil
}

// classifyProviderError maps provider failures onto the transient/permanent
// taxonomy so the retry loop knows when another attempt can help.
func classifyProviderError(err error) error {
	if guarderrors.IsTransient(err) || guarderrors.IsPermanent(err) {
		return err
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "429"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "connection"),
		strings.Contains(msg, "temporarily"),
		strings.Contains(msg, "overloaded"):
		return guarderrors.NewTransientError(err, "provider request failed")
	case strings.Contains(msg, "401"),
		strings.Contains(msg, "invalid api key"),
		strings.Contains(msg, "authentication"),
		strings.Contains(msg, "context length"),
		strings.Contains(msg, "model not found"):
		return guarderrors.NewPermanentError(err, "provider rejected request")
	}
	// Unknown provider failures get one retry cycle rather than none.
	return guarderrors.NewTransientError(err, "provider request failed")
}
