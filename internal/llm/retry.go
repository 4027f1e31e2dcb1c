package llm

import (
	"context"
	"fmt"
	"time"
)

// RetryingProvider wraps a Provider with bounded retries and exponential
// backoff. The last error is returned once attempts are exhausted, so the
// caller always sees the failure.
type RetryingProvider struct {
	provider Provider
	attempts int
	baseWait time.Duration
}

// NewRetryingProvider wraps the given provider. attempts below 1 is treated as 1.
func NewRetryingProvider(provider Provider, attempts int, baseWait time.Duration) Provider {
	if attempts < 1 {
		attempts = 1
	}
	if baseWait <= 0 {
		baseWait = time.Second
	}
	return &RetryingProvider{provider: provider, attempts: attempts, baseWait: baseWait}
}

func (r *RetryingProvider) Name() string {
	return r.provider.Name()
}

func (r *RetryingProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var lastErr error
	wait := r.baseWait

	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			wait *= 2
		}

		resp, err := r.provider.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%s: completion failed after %d attempts: %w", r.provider.Name(), r.attempts, lastErr)
}
