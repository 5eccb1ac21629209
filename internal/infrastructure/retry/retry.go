// Package retry retries transient failures with exponential backoff and jitter.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Policy describes how many times and how patiently to retry.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// Retryable decides whether an error is worth another attempt.
	// A nil Retryable retries every error.
	Retryable func(error) bool
}

// Do calls f until it succeeds, returns a non-retryable error, the context
// is done, or MaxAttempts is reached. Between attempts it waits a random
// duration between delay/2 and delay, doubling delay up to MaxDelay.
func Do[T any](ctx context.Context, policy Policy, f func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := policy.InitialDelay

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		result, err := f(ctx, attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if policy.Retryable != nil && !policy.Retryable(err) {
			return zero, err
		}
		if attempt == attempts-1 {
			break
		}

		wait := delay/2 + time.Duration(rand.Int63n(int64(delay/2+1)))
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}

		delay *= 2
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}

	if attempts == 1 {
		return zero, lastErr
	}
	return zero, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
