// ABOUTME: Retry utilities with exponential backoff and context-aware sleeping
// ABOUTME: Shared by the LLM client and the shared-namespace lock retry
package util

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// maxBackoff caps a single wait
const maxBackoff = 30 * time.Second

// CalculateBackoff returns exponential backoff with jitter
// Base delay is doubled each attempt, with random jitter up to 25%
func CalculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 || baseDelay <= 0 {
		return 0
	}
	// Cap attempt to avoid overflow in bit shift (max 30 for safety)
	if attempt > 30 {
		attempt = 30
	}
	backoff := baseDelay * time.Duration(1<<uint(attempt))
	if backoff > maxBackoff || backoff <= 0 {
		backoff = maxBackoff
	}
	half := int64(backoff) / 2
	if half == 0 {
		return backoff
	}
	// Add jitter: -25% to +25% using auto-seeded math/rand/v2
	jitter := time.Duration(rand.Int64N(half)) - backoff/4
	return backoff + jitter
}

// Sleep waits for d or until ctx is done, whichever comes first
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryPolicy bounds a retry loop. MaxRetries counts attempts after the first.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	// Retryable reports whether another attempt may help; nil retries every error
	Retryable func(error) bool
}

// Do runs fn until it succeeds, the policy is exhausted, or ctx is done.
// The returned error wraps the last attempt's error.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := Sleep(ctx, CalculateBackoff(p.BaseDelay, attempt)); err != nil {
				return fmt.Errorf("retry interrupted: %w (last error: %v)", err, lastErr)
			}
		}

		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)

		if p.Retryable != nil && !p.Retryable(err) {
			return lastErr
		}
	}
	return lastErr
}
