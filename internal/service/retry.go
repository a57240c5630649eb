package service

import (
	"context"
	"time"
)

// RetryPolicy bounds retries of transient failures. It is passed into the
// ingestion pipeline as explicit configuration rather than inline control
// flow, so retry behavior is testable on its own.
type RetryPolicy struct {
	MaxRetries int
	// Backoff returns the delay before retry number attempt (0-based).
	// A nil Backoff retries immediately.
	Backoff func(attempt int) time.Duration
}

// DefaultRetryPolicy retries three times with exponential backoff starting
// at 500ms.
func DefaultRetryPolicy() RetryPolicy {
	return ExponentialRetryPolicy(3, 500*time.Millisecond)
}

// ExponentialRetryPolicy doubles the base delay on every attempt.
func ExponentialRetryPolicy(maxRetries int, base time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxRetries: maxRetries,
		Backoff: func(attempt int) time.Duration {
			return base << uint(attempt)
		},
	}
}

// Do runs fn, retrying while shouldRetry reports the error as transient,
// up to MaxRetries additional attempts. The last error is returned on
// exhaustion. Context cancellation interrupts the backoff wait.
func (p RetryPolicy) Do(ctx context.Context, fn func() error, shouldRetry func(error) bool) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || shouldRetry == nil || !shouldRetry(err) {
			return err
		}
		if attempt >= p.MaxRetries {
			return err
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
