package api

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy decides how a single logical request is retried.
type RetryPolicy struct {
	MaxAttempts    int              // total attempts, including the first
	InitialBackoff time.Duration    // delay after the first failure
	Multiplier     float64          // growth factor per attempt
	MaxBackoff     time.Duration    // cap on a single delay (0 = none)
	Retryable      func(error) bool // defaults to IsRetryable
}

// DefaultRetryPolicy returns 10 attempts with backoff doubling from 500ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    10,
		InitialBackoff: 500 * time.Millisecond,
		Multiplier:     2,
		Retryable:      IsRetryable,
	}
}

// RetryError is returned when the attempt budget is exhausted.
type RetryError struct {
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}

// Backoff returns the delay to wait after the given failed attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := float64(p.InitialBackoff)
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	for i := 1; i < attempt; i++ {
		d *= mult
		if p.MaxBackoff > 0 && d >= float64(p.MaxBackoff) {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > float64(p.MaxBackoff) {
		return p.MaxBackoff
	}
	return time.Duration(d)
}

// Do calls fn until it succeeds, fails with a non-retryable error, or the
// attempt budget runs out. Non-retryable errors are returned unwrapped.
func (p RetryPolicy) Do(ctx context.Context, sleep SleepFunc, fn func(ctx context.Context, attempt int) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, p.Backoff(attempt-1)); err != nil {
				return err
			}
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
	}

	return &RetryError{Attempts: maxAttempts, Err: lastErr}
}
