package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// RetryPolicy describes an exponential backoff schedule for transient
// external-call failures.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Factor      float64
	MaxDelay    time.Duration
	Jitter      float64 // fraction of the delay randomised, 0..1

	// Sleep overrides how waits are performed; tests inject a no-op.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy matches the repository-wide external call budget:
// five attempts, 1s initial delay, doubling, capped at 30s, with jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		Factor:      2,
		MaxDelay:    30 * time.Second,
		Jitter:      0.2,
	}
}

// Retry runs op until it succeeds, returns a non-retryable error, or the
// attempt budget is exhausted. retryable decides which errors are worth
// another attempt; a nil retryable retries everything.
func Retry(ctx context.Context, policy RetryPolicy, retryable func(error) bool, op func(ctx context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := policy.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, policy.delay(attempt)); err != nil {
			return err
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	factor := p.Factor
	if factor < 1 {
		factor = 2
	}
	delay := float64(base)
	for i := 1; i < attempt; i++ {
		delay *= factor
	}
	if max := float64(p.MaxDelay); p.MaxDelay > 0 && delay > max {
		delay = max
	}
	if p.Jitter > 0 {
		spread := delay * p.Jitter
		delay = delay - spread/2 + rand.Float64()*spread
	}
	return time.Duration(delay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
