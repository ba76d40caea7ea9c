package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func noSleep() func(context.Context, time.Duration) error {
	return func(context.Context, time.Duration) error { return nil }
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	policy := DefaultRetryPolicy()
	policy.Sleep = noSleep()

	calls := 0
	err := Retry(context.Background(), policy, Retryable, func(context.Context) error {
		calls++
		if calls < 3 {
			return NewError(KindCatalogueTransient, "tmdb search", "status 503")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetryStopsAtBudget(t *testing.T) {
	policy := DefaultRetryPolicy()
	policy.Sleep = noSleep()

	calls := 0
	err := Retry(context.Background(), policy, Retryable, func(context.Context) error {
		calls++
		return NewError(KindAnalyserTransient, "llm complete", "status 503")
	})
	if err == nil {
		t.Fatal("expected error after budget exhaustion")
	}
	if calls != policy.MaxAttempts {
		t.Fatalf("calls = %d, want %d", calls, policy.MaxAttempts)
	}

	var tagged *Error
	if !errors.As(err, &tagged) {
		t.Fatalf("taxonomy lost from final error: %v", err)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	policy := DefaultRetryPolicy()
	policy.Sleep = noSleep()

	calls := 0
	err := Retry(context.Background(), policy, Retryable, func(context.Context) error {
		calls++
		return NewError(KindAnalyserPermanent, "llm complete", "status 401")
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if KindOf(err) != KindAnalyserPermanent {
		t.Fatalf("kind = %q", KindOf(err))
	}
}

func TestRetryStopsOnCancellation(t *testing.T) {
	policy := DefaultRetryPolicy()
	policy.Sleep = noSleep()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, policy, Retryable, func(context.Context) error {
		calls++
		cancel()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want canceled", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDelayGrowsAndCaps(t *testing.T) {
	policy := RetryPolicy{BaseDelay: time.Second, Factor: 2, MaxDelay: 5 * time.Second}

	if d := policy.delay(1); d != time.Second {
		t.Fatalf("delay(1) = %v", d)
	}
	if d := policy.delay(2); d != 2*time.Second {
		t.Fatalf("delay(2) = %v", d)
	}
	if d := policy.delay(4); d != 5*time.Second {
		t.Fatalf("delay(4) = %v, want capped at 5s", d)
	}
}
