package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"medialink/internal/media"
)

func TestErrorRendersKindAndChain(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError(KindAnalyserTransient, "llm complete", "request failed", cause)

	want := "[analyser_transient] llm complete: request failed: connection refused"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause lost from chain")
	}
}

func TestKindOf(t *testing.T) {
	if kind := KindOf(nil); kind != "" {
		t.Fatalf("kind of nil = %q", kind)
	}
	if kind := KindOf(NewError(KindNoMatch, "tmdb match", "nothing")); kind != KindNoMatch {
		t.Fatalf("kind = %q", kind)
	}

	wrapped := fmt.Errorf("attempt: %w", NewError(KindLinkConflict, "link", "occupied"))
	if kind := KindOf(wrapped); kind != KindLinkConflict {
		t.Fatalf("wrapped kind = %q", kind)
	}

	if kind := KindOf(context.Canceled); kind != KindCancelled {
		t.Fatalf("cancellation kind = %q", kind)
	}
	if kind := KindOf(errors.New("plain")); kind != KindInternal {
		t.Fatalf("untagged kind = %q", kind)
	}
}

func TestFailureStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want media.Status
	}{
		{KindNoMatch, media.StatusNoMatch},
		{KindLinkConflict, media.StatusConflict},
		{KindAnalyserPermanent, media.StatusFailed},
		{KindLinkCrossDevice, media.StatusFailed},
		{KindCancelled, media.StatusFailed},
		{KindInternal, media.StatusFailed},
	}
	for _, tc := range cases {
		if got := FailureStatus(NewError(tc.kind, "op", "msg")); got != tc.want {
			t.Fatalf("FailureStatus(%s) = %q, want %q", tc.kind, got, tc.want)
		}
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(NewError(KindAnalyserTransient, "op", "")) {
		t.Fatal("analyser transient should be retryable")
	}
	if !Retryable(NewError(KindCatalogueTransient, "op", "")) {
		t.Fatal("catalogue transient should be retryable")
	}
	for _, kind := range []Kind{KindAnalyserPermanent, KindCataloguePermanent, KindNoMatch, KindCancelled, KindInternal} {
		if Retryable(NewError(kind, "op", "")) {
			t.Fatalf("%s should not be retryable", kind)
		}
	}
}
