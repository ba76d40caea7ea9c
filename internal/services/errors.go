package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"medialink/internal/media"
)

// Kind classifies a pipeline failure for status mapping and diagnostics.
// The kind is serialised into the persisted error message so operators can
// see at a glance why a file stopped progressing.
type Kind string

const (
	KindAnalyserTransient  Kind = "analyser_transient"
	KindAnalyserPermanent  Kind = "analyser_permanent"
	KindCatalogueTransient Kind = "catalogue_transient"
	KindCataloguePermanent Kind = "catalogue_permanent"
	KindNoMatch            Kind = "no_match"
	KindPathInsufficient   Kind = "path_insufficient"
	KindLinkConflict       Kind = "link_conflict"
	KindLinkCrossDevice    Kind = "link_cross_device"
	KindLinkMissingSource  Kind = "link_missing_source"
	KindLinkUnknown        Kind = "link_unknown"
	KindCancelled          Kind = "cancelled"
	KindInternal           Kind = "internal"
)

// Error tags an underlying failure with its taxonomy kind and the
// operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	parts := make([]string, 0, 3)
	if op := strings.TrimSpace(e.Op); op != "" {
		parts = append(parts, op)
	}
	if msg := strings.TrimSpace(e.Msg); msg != "" {
		parts = append(parts, msg)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	if len(parts) == 0 {
		parts = append(parts, "service failure")
	}
	return fmt.Sprintf("[%s] %s", e.Kind, strings.Join(parts, ": "))
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a taxonomy-tagged error without an underlying cause.
func NewError(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// WrapError tags an underlying error with a taxonomy kind.
func WrapError(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// KindOf extracts the taxonomy kind from an error chain. Context
// cancellation is folded into KindCancelled; anything untagged is internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}
	return KindInternal
}

// FailureStatus maps an error kind to the terminal status the worker
// should persist after the pipeline fails.
func FailureStatus(err error) media.Status {
	switch KindOf(err) {
	case KindNoMatch:
		return media.StatusNoMatch
	case KindLinkConflict:
		return media.StatusConflict
	default:
		return media.StatusFailed
	}
}

// Retryable reports whether the error is transient and worth another
// attempt inside the owning client's retry budget. Permanent
// classifications and cancellation abort immediately.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindAnalyserTransient, KindCatalogueTransient:
		return true
	default:
		return false
	}
}
