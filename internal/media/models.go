package media

import (
	"strings"
	"time"
)

// Status represents the lifecycle position of a media file.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusNoMatch    Status = "no_match"
	StatusConflict   Status = "conflict"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
	StatusNoMatch,
	StatusConflict,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// retryableStatuses are the terminal non-success states a user may send
// back to pending.
var retryableStatuses = map[Status]struct{}{
	StatusFailed:   {},
	StatusNoMatch:  {},
	StatusConflict: {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the status ends a processing attempt.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusNoMatch, StatusConflict:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether a user-initiated retry may move the status
// back to pending.
func (s Status) IsRetryable() bool {
	_, ok := retryableStatuses[s]
	return ok
}

// MediaType distinguishes movies from TV episodes.
type MediaType string

const (
	TypeMovie MediaType = "movie"
	TypeTV    MediaType = "tv"
)

// ParseMediaType converts a string into a known MediaType.
func ParseMediaType(value string) (MediaType, bool) {
	switch MediaType(strings.ToLower(strings.TrimSpace(value))) {
	case TypeMovie:
		return TypeMovie, true
	case TypeTV:
		return TypeTV, true
	}
	return "", false
}

// Opposite returns the other media type, used by the catalogue hybrid
// search fallback.
func (t MediaType) Opposite() MediaType {
	if t == TypeMovie {
		return TypeTV
	}
	return TypeMovie
}

// File represents a discovered media file persisted in SQLite.
// (DeviceID, Inode) identifies the file independently of its path and is
// unique across the table.
type File struct {
	ID               int64
	DeviceID         uint64
	Inode            uint64
	OriginalFilepath string
	OriginalFilename string
	FileSize         uint64
	Status           Status
	RetryCount       int
	TMDBID           int64
	MediaType        MediaType
	LLMGuessJSON     string
	ProcessedJSON    string
	NewFilepath      string
	ErrorMessage     string
	ClaimedAt        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HealthSummary aggregates row counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
	NoMatch    int
	Conflict   int
}
