package organizer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// LinkOutcome classifies the result of a hard link attempt.
type LinkOutcome string

const (
	LinkSuccess     LinkOutcome = "success"
	LinkConflict    LinkOutcome = "conflict"
	LinkCrossDevice LinkOutcome = "cross_device"
	LinkNoSource    LinkOutcome = "no_source"
	LinkUnknown     LinkOutcome = "unknown"
)

// Link hard links source into destination, creating parent directories as
// needed. Checks run in a fixed order: source existence, then destination
// occupancy, then the link attempt itself. The destination is never
// overwritten; an occupied path reports a conflict even when it holds a
// symlink or directory. The returned error is non-nil only for the
// cross-device and unknown outcomes and carries the underlying cause.
func Link(source, destination string) (LinkOutcome, error) {
	sourceInfo, err := os.Lstat(source)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return LinkNoSource, nil
		}
		return LinkUnknown, fmt.Errorf("stat source: %w", err)
	}
	if !sourceInfo.Mode().IsRegular() {
		return LinkNoSource, nil
	}

	if _, err := os.Lstat(destination); err == nil {
		return LinkConflict, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return LinkUnknown, fmt.Errorf("stat destination: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return LinkUnknown, fmt.Errorf("create destination directory: %w", err)
	}

	if err := os.Link(source, destination); err != nil {
		switch {
		case errors.Is(err, unix.EXDEV):
			return LinkCrossDevice, fmt.Errorf("hard link across filesystems: %w", err)
		case errors.Is(err, os.ErrExist):
			// Lost the race with a concurrent writer between the stat
			// and the link call.
			return LinkConflict, nil
		case errors.Is(err, os.ErrNotExist):
			return LinkNoSource, nil
		default:
			return LinkUnknown, fmt.Errorf("hard link: %w", err)
		}
	}

	return LinkSuccess, nil
}
