package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"medialink/internal/logging"
	"medialink/internal/testsupport"
)

func mkvOnly() map[string]struct{} {
	return map[string]struct{}{".mkv": {}}
}

func TestWalkSourceFiltersByExtensionAndSize(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "keep.mkv"), 100)
	testsupport.WriteFile(t, filepath.Join(root, "too-small.mkv"), 99)
	testsupport.WriteFile(t, filepath.Join(root, "notes.txt"), 100)

	candidates, err := walkSource(walkOptions{
		root:         root,
		extensions:   mkvOnly(),
		minSizeBytes: 100,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("walkSource: %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(candidates))
	}
	if filepath.Base(candidates[0].Path) != "keep.mkv" {
		t.Fatalf("candidate = %q", candidates[0].Path)
	}
	if candidates[0].Inode == 0 || candidates[0].DeviceID == 0 {
		t.Fatalf("identity not captured: %+v", candidates[0])
	}
}

func TestWalkSourceSizeFloorIsInclusive(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "exact.mkv"), 100)

	candidates, err := walkSource(walkOptions{
		root:         root,
		extensions:   mkvOnly(),
		minSizeBytes: 100,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("walkSource: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("file exactly at the floor must be included, got %d", len(candidates))
	}
}

func TestWalkSourceSkipsExcludedSubtree(t *testing.T) {
	root := t.TempDir()
	library := filepath.Join(root, "library")
	testsupport.WriteFile(t, filepath.Join(root, "a.mkv"), 10)
	testsupport.WriteFile(t, filepath.Join(library, "Movies", "b.mkv"), 10)

	candidates, err := walkSource(walkOptions{
		root:           root,
		extensions:     mkvOnly(),
		excludedSubdir: library,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("walkSource: %v", err)
	}
	if len(candidates) != 1 || filepath.Base(candidates[0].Path) != "a.mkv" {
		t.Fatalf("candidates = %+v", candidates)
	}
}

func TestWalkSourceIgnoresSymlinksByDefault(t *testing.T) {
	root := t.TempDir()
	real := filepath.Join(root, "real.mkv")
	testsupport.WriteFile(t, real, 10)
	if err := os.Symlink(real, filepath.Join(root, "alias.mkv")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	candidates, err := walkSource(walkOptions{
		root:       root,
		extensions: mkvOnly(),
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("walkSource: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("candidates = %d, want only the real file", len(candidates))
	}
}

func TestWalkSourceFollowsSymlinkedFiles(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(t.TempDir(), "outside.mkv")
	testsupport.WriteFile(t, outside, 10)
	if err := os.Symlink(outside, filepath.Join(root, "linked.mkv")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	candidates, err := walkSource(walkOptions{
		root:           root,
		extensions:     mkvOnly(),
		followSymlinks: true,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("walkSource: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(candidates))
	}
	if candidates[0].Path != outside {
		t.Fatalf("path = %q, want resolved target %q", candidates[0].Path, outside)
	}
}

func TestWalkSourceFollowsSymlinkedDirectories(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(outside, "show.mkv"), 10)
	if err := os.Symlink(outside, filepath.Join(root, "linked-dir")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	candidates, err := walkSource(walkOptions{
		root:           root,
		extensions:     mkvOnly(),
		followSymlinks: true,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("walkSource: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("candidates = %d, want the file behind the linked directory", len(candidates))
	}
	if filepath.Base(candidates[0].Path) != "show.mkv" {
		t.Fatalf("candidate = %q", candidates[0].Path)
	}
}

func TestWalkSourceTerminatesOnDirectoryCycle(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "nested")
	testsupport.WriteFile(t, filepath.Join(nested, "a.mkv"), 10)
	// Symlink back to the root creates a cycle when links are followed.
	if err := os.Symlink(root, filepath.Join(nested, "loop")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	candidates, err := walkSource(walkOptions{
		root:           root,
		extensions:     mkvOnly(),
		followSymlinks: true,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("walkSource: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("candidates = %d, want 1 despite the cycle", len(candidates))
	}
}
