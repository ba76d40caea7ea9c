package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"medialink/internal/media"
)

// MustOpenStore opens a fresh sqlite store in a temp directory and closes
// it when the test finishes.
func MustOpenStore(t *testing.T) *media.Store {
	t.Helper()

	store, err := media.OpenPath(filepath.Join(t.TempDir(), "medialink.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

// MustRegister inserts a file with a synthetic identity and returns it.
func MustRegister(t *testing.T, store *media.Store, path string, inode uint64) *media.File {
	t.Helper()

	file, _, err := store.RegisterIfNew(context.Background(), path, 1, inode, 1024)
	if err != nil {
		t.Fatalf("register %s: %v", path, err)
	}
	return file
}
