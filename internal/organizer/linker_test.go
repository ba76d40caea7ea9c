package organizer

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestLinkSuccess(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source", "movie.mkv")
	destination := filepath.Join(dir, "library", "Movies", "Movie (2020)", "Movie (2020).mkv")
	writeFile(t, source, "payload")

	outcome, err := Link(source, destination)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if outcome != LinkSuccess {
		t.Fatalf("outcome = %q, want %q", outcome, LinkSuccess)
	}

	srcInfo, err := os.Stat(source)
	if err != nil {
		t.Fatalf("stat source: %v", err)
	}
	dstInfo, err := os.Stat(destination)
	if err != nil {
		t.Fatalf("stat destination: %v", err)
	}
	if !os.SameFile(srcInfo, dstInfo) {
		t.Fatal("destination is not a hard link of the source")
	}
}

func TestLinkConflict(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "movie.mkv")
	destination := filepath.Join(dir, "library", "movie.mkv")
	writeFile(t, source, "payload")
	writeFile(t, destination, "already here")

	outcome, err := Link(source, destination)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if outcome != LinkConflict {
		t.Fatalf("outcome = %q, want %q", outcome, LinkConflict)
	}

	content, err := os.ReadFile(destination)
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if string(content) != "already here" {
		t.Fatalf("destination was overwritten: %q", content)
	}
}

func TestLinkConflictWithSymlinkDestination(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "movie.mkv")
	destination := filepath.Join(dir, "movie-link.mkv")
	writeFile(t, source, "payload")
	if err := os.Symlink(filepath.Join(dir, "missing"), destination); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	outcome, err := Link(source, destination)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if outcome != LinkConflict {
		t.Fatalf("outcome = %q, want %q", outcome, LinkConflict)
	}
}

func TestLinkNoSource(t *testing.T) {
	dir := t.TempDir()

	outcome, err := Link(filepath.Join(dir, "missing.mkv"), filepath.Join(dir, "out.mkv"))
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if outcome != LinkNoSource {
		t.Fatalf("outcome = %q, want %q", outcome, LinkNoSource)
	}
	if _, err := os.Lstat(filepath.Join(dir, "out.mkv")); !os.IsNotExist(err) {
		t.Fatal("destination should not exist")
	}
}

func TestLinkNoSourceForNonRegularFile(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "not-a-file")
	if err := os.Mkdir(source, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	outcome, err := Link(source, filepath.Join(dir, "out.mkv"))
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if outcome != LinkNoSource {
		t.Fatalf("outcome = %q, want %q", outcome, LinkNoSource)
	}
}

func TestLinkCreatesParentDirectories(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "movie.mkv")
	destination := filepath.Join(dir, "a", "b", "c", "movie.mkv")
	writeFile(t, source, "payload")

	outcome, err := Link(source, destination)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if outcome != LinkSuccess {
		t.Fatalf("outcome = %q, want %q", outcome, LinkSuccess)
	}
}
