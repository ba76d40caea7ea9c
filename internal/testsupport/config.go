package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"medialink/internal/config"
)

// NewConfig builds a validated configuration rooted in a per-test temp
// directory. External services stay disabled so tests never reach the
// network.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.SourceDir = filepath.Join(base, "source")
	cfg.Paths.TargetDir = filepath.Join(base, "library")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Scanner.IntervalSeconds = 1
	cfg.Scanner.MinFileSizeMB = 0
	cfg.TMDB.Enabled = false
	cfg.LLM.Enabled = false

	for _, dir := range []string{cfg.Paths.SourceDir, cfg.Paths.TargetDir, cfg.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("create %s: %v", dir, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}
