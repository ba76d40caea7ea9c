package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	SourceDir string `toml:"source_dir"`
	TargetDir string `toml:"target_dir"`
	LogDir    string `toml:"log_dir"`
	APIBind   string `toml:"api_bind"`
}

// Scanner contains configuration for the periodic source directory walk.
type Scanner struct {
	IntervalSeconds  int      `toml:"interval_seconds"`
	VideoExtensions  []string `toml:"video_extensions"`
	MinFileSizeMB    int      `toml:"min_file_size_mb"`
	ExcludeTargetDir bool     `toml:"exclude_target_dir"`
	FollowSymlinks   bool     `toml:"follow_symlinks"`
}

// Workers contains worker pool and dispatcher sizing.
type Workers struct {
	Count         int `toml:"count"`
	QueueCapacity int `toml:"queue_capacity"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	Enabled     bool   `toml:"enabled"`
	APIKey      string `toml:"api_key"`
	BaseURL     string `toml:"base_url"`
	Language    string `toml:"language"`
	Concurrency int    `toml:"concurrency"`
}

// LLM contains connection settings for the filename analyser.
type LLM struct {
	Enabled        bool   `toml:"enabled"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	CacheSize      int    `toml:"cache_size"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for medialink.
//
// Configuration sections by subsystem:
//   - Paths: source/target directories, log directory, API bind address
//   - Scanner: walk interval, extension allow-list, size floor, symlink policy
//   - Workers: worker pool size and dispatcher capacity
//   - TMDB: catalogue search settings and rate limit
//   - LLM: filename analyser connection settings and cache size
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Scanner Scanner `toml:"scanner"`
	Workers Workers `toml:"workers"`
	TMDB    TMDB    `toml:"tmdb"`
	LLM     LLM     `toml:"llm"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/medialink/config.toml")
}

// Load locates, parses, and validates a configuration file. Environment
// variables override file values, so the daemon can run file-less inside a
// container. The returned config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("medialink.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// TargetDir is created on a best-effort basis so the daemon can start when
// the library storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	if strings.TrimSpace(c.Paths.TargetDir) != "" {
		_ = os.MkdirAll(c.Paths.TargetDir, 0o755)
	}
	return nil
}

// MinFileSizeBytes converts the configured megabyte floor to bytes.
func (c *Config) MinFileSizeBytes() int64 {
	if c.Scanner.MinFileSizeMB <= 0 {
		return 0
	}
	return int64(c.Scanner.MinFileSizeMB) * 1024 * 1024
}

// ExtensionSet returns the allow-list as a lowercase lookup set.
func (c *Config) ExtensionSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Scanner.VideoExtensions))
	for _, ext := range c.Scanner.VideoExtensions {
		trimmed := strings.ToLower(strings.TrimSpace(ext))
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		set[trimmed] = struct{}{}
	}
	return set
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
