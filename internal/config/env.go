package config

import (
	"fmt"
	"strconv"
	"strings"
)

// LookupFunc matches os.LookupEnv and allows tests to inject environments.
type LookupFunc func(key string) (string, bool)

// applyEnv overlays recognised environment variables onto the config.
// All keys are parsed from strings; malformed values fail loading rather
// than being silently ignored.
func (c *Config) applyEnv(lookup LookupFunc) error {
	if lookup == nil {
		return nil
	}

	strVars := []struct {
		key    string
		target *string
	}{
		{"SOURCE_DIR", &c.Paths.SourceDir},
		{"TARGET_DIR", &c.Paths.TargetDir},
		{"LOG_DIR", &c.Paths.LogDir},
		{"API_BIND", &c.Paths.APIBind},
		{"TMDB_API_KEY", &c.TMDB.APIKey},
		{"TMDB_BASE_URL", &c.TMDB.BaseURL},
		{"TMDB_LANGUAGE", &c.TMDB.Language},
		{"LLM_API_KEY", &c.LLM.APIKey},
		{"LLM_BASE_URL", &c.LLM.BaseURL},
		{"LLM_MODEL", &c.LLM.Model},
		{"LOG_LEVEL", &c.Logging.Level},
		{"LOG_FORMAT", &c.Logging.Format},
	}
	for _, v := range strVars {
		if value, ok := lookup(v.key); ok && strings.TrimSpace(value) != "" {
			*v.target = strings.TrimSpace(value)
		}
	}

	intVars := []struct {
		key    string
		target *int
	}{
		{"SCAN_INTERVAL_SECONDS", &c.Scanner.IntervalSeconds},
		{"MIN_FILE_SIZE_MB", &c.Scanner.MinFileSizeMB},
		{"WORKER_COUNT", &c.Workers.Count},
		{"QUEUE_CAPACITY", &c.Workers.QueueCapacity},
		{"TMDB_CONCURRENCY", &c.TMDB.Concurrency},
		{"LLM_TIMEOUT_SECONDS", &c.LLM.TimeoutSeconds},
		{"LLM_CACHE_SIZE", &c.LLM.CacheSize},
	}
	for _, v := range intVars {
		value, ok := lookup(v.key)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("parse %s=%q: %w", v.key, value, err)
		}
		*v.target = parsed
	}

	boolVars := []struct {
		key    string
		target *bool
	}{
		{"SCAN_EXCLUDE_TARGET_DIR", &c.Scanner.ExcludeTargetDir},
		{"SCAN_FOLLOW_SYMLINKS", &c.Scanner.FollowSymlinks},
		{"ENABLE_TMDB", &c.TMDB.Enabled},
		{"ENABLE_LLM", &c.LLM.Enabled},
	}
	for _, v := range boolVars {
		value, ok := lookup(v.key)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		parsed, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("parse %s=%q: %w", v.key, value, err)
		}
		*v.target = parsed
	}

	if value, ok := lookup("VIDEO_EXTENSIONS"); ok && strings.TrimSpace(value) != "" {
		c.Scanner.VideoExtensions = ParseVideoExtensions(value)
	}

	return nil
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean")
}

// ParseVideoExtensions splits a comma separated extension list, lowercases
// each entry, and guarantees a leading dot. Empty entries are dropped.
func ParseVideoExtensions(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		result = append(result, trimmed)
	}
	return result
}
