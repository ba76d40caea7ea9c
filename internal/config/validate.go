package config

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateScanner(); err != nil {
		return err
	}
	if err := c.validateWorkers(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.SourceDir == "" {
		return errors.New("paths.source_dir must be set")
	}
	if c.Paths.TargetDir == "" {
		return errors.New("paths.target_dir must be set")
	}
	if c.Paths.SourceDir == c.Paths.TargetDir {
		return errors.New("paths.source_dir and paths.target_dir must differ")
	}
	return nil
}

func (c *Config) validateScanner() error {
	if c.Scanner.IntervalSeconds < 1 {
		return errors.New("scanner.interval_seconds must be at least 1")
	}
	if c.Scanner.MinFileSizeMB < 0 {
		return errors.New("scanner.min_file_size_mb must not be negative")
	}
	if len(c.Scanner.VideoExtensions) == 0 {
		return errors.New("scanner.video_extensions must not be empty")
	}
	return nil
}

func (c *Config) validateWorkers() error {
	if c.Workers.Count < 1 {
		return errors.New("workers.count must be at least 1")
	}
	if c.Workers.QueueCapacity < c.Workers.Count {
		return fmt.Errorf("workers.queue_capacity must be at least workers.count (%d)", c.Workers.Count)
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if !c.TMDB.Enabled {
		return nil
	}
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/medialink/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'medialink config init')", defaultPath)
	}
	if c.TMDB.Concurrency < 1 {
		return errors.New("tmdb.concurrency must be at least 1")
	}
	if c.TMDB.Language != "" {
		if _, err := language.Parse(c.TMDB.Language); err != nil {
			return fmt.Errorf("tmdb.language %q is not a valid language tag: %w", c.TMDB.Language, err)
		}
	}
	return nil
}

func (c *Config) validateLLM() error {
	if !c.LLM.Enabled {
		return nil
	}
	if c.LLM.APIKey == "" {
		return errors.New("llm.api_key is required when llm.enabled is true. Set LLM_API_KEY env var or disable with ENABLE_LLM=false")
	}
	if c.LLM.TimeoutSeconds < 1 {
		return errors.New("llm.timeout_seconds must be at least 1")
	}
	return nil
}
