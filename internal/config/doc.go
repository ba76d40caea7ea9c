// Package config loads, validates, and normalizes medialink configuration
// from a TOML file with environment variable overrides.
package config
