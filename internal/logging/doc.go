// Package logging wraps log/slog with medialink's handler setup, typed
// attribute helpers, and context-derived structured fields.
package logging
