// Package services holds cross-cutting helpers shared by the external
// service clients: the pipeline error taxonomy, the retry policy for
// transient failures, and context keys for structured logging.
package services
