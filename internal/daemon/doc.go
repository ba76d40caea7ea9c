// Package daemon assembles the medialink components into a long-running
// process with a single-instance lock and an admin HTTP API.
package daemon
