// Package pipeline dispatches discovered files to a fixed worker pool that
// analyses, matches, and links them into the library.
package pipeline
