// Package scanner discovers media files in the source directory and
// registers them for processing.
package scanner
