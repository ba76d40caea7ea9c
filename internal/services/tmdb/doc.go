// Package tmdb resolves analysed filenames to catalogue entries via The
// Movie Database search API.
package tmdb
