package organizer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"medialink/internal/media"
)

// ErrMissingEpisode reports a TV layout request without an episode number.
var ErrMissingEpisode = errors.New("tv layout requires an episode number")

// PathRequest carries the inputs for destination path generation.
type PathRequest struct {
	Type      media.MediaType
	Title     string
	Year      int
	Season    int
	Episode   int
	Extension string
}

// GeneratePath computes the canonical library destination for a matched
// file. It is a pure function: identical inputs always yield the same path.
//
// Movies: <root>/Movies/<Title> (<Year>)/<Title> (<Year>).<ext>
// TV:     <root>/TV/<Title> (<Year>)/Season <NN>/<Title> - S<NN>E<NN>.<ext>
//
// The year is omitted (with its parentheses) when unknown. A missing TV
// season defaults to 1; a missing episode is an error for the caller.
func GeneratePath(root string, req PathRequest) (string, error) {
	title := SanitizeTitle(req.Title)
	if title == "" {
		return "", errors.New("title is empty after sanitisation")
	}

	folder := title
	if req.Year > 0 {
		folder = fmt.Sprintf("%s (%d)", title, req.Year)
	}

	ext := strings.TrimSpace(req.Extension)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	switch req.Type {
	case media.TypeTV:
		if req.Episode <= 0 {
			return "", ErrMissingEpisode
		}
		season := req.Season
		if season <= 0 {
			season = 1
		}
		filename := fmt.Sprintf("%s - S%02dE%02d%s", title, season, req.Episode, ext)
		return filepath.Join(root, "TV", folder, fmt.Sprintf("Season %02d", season), filename), nil
	default:
		filename := folder + ext
		return filepath.Join(root, "Movies", folder, filename), nil
	}
}

// SanitizeTitle strips characters disallowed by common target filesystems,
// trims leading and trailing dots and whitespace, and collapses internal
// whitespace to single spaces.
func SanitizeTitle(title string) string {
	var builder strings.Builder
	builder.Grow(len(title))
	for _, r := range title {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			continue
		default:
			builder.WriteRune(r)
		}
	}
	collapsed := strings.Join(strings.Fields(builder.String()), " ")
	return strings.Trim(collapsed, ". \t")
}
