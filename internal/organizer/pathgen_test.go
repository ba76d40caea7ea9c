package organizer

import (
	"path/filepath"
	"testing"

	"medialink/internal/media"
)

func TestGeneratePathMovie(t *testing.T) {
	got, err := GeneratePath("/library", PathRequest{
		Type:      media.TypeMovie,
		Title:     "The Matrix",
		Year:      1999,
		Extension: ".mkv",
	})
	if err != nil {
		t.Fatalf("GeneratePath: %v", err)
	}
	want := filepath.Join("/library", "Movies", "The Matrix (1999)", "The Matrix (1999).mkv")
	if got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}
}

func TestGeneratePathMovieWithoutYear(t *testing.T) {
	got, err := GeneratePath("/library", PathRequest{
		Type:      media.TypeMovie,
		Title:     "Primer",
		Extension: ".mp4",
	})
	if err != nil {
		t.Fatalf("GeneratePath: %v", err)
	}
	want := filepath.Join("/library", "Movies", "Primer", "Primer.mp4")
	if got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}
}

func TestGeneratePathTV(t *testing.T) {
	got, err := GeneratePath("/library", PathRequest{
		Type:      media.TypeTV,
		Title:     "Severance",
		Year:      2022,
		Season:    2,
		Episode:   4,
		Extension: ".mkv",
	})
	if err != nil {
		t.Fatalf("GeneratePath: %v", err)
	}
	want := filepath.Join("/library", "TV", "Severance (2022)", "Season 02", "Severance - S02E04.mkv")
	if got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}
}

func TestGeneratePathTVDefaultsSeasonOne(t *testing.T) {
	got, err := GeneratePath("/library", PathRequest{
		Type:      media.TypeTV,
		Title:     "Fleabag",
		Year:      2016,
		Episode:   3,
		Extension: ".mkv",
	})
	if err != nil {
		t.Fatalf("GeneratePath: %v", err)
	}
	want := filepath.Join("/library", "TV", "Fleabag (2016)", "Season 01", "Fleabag - S01E03.mkv")
	if got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}
}

func TestGeneratePathTVMissingEpisode(t *testing.T) {
	_, err := GeneratePath("/library", PathRequest{
		Type:    media.TypeTV,
		Title:   "Fleabag",
		Year:    2016,
		Season:  1,
		Episode: 0,
	})
	if err != ErrMissingEpisode {
		t.Fatalf("err = %v, want ErrMissingEpisode", err)
	}
}

func TestGeneratePathIsDeterministic(t *testing.T) {
	req := PathRequest{Type: media.TypeMovie, Title: "Heat", Year: 1995, Extension: ".mkv"}
	first, err := GeneratePath("/library", req)
	if err != nil {
		t.Fatalf("GeneratePath: %v", err)
	}
	second, err := GeneratePath("/library", req)
	if err != nil {
		t.Fatalf("GeneratePath: %v", err)
	}
	if first != second {
		t.Fatalf("paths differ: %q vs %q", first, second)
	}
}

func TestSanitizeTitle(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"forbidden characters", `Mission: Impossible * "Fallout"?`, "Mission Impossible Fallout"},
		{"slashes", `AC/DC\Live`, "ACDCLive"},
		{"leading trailing dots", "..Alien.", "Alien"},
		{"collapse whitespace", "The   Thing\t ", "The Thing"},
		{"empty after strip", `..""..`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeTitle(tc.input); got != tc.want {
				t.Fatalf("SanitizeTitle(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
