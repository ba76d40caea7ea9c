package llm

import (
	"testing"

	"medialink/internal/media"
)

func TestParseGuessPlainObject(t *testing.T) {
	guess, err := parseGuess(`{"title": "Heat", "year": 1995, "type": "movie"}`)
	if err != nil {
		t.Fatalf("parseGuess: %v", err)
	}
	if guess.Title != "Heat" || guess.Year != 1995 || guess.Type != media.TypeMovie {
		t.Fatalf("guess = %+v", guess)
	}
}

func TestParseGuessWrappedInProse(t *testing.T) {
	response := "Sure! Here is the identification:\n```json\n" +
		`{"title": "Fleabag", "year": 2016, "type": "tv", "season": 1, "episode": 3}` +
		"\n```\nLet me know if you need anything else."
	guess, err := parseGuess(response)
	if err != nil {
		t.Fatalf("parseGuess: %v", err)
	}
	if guess.Type != media.TypeTV || guess.Season != 1 || guess.Episode != 3 {
		t.Fatalf("guess = %+v", guess)
	}
}

func TestParseGuessBracesInsideStrings(t *testing.T) {
	guess, err := parseGuess(`{"title": "What If {Not Really}", "type": "movie", "year": null}`)
	if err != nil {
		t.Fatalf("parseGuess: %v", err)
	}
	if guess.Title != "What If {Not Really}" {
		t.Fatalf("title = %q", guess.Title)
	}
}

func TestParseGuessUnknownTypeDefaultsToMovie(t *testing.T) {
	guess, err := parseGuess(`{"title": "Heat", "type": "documentary"}`)
	if err != nil {
		t.Fatalf("parseGuess: %v", err)
	}
	if guess.Type != media.TypeMovie {
		t.Fatalf("type = %q", guess.Type)
	}
}

func TestParseGuessRejectsMissingTitle(t *testing.T) {
	if _, err := parseGuess(`{"type": "movie", "year": 2001}`); err == nil {
		t.Fatal("expected error for missing title")
	}
}

func TestParseGuessRejectsNonJSON(t *testing.T) {
	if _, err := parseGuess("I could not identify that file."); err == nil {
		t.Fatal("expected error for prose-only response")
	}
}
