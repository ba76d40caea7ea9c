package llm

import (
	"encoding/json"
	"strings"

	"medialink/internal/media"
	"medialink/internal/services"
)

type rawGuess struct {
	Title   string `json:"title"`
	Year    *int   `json:"year"`
	Type    string `json:"type"`
	Season  *int   `json:"season"`
	Episode *int   `json:"episode"`
}

// parseGuess extracts the first JSON object from a model response and
// normalizes it into a Guess. Models occasionally wrap the object in prose
// or markdown fences, so the parser scans for balanced braces instead of
// decoding the whole body.
func parseGuess(response string) (Guess, error) {
	const op = "llm parse"

	object, ok := extractJSONObject(response)
	if !ok {
		return Guess{}, services.NewError(services.KindAnalyserPermanent, op, "response contains no JSON object")
	}

	var raw rawGuess
	if err := json.Unmarshal([]byte(object), &raw); err != nil {
		return Guess{}, services.WrapError(services.KindAnalyserPermanent, op, "malformed JSON object", err)
	}

	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return Guess{}, services.NewError(services.KindAnalyserPermanent, op, "response has no title")
	}

	guess := Guess{Title: title, Type: media.TypeMovie}
	switch strings.ToLower(strings.TrimSpace(raw.Type)) {
	case "tv", "show", "series", "episode":
		guess.Type = media.TypeTV
	}
	if raw.Year != nil && *raw.Year > 0 {
		guess.Year = *raw.Year
	}
	if raw.Season != nil && *raw.Season > 0 {
		guess.Season = *raw.Season
	}
	if raw.Episode != nil && *raw.Episode > 0 {
		guess.Episode = *raw.Episode
	}
	return guess, nil
}

// extractJSONObject returns the first balanced top-level JSON object in
// text, honouring braces inside string literals.
func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
