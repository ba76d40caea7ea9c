package llm

import "fmt"

const systemPrompt = `You identify movies and TV episodes from raw media filenames.
Respond with a single JSON object and nothing else. Fields:
  "title":   cleaned human-readable title (string, required)
  "year":    release year (integer, or null when unknown)
  "type":    "movie" or "tv" (string, required)
  "season":  season number (integer, TV only, or null)
  "episode": episode number (integer, TV only, or null)
Ignore release-group tags, resolution markers, and codec names.`

func buildPrompt(filename string) string {
	return fmt.Sprintf("Identify this media filename: %q", filename)
}
