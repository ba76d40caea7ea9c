package llm

import (
	"context"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"medialink/internal/config"
	"medialink/internal/logging"
	"medialink/internal/media"
	"medialink/internal/services"
)

// Guess is the analyser's structured interpretation of a filename.
type Guess struct {
	Title   string          `json:"title"`
	Year    int             `json:"year,omitempty"`
	Type    media.MediaType `json:"type"`
	Season  int             `json:"season,omitempty"`
	Episode int             `json:"episode,omitempty"`
}

// completer abstracts the chat endpoint so tests can stub responses.
type completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Analyzer turns filenames into media guesses, caching results per
// normalized filename so rescans and retries skip the network.
type Analyzer struct {
	client  completer
	cache   *lru.Cache[string, Guess]
	policy  services.RetryPolicy
	enabled bool
	logger  *slog.Logger
}

// NewAnalyzer wires the analyser from configuration. When the analyser is
// disabled it still answers every request using filename heuristics.
func NewAnalyzer(cfg config.LLM, logger *slog.Logger) (*Analyzer, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = 128
	}
	cache, err := lru.New[string, Guess](size)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		cache:   cache,
		policy:  services.DefaultRetryPolicy(),
		enabled: cfg.Enabled,
		logger:  logging.NewComponentLogger(logger, "llm"),
	}
	if cfg.Enabled {
		a.client = NewClient(cfg)
	}
	return a, nil
}

// Analyze identifies the media referenced by filename. Identical filenames
// always produce identical guesses within a process lifetime.
func (a *Analyzer) Analyze(ctx context.Context, filename string) (Guess, error) {
	key := cacheKey(filename)
	if guess, ok := a.cache.Get(key); ok {
		return guess, nil
	}

	guess, err := a.analyze(ctx, filename)
	if err != nil {
		return Guess{}, err
	}
	guess = supplementEpisodeTag(filename, guess)
	a.cache.Add(key, guess)
	return guess, nil
}

func (a *Analyzer) analyze(ctx context.Context, filename string) (Guess, error) {
	if !a.enabled || a.client == nil {
		return fallbackGuess(filename), nil
	}

	var guess Guess
	err := services.Retry(ctx, a.policy, services.Retryable, func(ctx context.Context) error {
		response, err := a.client.Complete(ctx, systemPrompt, buildPrompt(filename))
		if err != nil {
			return err
		}
		parsed, err := parseGuess(response)
		if err != nil {
			return err
		}
		guess = parsed
		return nil
	})
	if err != nil {
		return Guess{}, err
	}

	a.logger.Debug("filename analysed",
		logging.String("filename", filename),
		logging.String("title", guess.Title),
		logging.String("type", string(guess.Type)))
	return guess, nil
}

var (
	episodeTagPattern = regexp.MustCompile(`(?i)\bS(\d{1,2})[ ._-]?E(\d{1,3})\b`)
	yearPattern       = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	junkTokenPattern  = regexp.MustCompile(`(?i)\b(480p|720p|1080p|2160p|4k|x264|x265|h264|h265|hevc|avc|bluray|blu-ray|brrip|bdrip|webrip|web-dl|webdl|hdtv|dvdrip|remux|proper|repack|extended|unrated|aac|ac3|dts|atmos|hdr|dv|10bit)\b`)
)

// supplementEpisodeTag fills season and episode from an SxxEyy tag in the
// filename when the guess left them out, correcting the type to TV.
func supplementEpisodeTag(filename string, guess Guess) Guess {
	if guess.Type == media.TypeTV && guess.Episode > 0 {
		return guess
	}
	match := episodeTagPattern.FindStringSubmatch(filename)
	if match == nil {
		return guess
	}
	guess.Type = media.TypeTV
	if guess.Season <= 0 {
		guess.Season, _ = strconv.Atoi(match[1])
	}
	if guess.Episode <= 0 {
		guess.Episode, _ = strconv.Atoi(match[2])
	}
	return guess
}

var titleCaser = cases.Title(language.English)

// fallbackGuess derives a guess from the filename alone: separators become
// spaces, a plausible year is captured, release tags are dropped, and the
// remainder is title-cased.
func fallbackGuess(filename string) Guess {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	cleaned := strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(stem)

	guess := Guess{Type: media.TypeMovie}
	if match := yearPattern.FindStringSubmatchIndex(cleaned); match != nil {
		guess.Year, _ = strconv.Atoi(cleaned[match[2]:match[3]])
		// Everything after the year is almost always release junk.
		cleaned = cleaned[:match[2]]
	}

	if match := episodeTagPattern.FindStringSubmatchIndex(cleaned); match != nil {
		guess.Type = media.TypeTV
		guess.Season, _ = strconv.Atoi(cleaned[match[2]:match[3]])
		guess.Episode, _ = strconv.Atoi(cleaned[match[4]:match[5]])
		cleaned = cleaned[:match[0]]
	}

	cleaned = junkTokenPattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	guess.Title = titleCaser.String(strings.ToLower(cleaned))
	if guess.Title == "" {
		guess.Title = stem
	}
	return guess
}

// cacheKey case-folds and whitespace-collapses the basename so trivially
// different spellings share an entry.
func cacheKey(filename string) string {
	folded := strings.ToLower(filepath.Base(filename))
	return strings.Join(strings.Fields(folded), " ")
}
