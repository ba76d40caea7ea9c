package tmdb

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"medialink/internal/config"
	"medialink/internal/logging"
	"medialink/internal/media"
	"medialink/internal/services"
)

// Query describes what the searcher should look for.
type Query struct {
	Title string
	Year  int
	Type  media.MediaType
}

// Match is a confirmed catalogue entry for a query.
type Match struct {
	TMDBID int64
	Title  string
	Year   int
	Type   media.MediaType
}

// searchClient abstracts the HTTP client so tests can stub catalogue
// responses.
type searchClient interface {
	SearchMovie(ctx context.Context, title string, year int) ([]searchResult, error)
	SearchTV(ctx context.Context, title string, year int) ([]searchResult, error)
}

// Searcher resolves queries against the catalogue with a concurrency cap
// shared by all workers. Searches for the guessed type first and falls back
// to the opposite type before declaring no match.
type Searcher struct {
	client   searchClient
	sem      *semaphore.Weighted
	policy   services.RetryPolicy
	enabled  bool
	logger   *slog.Logger
	inFlight atomic.Int64
}

// NewSearcher wires the searcher from configuration.
func NewSearcher(cfg config.TMDB, logger *slog.Logger) *Searcher {
	limit := int64(cfg.Concurrency)
	if limit < 1 {
		limit = 1
	}
	s := &Searcher{
		sem:     semaphore.NewWeighted(limit),
		policy:  services.DefaultRetryPolicy(),
		enabled: cfg.Enabled,
		logger:  logging.NewComponentLogger(logger, "tmdb"),
	}
	if cfg.Enabled {
		s.client = NewClient(cfg)
	}
	return s
}

// InFlight reports how many catalogue searches are currently executing.
func (s *Searcher) InFlight() int64 {
	return s.inFlight.Load()
}

// Search resolves a query to its first catalogue result. Result order is
// the catalogue's relevance order, so the first entry wins. An exhausted
// search returns a no-match error rather than an empty Match.
func (s *Searcher) Search(ctx context.Context, query Query) (Match, error) {
	const op = "tmdb match"

	if !s.enabled || s.client == nil {
		return Match{}, services.NewError(services.KindNoMatch, op, "catalogue lookups are disabled")
	}
	if query.Title == "" {
		return Match{}, services.NewError(services.KindNoMatch, op, "empty title")
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return Match{}, err
	}
	s.inFlight.Add(1)
	defer func() {
		s.inFlight.Add(-1)
		s.sem.Release(1)
	}()

	primary := query.Type
	if primary != media.TypeMovie && primary != media.TypeTV {
		primary = media.TypeMovie
	}

	for _, mediaType := range []media.MediaType{primary, primary.Opposite()} {
		match, found, err := s.searchType(ctx, mediaType, query)
		if err != nil {
			return Match{}, err
		}
		if found {
			if mediaType != primary {
				s.logger.Info("matched under opposite type",
					logging.String("title", query.Title),
					logging.String("guessed_type", string(primary)),
					logging.String("matched_type", string(mediaType)))
			}
			return match, nil
		}
	}

	s.logger.Info("catalogue returned no results", logging.String("title", query.Title))
	return Match{}, services.NewError(services.KindNoMatch, op, "catalogue returned no results")
}

func (s *Searcher) searchType(ctx context.Context, mediaType media.MediaType, query Query) (Match, bool, error) {
	var results []searchResult
	err := services.Retry(ctx, s.policy, services.Retryable, func(ctx context.Context) error {
		var err error
		if mediaType == media.TypeTV {
			results, err = s.client.SearchTV(ctx, query.Title, query.Year)
		} else {
			results, err = s.client.SearchMovie(ctx, query.Title, query.Year)
		}
		return err
	})
	if err != nil {
		return Match{}, false, err
	}
	if len(results) == 0 {
		return Match{}, false, nil
	}

	first := results[0]
	match := Match{TMDBID: first.ID, Type: mediaType}
	if mediaType == media.TypeTV {
		match.Title = first.Name
		match.Year = yearOf(first.FirstAirDate)
	} else {
		match.Title = first.Title
		match.Year = yearOf(first.ReleaseDate)
	}
	if match.Title == "" {
		match.Title = query.Title
	}
	if match.Year == 0 {
		match.Year = query.Year
	}
	return match, true, nil
}

// yearOf extracts the year from a catalogue date string (YYYY-MM-DD).
func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
