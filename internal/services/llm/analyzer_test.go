package llm

import (
	"context"
	"testing"
	"time"

	"medialink/internal/config"
	"medialink/internal/logging"
	"medialink/internal/media"
	"medialink/internal/services"
)

type stubCompleter struct {
	responses []string
	errs      []error
	calls     int
}

func (s *stubCompleter) Complete(context.Context, string, string) (string, error) {
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var response string
	if i < len(s.responses) {
		response = s.responses[i]
	}
	return response, err
}

func newTestAnalyzer(t *testing.T, client completer) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(config.LLM{Enabled: false, CacheSize: 8}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	if client != nil {
		a.enabled = true
		a.client = client
		a.policy.Sleep = func(context.Context, time.Duration) error { return nil }
	}
	return a
}

func TestAnalyzeParsesModelResponse(t *testing.T) {
	client := &stubCompleter{responses: []string{
		`Here you go: {"title": "The Matrix", "year": 1999, "type": "movie"}`,
	}}
	a := newTestAnalyzer(t, client)

	guess, err := a.Analyze(context.Background(), "The.Matrix.1999.1080p.mkv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if guess.Title != "The Matrix" || guess.Year != 1999 || guess.Type != media.TypeMovie {
		t.Fatalf("guess = %+v", guess)
	}
}

func TestAnalyzeCachesByFilename(t *testing.T) {
	client := &stubCompleter{responses: []string{
		`{"title": "Severance", "year": 2022, "type": "tv", "season": 1, "episode": 2}`,
	}}
	a := newTestAnalyzer(t, client)

	first, err := a.Analyze(context.Background(), "/a/Severance.S01E02.mkv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	second, err := a.Analyze(context.Background(), "/b/Severance.S01E02.mkv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("client called %d times, want 1", client.calls)
	}
	if first != second {
		t.Fatalf("cached guess differs: %+v vs %+v", first, second)
	}
}

func TestAnalyzeRetriesTransientFailures(t *testing.T) {
	client := &stubCompleter{
		errs: []error{
			services.NewError(services.KindAnalyserTransient, "llm complete", "status 503"),
			nil,
		},
		responses: []string{
			"",
			`{"title": "Heat", "year": 1995, "type": "movie"}`,
		},
	}
	a := newTestAnalyzer(t, client)

	guess, err := a.Analyze(context.Background(), "Heat.1995.mkv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if client.calls != 2 {
		t.Fatalf("client called %d times, want 2", client.calls)
	}
	if guess.Title != "Heat" {
		t.Fatalf("guess = %+v", guess)
	}
}

func TestAnalyzeStopsOnPermanentFailure(t *testing.T) {
	client := &stubCompleter{
		errs: []error{services.NewError(services.KindAnalyserPermanent, "llm complete", "status 401")},
	}
	a := newTestAnalyzer(t, client)

	_, err := a.Analyze(context.Background(), "Heat.1995.mkv")
	if err == nil {
		t.Fatal("expected error")
	}
	if client.calls != 1 {
		t.Fatalf("client called %d times, want 1", client.calls)
	}
	if services.KindOf(err) != services.KindAnalyserPermanent {
		t.Fatalf("kind = %q", services.KindOf(err))
	}
}

func TestAnalyzeSupplementsEpisodeTag(t *testing.T) {
	client := &stubCompleter{responses: []string{
		`{"title": "Severance", "year": 2022, "type": "movie"}`,
	}}
	a := newTestAnalyzer(t, client)

	guess, err := a.Analyze(context.Background(), "Severance.2022.S02E04.mkv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if guess.Type != media.TypeTV || guess.Season != 2 || guess.Episode != 4 {
		t.Fatalf("guess = %+v", guess)
	}
}

func TestFallbackGuessMovie(t *testing.T) {
	guess := fallbackGuess("the.matrix.1999.1080p.x264-GRP.mkv")
	if guess.Type != media.TypeMovie {
		t.Fatalf("type = %q", guess.Type)
	}
	if guess.Title != "The Matrix" {
		t.Fatalf("title = %q", guess.Title)
	}
	if guess.Year != 1999 {
		t.Fatalf("year = %d", guess.Year)
	}
}

func TestFallbackGuessEpisode(t *testing.T) {
	guess := fallbackGuess("severance.s01e02.720p.mkv")
	if guess.Type != media.TypeTV {
		t.Fatalf("type = %q", guess.Type)
	}
	if guess.Title != "Severance" || guess.Season != 1 || guess.Episode != 2 {
		t.Fatalf("guess = %+v", guess)
	}
}

func TestFallbackGuessUsedWhenDisabled(t *testing.T) {
	a := newTestAnalyzer(t, nil)

	guess, err := a.Analyze(context.Background(), "Primer.2004.mkv")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if guess.Title != "Primer" || guess.Year != 2004 {
		t.Fatalf("guess = %+v", guess)
	}
}
