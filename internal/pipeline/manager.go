package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"medialink/internal/config"
	"medialink/internal/logging"
	"medialink/internal/media"
	"medialink/internal/services/llm"
	"medialink/internal/services/tmdb"
)

// Analyzer identifies media from a filename.
type Analyzer interface {
	Analyze(ctx context.Context, filename string) (llm.Guess, error)
}

// Matcher resolves an analysed guess to a catalogue entry.
type Matcher interface {
	Search(ctx context.Context, query tmdb.Query) (tmdb.Match, error)
}

// Manager owns the dispatch queue and the fixed worker pool that drains it.
// The queue is bounded; producers block when it fills, which throttles
// scanning to the pace of processing. Shutdown does not drain the queue:
// undispatched ids are dropped with the process, and their rows remain
// pending in the store to be re-enqueued on the next start.
type Manager struct {
	store     *media.Store
	analyzer  Analyzer
	matcher   Matcher
	targetDir string
	workers   int
	queue     chan int64
	logger    *slog.Logger

	wg      sync.WaitGroup
	startMu sync.Mutex
	started bool
}

// NewManager builds the pipeline from configuration and its collaborators.
func NewManager(cfg *config.Config, store *media.Store, analyzer Analyzer, matcher Matcher, logger *slog.Logger) *Manager {
	workers := cfg.Workers.Count
	if workers < 1 {
		workers = 1
	}
	capacity := cfg.Workers.QueueCapacity
	if capacity < workers {
		capacity = workers
	}
	return &Manager{
		store:     store,
		analyzer:  analyzer,
		matcher:   matcher,
		targetDir: cfg.Paths.TargetDir,
		workers:   workers,
		queue:     make(chan int64, capacity),
		logger:    logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Enqueue offers a file to the worker pool, blocking while the queue is
// full. Returns the context error if the caller is cancelled while waiting.
func (m *Manager) Enqueue(ctx context.Context, fileID int64) error {
	select {
	case m.queue <- fileID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// QueueDepth reports how many files are waiting for a worker.
func (m *Manager) QueueDepth() int {
	return len(m.queue)
}

// Start launches the worker pool. Workers run until the context is
// cancelled; starting twice is a no-op.
func (m *Manager) Start(ctx context.Context) {
	m.startMu.Lock()
	defer m.startMu.Unlock()
	if m.started {
		return
	}
	m.started = true

	m.logger.Info("starting workers", logging.Int("count", m.workers))
	for i := 0; i < m.workers; i++ {
		m.wg.Add(1)
		go func(worker int) {
			defer m.wg.Done()
			m.run(ctx, worker)
		}(i + 1)
	}
}

// Wait blocks until every worker has exited.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context, worker int) {
	logger := m.logger.With(logging.Int("worker", worker))
	for {
		select {
		case <-ctx.Done():
			return
		case fileID := <-m.queue:
			m.process(ctx, fileID, logger)
		}
	}
}
