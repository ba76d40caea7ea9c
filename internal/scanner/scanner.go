package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"medialink/internal/config"
	"medialink/internal/logging"
	"medialink/internal/media"
)

// Enqueuer hands discovered file IDs to the processing pipeline. Enqueue
// blocks while the queue is full and returns the context error when the
// caller is cancelled.
type Enqueuer interface {
	Enqueue(ctx context.Context, fileID int64) error
}

// Scanner periodically probes the source directory, registers new files in
// the store, and feeds pending work to the pipeline.
type Scanner struct {
	cfg    *config.Config
	store  *media.Store
	queue  Enqueuer
	logger *slog.Logger
}

// New creates a scanner bound to the given store and pipeline queue.
func New(cfg *config.Config, store *media.Store, queue Enqueuer, logger *slog.Logger) *Scanner {
	return &Scanner{
		cfg:    cfg,
		store:  store,
		queue:  queue,
		logger: logging.NewComponentLogger(logger, "scanner"),
	}
}

// Run performs an immediate scan and then repeats on the configured
// interval until the context is cancelled. Before the first scan it
// re-enqueues files left pending by a previous run.
func (s *Scanner) Run(ctx context.Context) error {
	if err := s.resumePending(ctx); err != nil {
		return err
	}

	interval := time.Duration(s.cfg.Scanner.IntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.ScanOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("scan failed", logging.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ScanOnce walks the source directory a single time, registering any new
// files and enqueueing everything that is still pending.
func (s *Scanner) ScanOnce(ctx context.Context) error {
	scanID := uuid.NewString()
	logger := s.logger.With(logging.String("scan_id", scanID))
	started := time.Now()

	opts := walkOptions{
		root:           s.cfg.Paths.SourceDir,
		extensions:     s.cfg.ExtensionSet(),
		minSizeBytes:   s.cfg.MinFileSizeBytes(),
		followSymlinks: s.cfg.Scanner.FollowSymlinks,
	}
	if s.cfg.Scanner.ExcludeTargetDir {
		opts.excludedSubdir = s.cfg.Paths.TargetDir
	}

	candidates, err := walkSource(opts, logger)
	if err != nil {
		return fmt.Errorf("scan source directory: %w", err)
	}

	var registered, enqueued int
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		file, isNew, err := s.store.RegisterIfNew(ctx, candidate.Path, candidate.DeviceID, candidate.Inode, uint64(candidate.Size))
		if err != nil {
			logger.Error("register file", logging.String("path", candidate.Path), logging.Error(err))
			continue
		}
		if isNew {
			registered++
			logger.Info("discovered new file",
				logging.Int64(logging.FieldFileID, file.ID),
				logging.String("path", candidate.Path),
				logging.Int64("size", candidate.Size))
		}
		if file.Status != media.StatusPending {
			continue
		}
		if err := s.queue.Enqueue(ctx, file.ID); err != nil {
			return fmt.Errorf("enqueue file %d: %w", file.ID, err)
		}
		enqueued++
	}

	logger.Info("scan complete",
		logging.Int("candidates", len(candidates)),
		logging.Int("registered", registered),
		logging.Int("enqueued", enqueued),
		logging.Duration("elapsed", time.Since(started)))
	return nil
}

// resumePending feeds files that were pending at shutdown back into the
// queue so an interrupted run picks up where it left off.
func (s *Scanner) resumePending(ctx context.Context) error {
	ids, err := s.store.IDsByStatus(ctx, media.StatusPending)
	if err != nil {
		return fmt.Errorf("load pending files: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	s.logger.Info("resuming pending files", logging.Int("count", len(ids)))
	for _, id := range ids {
		if err := s.queue.Enqueue(ctx, id); err != nil {
			return fmt.Errorf("enqueue file %d: %w", id, err)
		}
	}
	return nil
}
