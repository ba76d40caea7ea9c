package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"medialink/internal/config"
	"medialink/internal/logging"
	"medialink/internal/media"
	"medialink/internal/pipeline"
	"medialink/internal/scanner"
	"medialink/internal/services/llm"
	"medialink/internal/services/tmdb"
)

// ErrAlreadyRunning reports that another daemon holds the instance lock.
var ErrAlreadyRunning = errors.New("another medialink instance is already running")

// Daemon wires the store, scanner, worker pool, and admin API into one
// process with ordered startup and shutdown.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	lock    *flock.Flock
	store   *media.Store
	manager *pipeline.Manager
	scanner *scanner.Scanner
	api     *APIServer
}

// New acquires the single-instance lock and constructs every component.
// The caller owns the daemon and must call Close after Run returns.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(cfg.Paths.LogDir, "medialink.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return nil, ErrAlreadyRunning
	}

	store, err := media.Open(cfg)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	analyzer, err := llm.NewAnalyzer(cfg.LLM, logger)
	if err != nil {
		_ = store.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("build analyser: %w", err)
	}
	searcher := tmdb.NewSearcher(cfg.TMDB, logger)

	manager := pipeline.NewManager(cfg, store, analyzer, searcher, logger)

	d := &Daemon{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "daemon"),
		lock:    lock,
		store:   store,
		manager: manager,
		scanner: scanner.New(cfg, store, manager, logger),
	}
	if cfg.Paths.APIBind != "" {
		d.api = NewAPIServer(cfg.Paths.APIBind, store, manager, logger)
	}
	return d, nil
}

// Run starts every component and blocks until the context is cancelled or
// a component fails. Shutdown order is scanner, workers, API, store.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info("starting",
		logging.String("source_dir", d.cfg.Paths.SourceDir),
		logging.String("target_dir", d.cfg.Paths.TargetDir),
		logging.Int("workers", d.cfg.Workers.Count))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var apiErrs <-chan error
	if d.api != nil {
		var err error
		apiErrs, err = d.api.Start()
		if err != nil {
			return fmt.Errorf("start api: %w", err)
		}
	}

	d.manager.Start(ctx)

	scanDone := make(chan error, 1)
	go func() {
		scanDone <- d.scanner.Run(ctx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-scanDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			runErr = fmt.Errorf("scanner: %w", err)
		}
	case err := <-apiErrs:
		if err != nil {
			runErr = fmt.Errorf("api: %w", err)
		}
	}

	d.logger.Info("shutting down")
	cancel()
	d.manager.Wait()

	if d.api != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := d.api.Shutdown(shutdownCtx); err != nil {
			d.logger.Warn("api shutdown", logging.Error(err))
		}
	}

	return runErr
}

// Close releases the store and the instance lock.
func (d *Daemon) Close() error {
	var firstErr error
	if err := d.store.Close(); err != nil {
		firstErr = err
	}
	if err := d.lock.Unlock(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
