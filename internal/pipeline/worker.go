package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"medialink/internal/logging"
	"medialink/internal/media"
	"medialink/internal/organizer"
	"medialink/internal/services"
	"medialink/internal/services/tmdb"
)

// process runs the full pipeline for one queued file: claim, analyse,
// match, generate the destination path, and hard link. Exactly one
// terminal transition is persisted per claim, even on panic or
// cancellation.
func (m *Manager) process(ctx context.Context, fileID int64, logger *slog.Logger) {
	if err := m.store.Claim(ctx, fileID); err != nil {
		if errors.Is(err, media.ErrStaleTransition) {
			logger.Debug("file already claimed or no longer pending", logging.Int64(logging.FieldFileID, fileID))
			return
		}
		logger.Error("claim failed", logging.Int64(logging.FieldFileID, fileID), logging.Error(err))
		return
	}

	ctx = services.WithFileID(ctx, fileID)
	logger = logger.With(logging.Int64(logging.FieldFileID, fileID))

	var outcome media.Outcome
	defer func() {
		if r := recover(); r != nil {
			logger.Error("worker panic", logging.Any("panic", r))
			err := services.NewError(services.KindInternal, "pipeline", fmt.Sprintf("panic: %v", r))
			m.finalize(context.WithoutCancel(ctx), fileID, outcome, err, logger)
		}
	}()

	err := m.runStages(ctx, fileID, &outcome, logger)
	m.finalize(context.WithoutCancel(ctx), fileID, outcome, err, logger)
}

func (m *Manager) runStages(ctx context.Context, fileID int64, outcome *media.Outcome, logger *slog.Logger) error {
	file, err := m.store.GetByID(ctx, fileID)
	if err != nil {
		return services.WrapError(services.KindInternal, "pipeline", "load file", err)
	}
	if file == nil {
		return services.NewError(services.KindInternal, "pipeline", fmt.Sprintf("file %d vanished from the store", fileID))
	}

	guess, err := m.analyzer.Analyze(services.WithStage(ctx, "analyse"), file.OriginalFilename)
	if err != nil {
		return err
	}
	if encoded, marshalErr := json.Marshal(guess); marshalErr == nil {
		outcome.LLMGuessJSON = string(encoded)
	}
	logger.Info("filename analysed",
		logging.String("title", guess.Title),
		logging.String("type", string(guess.Type)),
		logging.Int("year", guess.Year))

	match, err := m.matcher.Search(services.WithStage(ctx, "match"), tmdb.Query{
		Title: guess.Title,
		Year:  guess.Year,
		Type:  guess.Type,
	})
	if err != nil {
		return err
	}
	outcome.TMDBID = match.TMDBID
	outcome.MediaType = match.Type
	if encoded, marshalErr := json.Marshal(match); marshalErr == nil {
		outcome.ProcessedJSON = string(encoded)
	}
	logger.Info("catalogue match",
		logging.Int64("tmdb_id", match.TMDBID),
		logging.String("title", match.Title),
		logging.String("type", string(match.Type)))

	destination, err := organizer.GeneratePath(m.targetDir, organizer.PathRequest{
		Type:      match.Type,
		Title:     match.Title,
		Year:      match.Year,
		Season:    guess.Season,
		Episode:   guess.Episode,
		Extension: filepath.Ext(file.OriginalFilepath),
	})
	if err != nil {
		return services.WrapError(services.KindPathInsufficient, "generate path", "cannot build destination", err)
	}
	outcome.NewFilepath = destination

	result, linkErr := organizer.Link(file.OriginalFilepath, destination)
	switch result {
	case organizer.LinkSuccess:
		logger.Info("linked into library", logging.String("destination", destination))
		return nil
	case organizer.LinkConflict:
		return services.NewError(services.KindLinkConflict, "link", "destination already exists: "+destination)
	case organizer.LinkCrossDevice:
		return services.WrapError(services.KindLinkCrossDevice, "link", "source and library are on different filesystems", linkErr)
	case organizer.LinkNoSource:
		return services.NewError(services.KindLinkMissingSource, "link", "source file disappeared: "+file.OriginalFilepath)
	default:
		return services.WrapError(services.KindLinkUnknown, "link", "hard link failed", linkErr)
	}
}

// finalize persists the single terminal transition for this claim. The
// passed context must survive daemon shutdown so the row never sticks in
// processing.
func (m *Manager) finalize(ctx context.Context, fileID int64, outcome media.Outcome, err error, logger *slog.Logger) {
	var persistErr error
	switch {
	case err == nil:
		persistErr = m.store.MarkCompleted(ctx, fileID, outcome)
	default:
		message := err.Error()
		if services.KindOf(err) == services.KindCancelled {
			message = "[cancelled] processing interrupted"
		}
		switch services.FailureStatus(err) {
		case media.StatusNoMatch:
			persistErr = m.store.MarkNoMatch(ctx, fileID, message, outcome)
		case media.StatusConflict:
			persistErr = m.store.MarkConflict(ctx, fileID, message, outcome)
		default:
			persistErr = m.store.MarkFailed(ctx, fileID, message, outcome)
		}
		logger.Warn("processing ended without a link",
			logging.String("status", string(services.FailureStatus(err))),
			logging.String("reason", message))
	}

	if persistErr != nil && !errors.Is(persistErr, media.ErrStaleTransition) {
		logger.Error("persist terminal status", logging.Error(persistErr))
	}
}
