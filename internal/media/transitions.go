package media

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrStaleTransition reports that a guarded status transition matched no
// row: another worker already claimed the file, or the row left the
// expected state before the update ran. Callers treat this as "someone
// else acted" and move on.
var ErrStaleTransition = errors.New("stale status transition")

// Outcome carries the result fields persisted together with a terminal
// transition. Zero values are stored as NULL.
type Outcome struct {
	LLMGuessJSON  string
	ProcessedJSON string
	TMDBID        int64
	MediaType     MediaType
	NewFilepath   string
}

// Claim atomically moves a pending file into processing. Only the caller
// that flips the row may run the pipeline; everyone else observes
// ErrStaleTransition. The retry counter is bumped on every claim after the
// first, which is detected through the claimed_at marker.
func (s *Store) Claim(ctx context.Context, id int64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE media_files
         SET status = ?,
             retry_count = retry_count + (CASE WHEN claimed_at IS NULL THEN 0 ELSE 1 END),
             claimed_at = ?,
             error_message = NULL,
             updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusProcessing,
		now,
		now,
		id,
		StatusPending,
	)
	if err != nil {
		return fmt.Errorf("claim media file %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrStaleTransition
	}
	return nil
}

// MarkCompleted finishes a processing attempt successfully. The link must
// already exist at outcome.NewFilepath; the destination, catalogue id, and
// media type are required and written in the same mutation as the status.
func (s *Store) MarkCompleted(ctx context.Context, id int64, outcome Outcome) error {
	if outcome.NewFilepath == "" {
		return errors.New("completed transition requires new_filepath")
	}
	if outcome.TMDBID == 0 {
		return errors.New("completed transition requires tmdb_id")
	}
	if outcome.MediaType == "" {
		return errors.New("completed transition requires media_type")
	}
	return s.finishProcessing(ctx, id, StatusCompleted, "", outcome)
}

// MarkNoMatch records that the catalogue returned no results for either
// media type.
func (s *Store) MarkNoMatch(ctx context.Context, id int64, message string, outcome Outcome) error {
	return s.finishProcessing(ctx, id, StatusNoMatch, message, outcome)
}

// MarkConflict records that the destination already existed at link time.
func (s *Store) MarkConflict(ctx context.Context, id int64, message string, outcome Outcome) error {
	if outcome.NewFilepath == "" {
		return errors.New("conflict transition requires new_filepath")
	}
	if message == "" {
		return errors.New("conflict transition requires an error message")
	}
	return s.finishProcessing(ctx, id, StatusConflict, message, outcome)
}

// MarkFailed ends the processing attempt with a diagnostic. Partial result
// fields gathered before the failure are kept for inspection.
func (s *Store) MarkFailed(ctx context.Context, id int64, message string, outcome Outcome) error {
	if message == "" {
		return errors.New("failed transition requires an error message")
	}
	return s.finishProcessing(ctx, id, StatusFailed, message, outcome)
}

// Retry moves a terminal non-success file back to pending. The retry
// counter is preserved; it is bumped again on the next claim. Returns
// ErrStaleTransition when the row is not in a retryable state (retrying a
// completed row is a guarded no-op).
func (s *Store) Retry(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE media_files
         SET status = ?, error_message = NULL, updated_at = ?
         WHERE id = ? AND status IN (?, ?, ?)`,
		StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusFailed,
		StatusNoMatch,
		StatusConflict,
	)
	if err != nil {
		return fmt.Errorf("retry media file %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrStaleTransition
	}
	return nil
}

// finishProcessing performs the single guarded terminal update for a
// processing attempt. The guard on the current status makes the transition
// atomic: no other work happens between the read and the write of the row.
func (s *Store) finishProcessing(ctx context.Context, id int64, to Status, message string, outcome Outcome) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE media_files
         SET status = ?,
             error_message = ?,
             llm_guess_json = COALESCE(?, llm_guess_json),
             processed_json = COALESCE(?, processed_json),
             tmdb_id = COALESCE(?, tmdb_id),
             media_type = COALESCE(?, media_type),
             new_filepath = COALESCE(?, new_filepath),
             updated_at = ?
         WHERE id = ? AND status = ?`,
		to,
		nullableString(message),
		nullableString(outcome.LLMGuessJSON),
		nullableString(outcome.ProcessedJSON),
		nullableInt64(outcome.TMDBID),
		nullableString(string(outcome.MediaType)),
		nullableString(outcome.NewFilepath),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("transition media file %d to %s: %w", id, to, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrStaleTransition
	}
	return nil
}
