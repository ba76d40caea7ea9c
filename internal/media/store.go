package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"medialink/internal/config"
)

// Store manages media file persistence backed by SQLite. It is the identity
// registry and the only mutation path for rows; workers and the admin API
// never touch the database directly.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the media database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "medialink.db"))
}

// OpenPath opens a store at an explicit database path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// RegisterIfNew inserts a media file keyed on (device_id, inode) and reports
// whether the row was created. Registration is idempotent under concurrent
// scans: on conflict the existing row is returned with wasNew=false.
func (s *Store) RegisterIfNew(ctx context.Context, path string, deviceID, inode, size uint64) (*File, bool, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO media_files (
            device_id, inode, original_filepath, original_filename,
            file_size, status, retry_count, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)
        ON CONFLICT (device_id, inode) DO NOTHING`,
		int64(deviceID),
		int64(inode),
		path,
		filepath.Base(path),
		int64(size),
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, false, fmt.Errorf("register media file: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	file, err := s.GetByIdentity(ctx, deviceID, inode)
	if err != nil {
		return nil, false, err
	}
	if file == nil {
		return nil, false, errors.New("registered media file not found")
	}
	return file, affected > 0, nil
}

// GetByID fetches a media file by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*File, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM media_files WHERE id = ?`, id)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get media file: %w", err)
	}
	return file, nil
}

// GetByIdentity fetches a media file by its filesystem identity.
func (s *Store) GetByIdentity(ctx context.Context, deviceID, inode uint64) (*File, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+fileColumns+` FROM media_files WHERE device_id = ? AND inode = ?`,
		int64(deviceID),
		int64(inode),
	)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get by identity: %w", err)
	}
	return file, nil
}

// List returns media files filtered by status set (or all files when no
// status is provided), oldest first.
func (s *Store) List(ctx context.Context, limit int, statuses ...Status) ([]*File, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + fileColumns + ` FROM media_files`
	orderClause := ` ORDER BY created_at, id`
	limitClause := ""
	if limit > 0 {
		limitClause = fmt.Sprintf(" LIMIT %d", limit)
	}

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause+limitClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause + limitClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list media files: %w", err)
	}
	defer rows.Close()

	var files []*File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// IDsByStatus returns identifiers of files in the given status, oldest first.
// The scanner uses this at boot to re-emit rows whose in-memory dispatch was
// lost in a crash.
func (s *Store) IDsByStatus(ctx context.Context, status Status) ([]int64, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id FROM media_files WHERE status = ? ORDER BY created_at, id`,
		status,
	)
	if err != nil {
		return nil, fmt.Errorf("ids by status: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Stats returns a count of media files grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM media_files GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("media stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates row counts for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusProcessing:
			health.Processing += count
		case StatusCompleted:
			health.Completed += count
		case StatusFailed:
			health.Failed += count
		case StatusNoMatch:
			health.NoMatch += count
		case StatusConflict:
			health.Conflict += count
		}
	}
	return health, nil
}

// ClearTerminal removes rows in terminal non-processing states. Exposed for
// the admin surface only; the pipeline never deletes rows.
func (s *Store) ClearTerminal(ctx context.Context, statuses ...Status) (int64, error) {
	if len(statuses) == 0 {
		statuses = []Status{StatusCompleted, StatusFailed, StatusNoMatch, StatusConflict}
	}
	for _, status := range statuses {
		if !status.IsTerminal() {
			return 0, fmt.Errorf("status %q is not terminal", status)
		}
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM media_files WHERE status IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("clear media files: %w", err)
	}
	return res.RowsAffected()
}

const fileColumns = "id, device_id, inode, original_filepath, original_filename, file_size, status, retry_count, tmdb_id, media_type, llm_guess_json, processed_json, new_filepath, error_message, claimed_at, created_at, updated_at"

func scanFile(scanner interface{ Scan(dest ...any) error }) (*File, error) {
	var (
		id           int64
		deviceID     int64
		inode        int64
		filepathCol  string
		filename     string
		fileSize     int64
		statusStr    string
		retryCount   int
		tmdbID       sql.NullInt64
		mediaType    sql.NullString
		llmGuess     sql.NullString
		processed    sql.NullString
		newFilepath  sql.NullString
		errorMessage sql.NullString
		claimedRaw   sql.NullString
		createdRaw   string
		updatedRaw   string
	)

	if err := scanner.Scan(
		&id,
		&deviceID,
		&inode,
		&filepathCol,
		&filename,
		&fileSize,
		&statusStr,
		&retryCount,
		&tmdbID,
		&mediaType,
		&llmGuess,
		&processed,
		&newFilepath,
		&errorMessage,
		&claimedRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	file := &File{
		ID:               id,
		DeviceID:         uint64(deviceID),
		Inode:            uint64(inode),
		OriginalFilepath: filepathCol,
		OriginalFilename: filename,
		FileSize:         uint64(fileSize),
		Status:           Status(statusStr),
		RetryCount:       retryCount,
		TMDBID:           tmdbID.Int64,
		MediaType:        MediaType(mediaType.String),
		LLMGuessJSON:     llmGuess.String,
		ProcessedJSON:    processed.String,
		NewFilepath:      newFilepath.String,
		ErrorMessage:     errorMessage.String,
	}

	if created, err := parseTimeString(createdRaw); err == nil {
		file.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		file.UpdatedAt = updated
	}
	if claimedRaw.Valid {
		if claimed, err := parseTimeString(claimedRaw.String); err == nil {
			file.ClaimedAt = &claimed
		}
	}
	return file, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt64(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}
