package casestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"lavra/internal/config"
)

// Store manages case persistence backed by SQLite.
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

// Open initializes or connects to the case database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "cases.db")
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

// Path returns the database file location for diagnostics.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// NewCase inserts a case in intake state and returns it.
func (s *Store) NewCase(ctx context.Context, title string) (*Case, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Processo sem título"
	}
	id := uuid.NewString()
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO cases (id, title, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id,
		title,
		StatusIntake,
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("insert case: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a case by identifier. Returns nil when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*Case, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+caseColumns+` FROM cases WHERE id = ?`, id)
	item, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	return item, nil
}

// Update persists changes to an existing case.
func (s *Store) Update(ctx context.Context, c *Case) error {
	if c == nil {
		return errors.New("case is nil")
	}
	c.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE cases
         SET title = ?, status = ?, document_path = ?, recording_path = ?,
             transcript_path = ?, extraction_json = ?, artifact_path = ?,
             current_step = ?, error_message = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(c.Title),
		c.Status,
		nullableString(c.DocumentPath),
		nullableString(c.RecordingPath),
		nullableString(c.TranscriptPath),
		nullableString(c.ExtractionJSON),
		nullableString(c.ArtifactPath),
		nullableString(c.CurrentStep),
		nullableString(c.ErrorMessage),
		c.UpdatedAt.Format(time.RFC3339Nano),
		c.ID,
	); err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	return nil
}

// SetInput records an uploaded input for the case, replacing any earlier
// upload of the same role.
func (s *Store) SetInput(ctx context.Context, id string, role InputRole, path string) (*Case, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("case %s: %w", id, ErrNotFound)
	}
	c.SetInputPath(role, path)
	if err := s.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns cases filtered by status set (or all cases when none given),
// ordered by creation time.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Case, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + caseColumns + ` FROM cases`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ensureContext(ctx), baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ensureContext(ctx), query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var items []*Case
	for rows.Next() {
		item, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// NextQueued returns the oldest queued case, or nil when the queue is empty.
func (s *Store) NextQueued(ctx context.Context) (*Case, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+caseColumns+` FROM cases WHERE status = ? ORDER BY created_at LIMIT 1`,
		StatusQueued,
	)
	item, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ResetStuckProcessing returns cases left mid-run (e.g. by a crash) to the
// queue so the next daemon start picks them up again from stage one.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE cases
         SET status = ?, current_step = 'Reenfileirado após interrupção',
             error_message = NULL, updated_at = ?
         WHERE status = ?`,
		StatusQueued,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck cases: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves failed cases back to queued for a fresh run.
func (s *Store) RetryFailed(ctx context.Context, ids ...string) (int64, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if len(ids) == 0 {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE cases
            SET status = ?, current_step = 'Nova tentativa solicitada', error_message = NULL, updated_at = ?
            WHERE status = ?`,
			StatusQueued,
			timestamp,
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed cases: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+2)
	args = append(args, StatusQueued, timestamp)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE cases
        SET status = ?, current_step = 'Nova tentativa solicitada', error_message = NULL, updated_at = ?
        WHERE id IN (` + placeholders + `) AND status = '` + string(StatusFailed) + `'`
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected cases: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of cases grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM cases GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("case stats: %w", err)
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

// Health aggregates case state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusIntake:
			health.Intake += count
		case StatusQueued:
			health.Queued += count
		case StatusProcessing:
			health.Processing += count
		case StatusCompleted:
			health.Completed += count
		case StatusFailed:
			health.Failed += count
		}
	}
	return health, nil
}

// Remove deletes a case by identifier.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM cases WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete case: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearCompleted removes only completed cases.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM cases WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes only failed cases.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM cases WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all cases.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM cases`)
	if err != nil {
		return 0, fmt.Errorf("clear cases: %w", err)
	}
	return res.RowsAffected()
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
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
	ctx = ensureContext(ctx)
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

func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

const caseColumns = "id, title, status, document_path, recording_path, transcript_path, extraction_json, artifact_path, current_step, error_message, created_at, updated_at"

func scanCase(scanner interface{ Scan(dest ...any) error }) (*Case, error) {
	var (
		id             string
		title          sql.NullString
		statusStr      string
		documentPath   sql.NullString
		recordingPath  sql.NullString
		transcriptPath sql.NullString
		extractionJSON sql.NullString
		artifactPath   sql.NullString
		currentStep    sql.NullString
		errorMessage   sql.NullString
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&title,
		&statusStr,
		&documentPath,
		&recordingPath,
		&transcriptPath,
		&extractionJSON,
		&artifactPath,
		&currentStep,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Case{
		ID:             id,
		Title:          title.String,
		Status:         Status(statusStr),
		DocumentPath:   documentPath.String,
		RecordingPath:  recordingPath.String,
		TranscriptPath: transcriptPath.String,
		ExtractionJSON: extractionJSON.String,
		ArtifactPath:   artifactPath.String,
		CurrentStep:    currentStep.String,
		ErrorMessage:   errorMessage.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
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
