package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"stemsplit/internal/separation"
	"stemsplit/internal/services"
)

// Status is the lifecycle state of a recorded job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Entry is one row of the job history.
type Entry struct {
	ID         string
	InputPath  string
	OutputDir  string
	Mode       separation.Mode
	Format     separation.Format
	Status     Status
	ErrorKind  services.Kind
	Message    string
	StemCount  int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration reports how long a finished job ran.
func (e Entry) Duration() time.Duration {
	if e.FinishedAt.IsZero() || e.StartedAt.IsZero() {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}

// Store persists job history.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history database path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
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

// RecordStart inserts a running row for a new job.
func (s *Store) RecordStart(ctx context.Context, id string, req separation.Request, startedAt time.Time) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("job id required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, input_path, output_dir, mode, format, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, req.InputPath(), req.OutputDir(), string(req.Mode()), string(req.Format()),
		string(StatusRunning), formatTime(startedAt),
	)
	if err != nil {
		return fmt.Errorf("record job start: %w", err)
	}
	return nil
}

// RecordFinish stores the outcome of a job.
func (s *Store) RecordFinish(ctx context.Context, id string, result separation.Result, finishedAt time.Time) error {
	status := StatusFailed
	if result.Success {
		status = StatusSucceeded
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error_kind = ?, message = ?, stem_count = ?, finished_at = ?
		 WHERE id = ?`,
		string(status), string(result.Kind), result.Message, len(result.Stems), formatTime(finishedAt), id,
	)
	if err != nil {
		return fmt.Errorf("record job finish: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("record job finish: job %s not found", id)
	}
	return nil
}

// ResetInterrupted marks rows still running from a previous process as failed.
func (s *Store) ResetInterrupted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error_kind = ?, message = ?, finished_at = ? WHERE status = ?`,
		string(StatusFailed), string(services.KindUnexpected), "Error: interrupted before completion",
		formatTime(time.Now()), string(StatusRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("reset interrupted jobs: %w", err)
	}
	return res.RowsAffected()
}

// List returns the most recent jobs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input_path, output_dir, mode, format, status, error_kind, message, stem_count, started_at, finished_at
		 FROM jobs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return entries, nil
}

// Get returns one job or nil when the id is unknown.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, input_path, output_dir, mode, format, status, error_kind, message, stem_count, started_at, finished_at
		 FROM jobs WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		entry                      Entry
		mode, format, status, kind string
		startedAt                  string
		finishedAt                 sql.NullString
	)
	if err := row.Scan(&entry.ID, &entry.InputPath, &entry.OutputDir, &mode, &format, &status,
		&kind, &entry.Message, &entry.StemCount, &startedAt, &finishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scan job: %w", err)
	}
	entry.Mode = separation.Mode(mode)
	entry.Format = separation.Format(format)
	entry.Status = Status(status)
	entry.ErrorKind = services.Kind(kind)
	entry.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		entry.FinishedAt = parseTime(finishedAt.String)
	}
	return entry, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
