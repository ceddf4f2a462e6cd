package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/snptkdn/htup/packages/workspace"
	"go.uber.org/zap"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

// ErrNoHistory is returned by Last when a request was never recorded.
var ErrNoHistory = errors.New("no recorded executions")

const schema = `
CREATE TABLE IF NOT EXISTS executions (
	id               TEXT PRIMARY KEY,
	project          TEXT NOT NULL,
	request_id       TEXT NOT NULL,
	method           TEXT NOT NULL,
	url              TEXT NOT NULL,
	status_code      INTEGER NOT NULL DEFAULT 0,
	status           TEXT NOT NULL DEFAULT '',
	duration_ms      INTEGER NOT NULL DEFAULT 0,
	response_headers TEXT NOT NULL DEFAULT '{}',
	response_body    BLOB,
	error            TEXT NOT NULL DEFAULT '',
	started_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_executions_request ON executions (project, request_id, started_at);
`

// Entry is one recorded execution.
type Entry struct {
	ID              string
	Project         string
	RequestID       string
	Method          string
	URL             string
	StatusCode      int
	Status          string
	Duration        time.Duration
	ResponseHeaders map[string]string
	ResponseBody    []byte
	Error           string
	StartedAt       time.Time
}

// Failed reports whether the execution produced no response.
func (e *Entry) Failed() bool {
	return e.Error != ""
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Project   string
	RequestID string
	Limit     int
}

// Store is a history database.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open opens or creates the database at path.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{path: path, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// one writer at a time; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	s.db = db
	s.logger.Debug("history opened", zap.String("path", path))
	return s, nil
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record appends an execution. It satisfies workspace.Recorder.
func (s *Store) Record(ctx context.Context, exec *workspace.Execution) error {
	entry := Entry{
		ID:        uuid.NewString(),
		Project:   exec.Project,
		RequestID: exec.ID,
		StartedAt: exec.StartedAt,
	}
	if entry.StartedAt.IsZero() {
		entry.StartedAt = time.Now()
	}
	if exec.Request != nil {
		entry.Method = exec.Request.Method
		entry.URL = exec.Request.URL
	}
	if resp := exec.Response; resp != nil {
		entry.StatusCode = resp.StatusCode
		entry.Status = resp.Status
		entry.Duration = resp.Duration
		entry.ResponseHeaders = resp.Headers
		entry.ResponseBody = resp.Body
	}
	if exec.Err != nil {
		entry.Error = exec.Err.Error()
	}
	return s.insert(ctx, &entry)
}

func (s *Store) insert(ctx context.Context, e *Entry) error {
	headers := e.ResponseHeaders
	if headers == nil {
		headers = map[string]string{}
	}
	headersJSON, err := json.Marshal(headers)
	if err != nil {
		return fmt.Errorf("failed to encode headers: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO executions
			(id, project, request_id, method, url, status_code, status, duration_ms,
			 response_headers, response_body, error, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Project, e.RequestID, e.Method, e.URL, e.StatusCode, e.Status,
		e.Duration.Milliseconds(), string(headersJSON), e.ResponseBody, e.Error,
		e.StartedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record execution: %w", err)
	}
	s.logger.Debug("execution recorded",
		zap.String("id", e.ID),
		zap.String("project", e.Project),
		zap.String("request", e.RequestID),
	)
	return nil
}

// List returns matching entries, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Project != "" {
		where = append(where, "project = ?")
		args = append(args, f.Project)
	}
	if f.RequestID != "" {
		where = append(where, "request_id = ?")
		args = append(args, f.RequestID)
	}

	query := `SELECT id, project, request_id, method, url, status_code, status, duration_ms,
		response_headers, response_body, error, started_at FROM executions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC, rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e           Entry
			durationMs  int64
			headersJSON string
			startedAt   int64
		)
		if err := rows.Scan(&e.ID, &e.Project, &e.RequestID, &e.Method, &e.URL,
			&e.StatusCode, &e.Status, &durationMs, &headersJSON, &e.ResponseBody,
			&e.Error, &startedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.StartedAt = time.Unix(0, startedAt)
		if err := json.Unmarshal([]byte(headersJSON), &e.ResponseHeaders); err != nil {
			return nil, fmt.Errorf("failed to decode headers of %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// Last returns the newest entry for one request.
func (s *Store) Last(ctx context.Context, project, id string) (*Entry, error) {
	entries, err := s.List(ctx, Filter{Project: project, RequestID: id, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s/%s: %w", project, id, ErrNoHistory)
	}
	return &entries[0], nil
}

// Prune deletes all but the newest keep entries of every request.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM executions WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY project, request_id ORDER BY started_at DESC, rowid DESC
				) AS n FROM executions
			) WHERE n > ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return res.RowsAffected()
}
