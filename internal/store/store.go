package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// DatasetMeta is one persisted dataset registration.
type DatasetMeta struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Filename    string    `json:"filename"`
	SizeBytes   int64     `json:"size_bytes"`
	Rows        int       `json:"rows"`
	Columns     int       `json:"columns"`
	UploadedAt  time.Time `json:"uploaded_at"`
	Description string    `json:"description,omitempty"`
	Tags        string    `json:"tags,omitempty"`
}

// QueryRecord is one logged question.
type QueryRecord struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Dataset   string    `json:"dataset"`
	Question  string    `json:"question"`
	Intent    string    `json:"intent"`
	Success   bool      `json:"success"`
	AskedAt   time.Time `json:"asked_at"`
}

// Store persists dataset metadata, analysis sessions and the query log in
// SQLite. The in-memory registry stays authoritative for rows; the store
// only remembers what was loaded and asked.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store at path, creating parent directories
// as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing store schema: %w", err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS datasets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		filename TEXT,
		size_bytes INTEGER NOT NULL DEFAULT 0,
		rows INTEGER NOT NULL DEFAULT 0,
		columns INTEGER NOT NULL DEFAULT 0,
		uploaded_at TIMESTAMP NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS analysis_sessions (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		last_accessed TIMESTAMP NOT NULL,
		query_count INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS query_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		dataset TEXT NOT NULL,
		question TEXT NOT NULL,
		intent TEXT NOT NULL,
		success INTEGER NOT NULL,
		asked_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_query_log_session ON query_log(session_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveDataset inserts or updates a dataset registration keyed by name. The
// original id survives a replace; a missing id or timestamp is filled in.
func (s *Store) SaveDataset(ctx context.Context, meta DatasetMeta) (DatasetMeta, error) {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.UploadedAt.IsZero() {
		meta.UploadedAt = time.Now().UTC()
	}

	var existingID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM datasets WHERE name = ?`, meta.Name).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO datasets (id, name, filename, size_bytes, rows, columns, uploaded_at, description, tags)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			meta.ID, meta.Name, meta.Filename, meta.SizeBytes, meta.Rows, meta.Columns,
			meta.UploadedAt, meta.Description, meta.Tags)
		if err != nil {
			return meta, fmt.Errorf("inserting dataset: %w", err)
		}
	case err != nil:
		return meta, fmt.Errorf("looking up dataset: %w", err)
	default:
		meta.ID = existingID
		_, err = s.db.ExecContext(ctx, `
			UPDATE datasets
			SET filename = ?, size_bytes = ?, rows = ?, columns = ?, uploaded_at = ?, description = ?, tags = ?
			WHERE id = ?`,
			meta.Filename, meta.SizeBytes, meta.Rows, meta.Columns,
			meta.UploadedAt, meta.Description, meta.Tags, meta.ID)
		if err != nil {
			return meta, fmt.Errorf("updating dataset: %w", err)
		}
	}
	return meta, nil
}

// GetDataset fetches one registration by name.
func (s *Store) GetDataset(ctx context.Context, name string) (DatasetMeta, bool, error) {
	var meta DatasetMeta
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, filename, size_bytes, rows, columns, uploaded_at, description, tags
		FROM datasets WHERE name = ?`, name).Scan(
		&meta.ID, &meta.Name, &meta.Filename, &meta.SizeBytes, &meta.Rows,
		&meta.Columns, &meta.UploadedAt, &meta.Description, &meta.Tags)
	if err == sql.ErrNoRows {
		return DatasetMeta{}, false, nil
	}
	if err != nil {
		return DatasetMeta{}, false, fmt.Errorf("fetching dataset: %w", err)
	}
	return meta, true, nil
}

// ListDatasets returns every registration, oldest first.
func (s *Store) ListDatasets(ctx context.Context) ([]DatasetMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, filename, size_bytes, rows, columns, uploaded_at, description, tags
		FROM datasets ORDER BY uploaded_at, name`)
	if err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}
	defer rows.Close()

	var out []DatasetMeta
	for rows.Next() {
		var meta DatasetMeta
		if err := rows.Scan(&meta.ID, &meta.Name, &meta.Filename, &meta.SizeBytes,
			&meta.Rows, &meta.Columns, &meta.UploadedAt, &meta.Description, &meta.Tags); err != nil {
			return nil, fmt.Errorf("scanning dataset: %w", err)
		}
		out = append(out, meta)
	}
	return out, rows.Err()
}

// DeleteDataset removes a registration by name.
func (s *Store) DeleteDataset(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE name = ?`, name); err != nil {
		return fmt.Errorf("deleting dataset: %w", err)
	}
	return nil
}

// CreateSession opens a new analysis session and returns its id.
func (s *Store) CreateSession(ctx context.Context) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_sessions (id, created_at, last_accessed, query_count)
		VALUES (?, ?, ?, 0)`, id, now, now)
	if err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return id, nil
}

// TouchSession bumps a session's access time and query counter.
func (s *Store) TouchSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE analysis_sessions
		SET last_accessed = ?, query_count = query_count + 1
		WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("touching session: %w", err)
	}
	return nil
}

// SessionQueryCount reads a session's query counter.
func (s *Store) SessionQueryCount(ctx context.Context, id string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT query_count FROM analysis_sessions WHERE id = ?`, id).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading session: %w", err)
	}
	return count, nil
}

// LogQuery appends one question to the query log.
func (s *Store) LogQuery(ctx context.Context, rec QueryRecord) error {
	if rec.AskedAt.IsZero() {
		rec.AskedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_log (session_id, dataset, question, intent, success, asked_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Dataset, rec.Question, rec.Intent, rec.Success, rec.AskedAt)
	if err != nil {
		return fmt.Errorf("logging query: %w", err)
	}
	return nil
}

// RecentQueries returns the latest log entries, newest first.
func (s *Store) RecentQueries(ctx context.Context, limit int) ([]QueryRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, dataset, question, intent, success, asked_at
		FROM query_log ORDER BY asked_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing queries: %w", err)
	}
	defer rows.Close()

	var out []QueryRecord
	for rows.Next() {
		var rec QueryRecord
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Dataset, &rec.Question,
			&rec.Intent, &rec.Success, &rec.AskedAt); err != nil {
			return nil, fmt.Errorf("scanning query: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CleanupSessions deletes sessions idle longer than the given age and
// returns how many were removed.
func (s *Store) CleanupSessions(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM analysis_sessions WHERE last_accessed < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning sessions: %w", err)
	}
	return res.RowsAffected()
}
