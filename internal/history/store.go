// Package history records build runs and their per-document results in
// SQLite.
package history

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one build.
type Run struct {
	ID       string
	DataDir  string
	Started  time.Time
	Finished time.Time
	Rendered int
	Skipped  int
	Failed   int
	// Outcome is one of the metrics build outcomes.
	Outcome string
	Error   string
}

// Duration is how long the run took.
func (r Run) Duration() time.Duration { return r.Finished.Sub(r.Started) }

// DocumentResult is what one run did with one document. Skipped documents
// are not recorded.
type DocumentResult struct {
	Document string
	Result   string
	Error    string
}

// Store is a SQLite-backed build history.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the history database at path. Use ":memory:" for a
// throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrap(ErrOpenFailed, err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, wrap(ErrSchemaFailed, err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		data_dir TEXT NOT NULL,
		started INTEGER NOT NULL,
		finished INTEGER NOT NULL,
		rendered INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		document TEXT NOT NULL,
		result TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_documents_run ON documents(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores a run and its document results in one transaction.
func (s *Store) Record(ctx context.Context, run Run, docs []DocumentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap(ErrWriteFailed, err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, data_dir, started, finished, rendered, skipped, failed, outcome, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.DataDir, run.Started.UnixMilli(), run.Finished.UnixMilli(),
		run.Rendered, run.Skipped, run.Failed, run.Outcome, run.Error,
	)
	if err != nil {
		return wrap(ErrWriteFailed, err)
	}
	for _, d := range docs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO documents (run_id, document, result, error) VALUES (?, ?, ?, ?)",
			run.ID, d.Document, d.Result, d.Error,
		); err != nil {
			return wrap(ErrWriteFailed, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return wrap(ErrWriteFailed, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data_dir, started, finished, rendered, skipped, failed, outcome, error
		 FROM runs ORDER BY started DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, wrap(ErrQueryFailed, err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished int64
		if err := rows.Scan(&r.ID, &r.DataDir, &started, &finished, &r.Rendered, &r.Skipped, &r.Failed, &r.Outcome, &r.Error); err != nil {
			return nil, wrap(ErrQueryFailed, err)
		}
		r.Started = time.UnixMilli(started)
		r.Finished = time.UnixMilli(finished)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(ErrQueryFailed, err)
	}
	return runs, nil
}

// Documents returns the document results of one run in recorded order.
func (s *Store) Documents(ctx context.Context, runID string) ([]DocumentResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT document, result, error FROM documents WHERE run_id = ? ORDER BY id",
		runID,
	)
	if err != nil {
		return nil, wrap(ErrQueryFailed, err)
	}
	defer func() { _ = rows.Close() }()

	var docs []DocumentResult
	for rows.Next() {
		var d DocumentResult
		if err := rows.Scan(&d.Document, &d.Result, &d.Error); err != nil {
			return nil, wrap(ErrQueryFailed, err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(ErrQueryFailed, err)
	}
	return docs, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
