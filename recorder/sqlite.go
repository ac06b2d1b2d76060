package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SqliteRecorder persists attempts, per-task best versions, and learning
// patterns in a SQLite database file.
type SqliteRecorder struct {
	db        *sql.DB
	artifacts *ArtifactWriter // optional
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteRecorder, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	rec := &SqliteRecorder{db: db}
	if err := rec.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return rec, nil
}

// NewSqliteInMemory creates an in-memory recorder (useful for testing).
func NewSqliteInMemory() (*SqliteRecorder, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}

	rec := &SqliteRecorder{db: db}
	if err := rec.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return rec, nil
}

// WithArtifacts enables writing each attempt's code to a file under dir.
func (s *SqliteRecorder) WithArtifacts(dir string) *SqliteRecorder {
	s.artifacts = NewArtifactWriter(dir)
	return s
}

// Close closes the database connection.
func (s *SqliteRecorder) Close() error {
	return s.db.Close()
}

func (s *SqliteRecorder) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL DEFAULT '',
			task TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			version INTEGER NOT NULL,
			code TEXT NOT NULL,
			success INTEGER NOT NULL,
			error_class TEXT NOT NULL DEFAULT '',
			error_message TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL DEFAULT 0,
			file_path TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			UNIQUE(fingerprint, version)
		);

		CREATE INDEX IF NOT EXISTS idx_attempts_fingerprint
		ON attempts(fingerprint, version DESC);

		CREATE TABLE IF NOT EXISTS best_versions (
			fingerprint TEXT PRIMARY KEY,
			version INTEGER NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS patterns (
			kind TEXT NOT NULL,
			key TEXT NOT NULL,
			code TEXT NOT NULL,
			success_count INTEGER NOT NULL DEFAULT 0,
			failure_count INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (kind, key)
		);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// RecordAttempt persists one attempt. The version number is assigned
// inside the insert transaction, so versions within a fingerprint are
// monotonically increasing. On success the fingerprint's best version
// always advances to this one, and the task/error patterns are updated.
func (s *SqliteRecorder) RecordAttempt(ctx context.Context, a Attempt) (SavedAttempt, error) {
	fingerprint := Fingerprint(a.Task)
	task := truncate(a.Task, maxTaskLen)
	code := truncate(a.Code, maxCodeLen)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SavedAttempt{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var version int
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) + 1 FROM attempts WHERE fingerprint = ?",
		fingerprint,
	).Scan(&version)
	if err != nil {
		return SavedAttempt{}, fmt.Errorf("failed to assign version: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO attempts
			(run_id, task, fingerprint, version, code, success, error_class, error_message, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.RunID, task, fingerprint, version, code, a.Success,
		truncate(a.ErrorClass, maxClassLen), truncate(a.ErrorMessage, maxMessageLen),
		a.Duration.Milliseconds(),
	)
	if err != nil {
		return SavedAttempt{}, fmt.Errorf("failed to insert attempt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return SavedAttempt{}, fmt.Errorf("failed to read attempt id: %w", err)
	}

	if a.Success {
		// The best version for a fingerprint always advances to the
		// most recent successful version.
		_, err = tx.ExecContext(ctx,
			`INSERT INTO best_versions (fingerprint, version, updated_at)
			 VALUES (?, ?, datetime('now'))
			 ON CONFLICT(fingerprint) DO UPDATE SET
				version = excluded.version,
				updated_at = excluded.updated_at`,
			fingerprint, version,
		)
		if err != nil {
			return SavedAttempt{}, fmt.Errorf("failed to advance best version: %w", err)
		}

		if err := s.upsertPattern(ctx, tx, PatternTaskSolution, task, code, true); err != nil {
			return SavedAttempt{}, err
		}
		// A success right after a failure is a fix for that error class.
		if a.PrevErrorClass != "" {
			if err := s.upsertPattern(ctx, tx, PatternErrorSolution, truncate(a.PrevErrorClass, maxClassLen), code, true); err != nil {
				return SavedAttempt{}, err
			}
		}
	} else {
		if err := s.upsertPattern(ctx, tx, PatternTaskSolution, task, code, false); err != nil {
			return SavedAttempt{}, err
		}
	}

	saved := SavedAttempt{
		ID:          id,
		Fingerprint: fingerprint,
		Version:     version,
		CreatedAt:   time.Now(),
	}

	if s.artifacts != nil {
		path, err := s.artifacts.Write(task, fingerprint, version, code)
		if err == nil && path != "" {
			if _, err := tx.ExecContext(ctx, "UPDATE attempts SET file_path = ? WHERE id = ?", path, id); err != nil {
				return SavedAttempt{}, fmt.Errorf("failed to record artifact path: %w", err)
			}
			saved.FilePath = path
		}
	}

	if err := tx.Commit(); err != nil {
		return SavedAttempt{}, fmt.Errorf("failed to commit attempt: %w", err)
	}
	return saved, nil
}

// upsertPattern increments a pattern's counters and, while the pattern
// is still inside the learning window, refreshes its code fragment.
// Counters only increase; a frozen fragment never changes again.
func (s *SqliteRecorder) upsertPattern(ctx context.Context, tx *sql.Tx, kind, key, code string, success bool) error {
	var successCount int
	err := tx.QueryRowContext(ctx,
		"SELECT success_count FROM patterns WHERE kind = ? AND key = ?",
		kind, key,
	).Scan(&successCount)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		succ, fail := 0, 0
		if success {
			succ = 1
		} else {
			fail = 1
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO patterns (kind, key, code, success_count, failure_count) VALUES (?, ?, ?, ?, ?)",
			kind, key, code, succ, fail,
		)
		if err != nil {
			return fmt.Errorf("failed to insert pattern: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to read pattern: %w", err)
	}

	updateCode := success && successCount < learningWindow
	if success {
		if updateCode {
			_, err = tx.ExecContext(ctx,
				"UPDATE patterns SET code = ?, success_count = success_count + 1 WHERE kind = ? AND key = ?",
				code, kind, key,
			)
		} else {
			_, err = tx.ExecContext(ctx,
				"UPDATE patterns SET success_count = success_count + 1 WHERE kind = ? AND key = ?",
				kind, key,
			)
		}
	} else {
		_, err = tx.ExecContext(ctx,
			"UPDATE patterns SET failure_count = failure_count + 1 WHERE kind = ? AND key = ?",
			kind, key,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to update pattern: %w", err)
	}
	return nil
}

// BestPattern returns the canonical successful code fragment for a task,
// if one has been learned.
func (s *SqliteRecorder) BestPattern(ctx context.Context, task string) (string, bool) {
	var code string
	err := s.db.QueryRowContext(ctx,
		"SELECT code FROM patterns WHERE kind = ? AND key = ? AND success_count > 0",
		PatternTaskSolution, truncate(task, maxTaskLen),
	).Scan(&code)
	if err != nil {
		return "", false
	}
	return code, true
}

// ErrorFix returns the known fix fragment for an error classification,
// if one has been learned.
func (s *SqliteRecorder) ErrorFix(ctx context.Context, class string) (string, bool) {
	var code string
	err := s.db.QueryRowContext(ctx,
		"SELECT code FROM patterns WHERE kind = ? AND key = ? AND success_count > 0",
		PatternErrorSolution, truncate(class, maxClassLen),
	).Scan(&code)
	if err != nil {
		return "", false
	}
	return code, true
}

// BestVersion returns the current best (most recent successful) version
// for a task fingerprint.
func (s *SqliteRecorder) BestVersion(ctx context.Context, fingerprint string) (int, bool) {
	var version int
	err := s.db.QueryRowContext(ctx,
		"SELECT version FROM best_versions WHERE fingerprint = ?", fingerprint,
	).Scan(&version)
	if err != nil {
		return 0, false
	}
	return version, true
}

// AttemptRow is one row of recorded history.
type AttemptRow struct {
	ID           int64
	RunID        string
	Task         string
	Fingerprint  string
	Version      int
	Success      bool
	ErrorClass   string
	ErrorMessage string
	CreatedAt    string
}

// RecentAttempts returns the most recent attempts, newest first.
func (s *SqliteRecorder) RecentAttempts(ctx context.Context, limit int) ([]AttemptRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, task, fingerprint, version, success, error_class, error_message, created_at
		 FROM attempts ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	var result []AttemptRow
	for rows.Next() {
		var r AttemptRow
		if err := rows.Scan(&r.ID, &r.RunID, &r.Task, &r.Fingerprint, &r.Version,
			&r.Success, &r.ErrorClass, &r.ErrorMessage, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
