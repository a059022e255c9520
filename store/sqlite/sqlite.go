/*
Package sqlite provides a SQLite-backed implementation of the engine stores.

PURPOSE:
  Persists batch runs (engine.RunStore) and memoized goal results
  (engine.ResultCache) in a single SQLite database.

INTERFACES IMPLEMENTED:
  engine.RunStore:    SaveRun, GetRun, ListRuns
  engine.ResultCache: Get, Set

KEY TABLES:
  runs:          One row per batch run (id, created_at, today)
  run_outcomes:  One row per goal of a run, in input order; the GoalResult
                 is stored as JSON so decimals keep their exact text
  result_cache:  GoalResult JSON by input key

SAVE SEMANTICS:
  SaveRun replaces a run with the same ID: the run row and all of its
  outcomes are rewritten in one transaction.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, as the batch runner and the HTTP
  handlers may write concurrently.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers do not block
  the writer.

USAGE:
  store, err := sqlite.New("./data/runs.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - engine/store.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/goal-engine/engine"
)

// timeLayout sorts lexically in time order (fixed width, UTC).
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements engine.RunStore and engine.ResultCache using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every connection to ":memory:" is a distinct database
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		today TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at
		ON runs(created_at DESC);

	CREATE TABLE IF NOT EXISTS run_outcomes (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		goal_name TEXT NOT NULL,
		result_json TEXT,
		error TEXT,
		PRIMARY KEY (run_id, position)
	);

	CREATE TABLE IF NOT EXISTS result_cache (
		cache_key TEXT PRIMARY KEY,
		result_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RUN STORE
// =============================================================================

// SaveRun inserts or replaces a run and its outcomes atomically.
func (s *Store) SaveRun(ctx context.Context, run engine.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, `DELETE FROM run_outcomes WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("failed to clear run outcomes: %w", err)
	}

	_, err = sqlTx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (id, created_at, today)
		VALUES (?, ?, ?)
	`, run.ID, run.CreatedAt.UTC().Format(timeLayout), run.Today.String())
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	for i, o := range run.Outcomes {
		var resultJSON sql.NullString
		if o.Result != nil {
			data, err := json.Marshal(o.Result)
			if err != nil {
				return fmt.Errorf("failed to encode result of %q: %w", o.GoalName, err)
			}
			resultJSON = sql.NullString{String: string(data), Valid: true}
		}
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO run_outcomes (run_id, position, goal_name, result_json, error)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, i, o.GoalName, resultJSON, nullString(o.Error))
		if err != nil {
			return fmt.Errorf("failed to save outcome %d: %w", i, err)
		}
	}

	return sqlTx.Commit()
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*engine.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT id, created_at, today FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, engine.ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadOutcomes(ctx, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns runs newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]engine.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, today FROM runs
		ORDER BY created_at DESC, id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var runs []engine.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		if err := s.loadOutcomes(ctx, &runs[i]); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *Store) loadOutcomes(ctx context.Context, run *engine.Run) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT goal_name, result_json, error FROM run_outcomes
		WHERE run_id = ?
		ORDER BY position ASC
	`, run.ID)
	if err != nil {
		return fmt.Errorf("failed to load outcomes of run %s: %w", run.ID, err)
	}
	defer rows.Close()

	run.Outcomes = []engine.RunOutcome{}
	for rows.Next() {
		var o engine.RunOutcome
		var resultJSON, errText sql.NullString
		if err := rows.Scan(&o.GoalName, &resultJSON, &errText); err != nil {
			return err
		}
		if resultJSON.Valid {
			o.Result = &engine.GoalResult{}
			if err := json.Unmarshal([]byte(resultJSON.String), o.Result); err != nil {
				return fmt.Errorf("failed to decode result of %q: %w", o.GoalName, err)
			}
		}
		o.Error = errText.String
		run.Outcomes = append(run.Outcomes, o)
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (engine.Run, error) {
	var run engine.Run
	var createdAt, today string
	if err := row.Scan(&run.ID, &createdAt, &today); err != nil {
		return engine.Run{}, err
	}
	var err error
	run.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return engine.Run{}, fmt.Errorf("run %s: bad created_at: %w", run.ID, err)
	}
	run.Today, err = engine.ParseDate(today)
	if err != nil {
		return engine.Run{}, fmt.Errorf("run %s: bad today: %w", run.ID, err)
	}
	return run, nil
}

// =============================================================================
// RESULT CACHE
// =============================================================================

// Get returns the cached result for key, or nil on a miss.
func (s *Store) Get(ctx context.Context, key string) (*engine.GoalResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.db.QueryRowContext(ctx, `SELECT result_json FROM result_cache WHERE cache_key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}
	var result engine.GoalResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached result: %w", err)
	}
	return &result, nil
}

// Set stores result under key, replacing any previous entry.
func (s *Store) Set(ctx context.Context, key string, result *engine.GoalResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO result_cache (cache_key, result_json, created_at)
		VALUES (?, ?, ?)
	`, key, string(data), time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// nullString stores empty strings as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var (
	_ engine.RunStore    = (*Store)(nil)
	_ engine.ResultCache = (*Store)(nil)
)
