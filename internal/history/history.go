package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"gitstrap/internal/orchestrator"
)

// RunDB manages the SQLite database of bootstrap run history
type RunDB struct {
	db *sql.DB
}

// RunRecord is one persisted bootstrap run
type RunRecord struct {
	ID           int64     `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	StageReached string    `json:"stage_reached"`
	ExitCode     int       `json:"exit_code"`
	LogPath      string    `json:"log_path"`
	Branch       string    `json:"branch"`
	CommitRef    string    `json:"commit_ref"`
}

// NewRunDB creates a new database connection and initializes the schema
func NewRunDB(dbPath string) (*RunDB, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// _loc=auto enables automatic DATETIME parsing
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	// A simple query both checks permissions and creates the file
	if _, err = db.Exec("SELECT 1"); err != nil {
		return nil, fmt.Errorf("failed to initialize database (check permissions on %s): %w", dbPath, err)
	}

	// WAL lets the query CLI read while a run is writing
	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err = db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	rdb := &RunDB{db: db}
	if err = rdb.initSchema(); err != nil {
		return nil, err
	}

	err = nil
	return rdb, nil
}

func (r *RunDB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		stage_reached TEXT NOT NULL,
		exit_code INTEGER NOT NULL,
		log_path TEXT,
		branch TEXT,
		commit_ref TEXT
	);

	CREATE TABLE IF NOT EXISTS operation_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		label TEXT NOT NULL,
		exit_code INTEGER NOT NULL,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_results_run ON operation_results(run_id);
	`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// RecordRun persists one run's outcome and its full result set in a
// single transaction
func (r *RunDB) RecordRun(startedAt time.Time, outcome orchestrator.Outcome, results []orchestrator.OperationResult, branch, commitRef string) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO runs (started_at, finished_at, stage_reached, exit_code, log_path, branch, commit_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		startedAt, time.Now(), outcome.StageReached.String(), outcome.ExitCode, outcome.LogPath, branch, commitRef,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	for _, entry := range results {
		if _, err := tx.Exec(`
			INSERT INTO operation_results (run_id, label, exit_code, timestamp)
			VALUES (?, ?, ?, ?)`,
			runID, entry.Label, entry.ExitCode, entry.Timestamp,
		); err != nil {
			return 0, fmt.Errorf("insert result %s: %w", entry.Label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}

func (r *RunDB) Close() error {
	return r.db.Close()
}
