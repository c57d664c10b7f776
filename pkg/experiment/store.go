package experiment

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
)

// Vector kinds stored in the run_vectors table. Initial-distribution vectors
// use row_index -1; transition rows use their source-state index.
const (
	kindPriorInitial     = "prior_initial"
	kindPriorRow         = "prior_row"
	kindPosteriorInitial = "posterior_initial"
	kindPosteriorRow     = "posterior_row"
)

// SetupSchema initializes the tables needed to store estimation runs in the
// provided database. It should be called once before any other operation. It
// is idempotent and safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaRuns = `
CREATE TABLE IF NOT EXISTS estimation_runs (
    run_id TEXT PRIMARY KEY,
    run_name TEXT NOT NULL,
    state_count INTEGER NOT NULL,
    chain_length INTEGER NOT NULL,
    seed INTEGER NOT NULL,
    log_evidence REAL NOT NULL,
    created_at INTEGER NOT NULL
);
`
		schemaChains = `
CREATE TABLE IF NOT EXISTS run_chains (
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    state INTEGER NOT NULL,
    PRIMARY KEY (run_id, position)
);
`
		schemaVectors = `
CREATE TABLE IF NOT EXISTS run_vectors (
    run_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    row_index INTEGER NOT NULL,
    state INTEGER NOT NULL,
    weight REAL NOT NULL,
    PRIMARY KEY (run_id, kind, row_index, state)
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaRuns); err != nil {
		return fmt.Errorf("could not create runs schema: %w", err)
	}
	if _, err = tx.Exec(schemaChains); err != nil {
		return fmt.Errorf("could not create chains schema: %w", err)
	}
	if _, err = tx.Exec(schemaVectors); err != nil {
		return fmt.Errorf("could not create vectors schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// Store reads and writes estimation runs. It holds the database connection
// and prepared SQL statements for efficient access.
type Store struct {
	db               *sql.DB
	stmtInsertRun    *sql.Stmt
	stmtGetRun       *sql.Stmt
	stmtListRuns     *sql.Stmt
	stmtInsertState  *sql.Stmt
	stmtGetChain     *sql.Stmt
	stmtInsertVector *sql.Stmt
	stmtGetVectors   *sql.Stmt
	logger           *slog.Logger
}

// NewStore creates a Store over an initialized database, pre-compiling all
// necessary SQL statements. It returns an error if any preparation fails.
func NewStore(db *sql.DB) (*Store, error) {
	stmtInsertRun, err := db.Prepare(`INSERT INTO estimation_runs (run_id, run_name, state_count, chain_length, seed, log_evidence, created_at) VALUES (?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return nil, err
	}

	stmtGetRun, err := db.Prepare(`SELECT run_name, state_count, chain_length, seed, log_evidence, created_at FROM estimation_runs WHERE run_id = ?;`)
	if err != nil {
		return nil, err
	}

	stmtListRuns, err := db.Prepare(`SELECT run_id, run_name, state_count, chain_length, seed, log_evidence, created_at FROM estimation_runs ORDER BY created_at;`)
	if err != nil {
		return nil, err
	}

	stmtInsertState, err := db.Prepare(`INSERT INTO run_chains (run_id, position, state) VALUES (?, ?, ?);`)
	if err != nil {
		return nil, err
	}

	stmtGetChain, err := db.Prepare(`SELECT state FROM run_chains WHERE run_id = ? ORDER BY position;`)
	if err != nil {
		return nil, err
	}

	stmtInsertVector, err := db.Prepare(`INSERT INTO run_vectors (run_id, kind, row_index, state, weight) VALUES (?, ?, ?, ?, ?);`)
	if err != nil {
		return nil, err
	}

	stmtGetVectors, err := db.Prepare(`SELECT kind, row_index, state, weight FROM run_vectors WHERE run_id = ?;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:               db,
		stmtInsertRun:    stmtInsertRun,
		stmtGetRun:       stmtGetRun,
		stmtListRuns:     stmtListRuns,
		stmtInsertState:  stmtInsertState,
		stmtGetChain:     stmtGetChain,
		stmtInsertVector: stmtInsertVector,
		stmtGetVectors:   stmtGetVectors,
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases all prepared SQL statements held by the Store. It should be
// called when the Store is no longer needed to free up database resources.
func (s *Store) Close() {
	_ = s.stmtInsertRun.Close()
	_ = s.stmtGetRun.Close()
	_ = s.stmtListRuns.Close()
	_ = s.stmtInsertState.Close()
	_ = s.stmtGetChain.Close()
	_ = s.stmtInsertVector.Close()
	_ = s.stmtGetVectors.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}
