package experiment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/CTAG07/Darlingtonia/pkg/bayes"
	"github.com/CTAG07/Darlingtonia/pkg/dirichlet"
)

// Run is a complete estimation run: the observed chain, the priors it was
// inferred under, and the resulting posterior. ID and CreatedAt are assigned
// by SaveRun when empty.
type Run struct {
	ID        string
	Name      string
	Seed      uint64
	Chain     []int
	Priors    *bayes.Priors
	Posterior *bayes.Posterior
	CreatedAt time.Time
}

// RunInfo holds the summary metadata of a stored run, as returned by ListRuns.
type RunInfo struct {
	ID          string
	Name        string
	States      int
	ChainLength int
	Seed        uint64
	LogEvidence float64
	CreatedAt   time.Time
}

// ExportedRun is the serializable representation of a run, used for
// JSON-based import and export.
type ExportedRun struct {
	Name             string             `json:"name"`
	Seed             uint64             `json:"seed"`
	Chain            []int              `json:"chain"`
	PriorInitial     dirichlet.Vector   `json:"prior_initial"`
	PriorRows        []dirichlet.Vector `json:"prior_rows"`
	PosteriorInitial dirichlet.Vector   `json:"posterior_initial"`
	PosteriorRows    []dirichlet.Vector `json:"posterior_rows"`
	LogEvidence      float64            `json:"log_evidence"`
}

// SaveRun persists a run and all of its vectors within a single transaction.
// A missing ID is replaced with a fresh UUID and a missing CreatedAt with the
// current time; both are written back to the argument.
func (s *Store) SaveRun(ctx context.Context, run *Run) error {
	if run.Posterior == nil || run.Priors == nil {
		return fmt.Errorf("run must carry both priors and a posterior")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction for save: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	k := run.Posterior.States()

	_, err = tx.StmtContext(ctx, s.stmtInsertRun).ExecContext(ctx,
		run.ID, run.Name, k, len(run.Chain), int64(run.Seed),
		run.Posterior.LogEvidence(), run.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert run '%s': %w", run.Name, err)
	}

	stmtInsertState := tx.StmtContext(ctx, s.stmtInsertState)
	for pos, state := range run.Chain {
		if _, err = stmtInsertState.ExecContext(ctx, run.ID, pos, state); err != nil {
			return fmt.Errorf("failed to insert chain position %d: %w", pos, err)
		}
	}

	stmtInsertVector := tx.StmtContext(ctx, s.stmtInsertVector)
	insertVector := func(kind string, row int, v dirichlet.Vector) error {
		for state, weight := range v {
			if _, err := stmtInsertVector.ExecContext(ctx, run.ID, kind, row, state, weight); err != nil {
				return fmt.Errorf("failed to insert %s vector (row %d): %w", kind, row, err)
			}
		}
		return nil
	}

	if err = insertVector(kindPriorInitial, -1, run.Priors.Initial()); err != nil {
		return err
	}
	if err = insertVector(kindPosteriorInitial, -1, run.Posterior.Initial()); err != nil {
		return err
	}
	for row := 0; row < k; row++ {
		if err = insertVector(kindPriorRow, row, run.Priors.Row(row)); err != nil {
			return err
		}
		if err = insertVector(kindPosteriorRow, row, run.Posterior.Row(row)); err != nil {
			return err
		}
	}

	s.logger.InfoContext(ctx, "Run saved",
		slog.String("run_id", run.ID),
		slog.String("run_name", run.Name),
		slog.Int("states", k),
		slog.Int("chain_length", len(run.Chain)),
		slog.Float64("log_evidence", run.Posterior.LogEvidence()),
	)

	return tx.Commit()
}

// GetRun loads a stored run by ID, rebuilding its priors and posterior
// through the validating constructors in pkg/bayes.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	var (
		name        string
		stateCount  int
		chainLength int
		seed        int64
		logEvidence float64
		createdAt   int64
	)
	err := s.stmtGetRun.QueryRowContext(ctx, id).Scan(&name, &stateCount, &chainLength, &seed, &logEvidence, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("could not load run '%s': %w", id, err)
	}

	chain := make([]int, 0, chainLength)
	rows, err := s.stmtGetChain.QueryContext(ctx, id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var state int
		if err = rows.Scan(&state); err != nil {
			_ = rows.Close()
			return nil, err
		}
		chain = append(chain, state)
	}
	if err = rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	priorInitial := make(dirichlet.Vector, stateCount)
	postInitial := make(dirichlet.Vector, stateCount)
	priorRows := make([]dirichlet.Vector, stateCount)
	postRows := make([]dirichlet.Vector, stateCount)
	for i := range priorRows {
		priorRows[i] = make(dirichlet.Vector, stateCount)
		postRows[i] = make(dirichlet.Vector, stateCount)
	}

	vRows, err := s.stmtGetVectors.QueryContext(ctx, id)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(vRows)

	for vRows.Next() {
		var (
			kind   string
			row    int
			state  int
			weight float64
		)
		if err = vRows.Scan(&kind, &row, &state, &weight); err != nil {
			return nil, err
		}
		if state < 0 || state >= stateCount {
			return nil, fmt.Errorf("consistency error: vector state %d out of range for run '%s'", state, id)
		}
		switch kind {
		case kindPriorInitial:
			priorInitial[state] = weight
		case kindPosteriorInitial:
			postInitial[state] = weight
		case kindPriorRow, kindPosteriorRow:
			if row < 0 || row >= stateCount {
				return nil, fmt.Errorf("consistency error: vector row %d out of range for run '%s'", row, id)
			}
			if kind == kindPriorRow {
				priorRows[row][state] = weight
			} else {
				postRows[row][state] = weight
			}
		default:
			return nil, fmt.Errorf("consistency error: unknown vector kind '%s' for run '%s'", kind, id)
		}
	}
	if err = vRows.Err(); err != nil {
		return nil, err
	}

	priors, err := bayes.NewPriors(priorInitial, priorRows)
	if err != nil {
		return nil, fmt.Errorf("stored priors for run '%s' are invalid: %w", id, err)
	}
	posterior, err := bayes.NewPosterior(postInitial, postRows, logEvidence)
	if err != nil {
		return nil, fmt.Errorf("stored posterior for run '%s' is invalid: %w", id, err)
	}

	return &Run{
		ID:        id,
		Name:      name,
		Seed:      uint64(seed),
		Chain:     chain,
		Priors:    priors,
		Posterior: posterior,
		CreatedAt: time.Unix(createdAt, 0),
	}, nil
}

// ListRuns returns summary metadata for every stored run, ordered by
// creation time.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.stmtListRuns.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var infos []RunInfo
	for rows.Next() {
		var (
			info      RunInfo
			seed      int64
			createdAt int64
		)
		if err = rows.Scan(&info.ID, &info.Name, &info.States, &info.ChainLength, &seed, &info.LogEvidence, &createdAt); err != nil {
			return nil, err
		}
		info.Seed = uint64(seed)
		info.CreatedAt = time.Unix(createdAt, 0)
		infos = append(infos, info)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return infos, nil
}

// DeleteRun removes a run and all of its associated chain and vector data.
// The operation is performed within a transaction.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.ExecContext(ctx, "DELETE FROM run_vectors WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("failed to remove vectors for run '%s': %w", id, err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM run_chains WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("failed to remove chain for run '%s': %w", id, err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM estimation_runs WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("failed to remove run '%s': %w", id, err)
	}

	s.logger.InfoContext(ctx, "Run removed",
		slog.String("run_id", id),
	)

	return tx.Commit()
}

// ExportRun serializes a stored run into JSON and writes it to the provided
// io.Writer. This is useful for backups or for transferring runs between
// databases.
func (s *Store) ExportRun(ctx context.Context, id string, w io.Writer) error {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return err
	}

	exported := ExportedRun{
		Name:             run.Name,
		Seed:             run.Seed,
		Chain:            run.Chain,
		PriorInitial:     run.Priors.Initial(),
		PriorRows:        make([]dirichlet.Vector, run.Posterior.States()),
		PosteriorInitial: run.Posterior.Initial(),
		PosteriorRows:    run.Posterior.Rows(),
		LogEvidence:      run.Posterior.LogEvidence(),
	}
	for k := range exported.PriorRows {
		exported.PriorRows[k] = run.Priors.Row(k)
	}

	s.logger.InfoContext(ctx, "Run exported",
		slog.String("run_id", run.ID),
		slog.String("run_name", run.Name),
	)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exported)
}

// ImportRun reads a JSON representation of a run from an io.Reader and
// stores it under a freshly assigned ID, which is returned. The vectors pass
// through the same validation as any other run.
func (s *Store) ImportRun(ctx context.Context, r io.Reader) (string, error) {
	var imported ExportedRun
	if err := json.NewDecoder(r).Decode(&imported); err != nil {
		return "", fmt.Errorf("failed to decode json run: %w", err)
	}

	priors, err := bayes.NewPriors(imported.PriorInitial, imported.PriorRows)
	if err != nil {
		return "", fmt.Errorf("imported priors are invalid: %w", err)
	}
	posterior, err := bayes.NewPosterior(imported.PosteriorInitial, imported.PosteriorRows, imported.LogEvidence)
	if err != nil {
		return "", fmt.Errorf("imported posterior is invalid: %w", err)
	}

	run := &Run{
		Name:      imported.Name,
		Seed:      imported.Seed,
		Chain:     imported.Chain,
		Priors:    priors,
		Posterior: posterior,
	}
	if err := s.SaveRun(ctx, run); err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "Run imported",
		slog.String("run_id", run.ID),
		slog.String("run_name", run.Name),
	)

	return run.ID, nil
}
