package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/CTAG07/Darlingtonia/pkg/bayes"
	"github.com/CTAG07/Darlingtonia/pkg/dirichlet"
	"github.com/CTAG07/Darlingtonia/pkg/experiment"
	"github.com/CTAG07/Darlingtonia/pkg/simulate"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	configPath := "./config.json"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	baseLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := run(configPath); err != nil {
		baseLogger.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

// run executes a single estimation experiment: sample a chain from the
// configured ground truth, infer the posterior, report it, and persist the
// run.
func run(configPath string) error {

	config, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var logLevel slog.Level
	switch strings.ToLower(config.LogLevel) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	logger.Info("Starting estimation run", "config", configPath, "version", Version)

	if err = os.MkdirAll(config.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := initDB(config.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	if err = experiment.SetupSchema(db); err != nil {
		return fmt.Errorf("failed to setup experiment schema: %w", err)
	}
	store, err := experiment.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create run store: %w", err)
	}
	defer store.Close()
	store.SetLogger(logger)

	exp := config.Experiment
	sampler, err := simulate.NewSampler(exp.Initial, exp.Transitions, exp.Seed)
	if err != nil {
		return fmt.Errorf("invalid ground-truth parameters: %w", err)
	}

	model, err := bayes.NewModel(exp.ChainLength, sampler.States())
	if err != nil {
		return fmt.Errorf("invalid experiment dimensions: %w", err)
	}
	model.SetLogger(logger)

	priors, err := buildPriors(exp, sampler.States())
	if err != nil {
		return err
	}
	if err = model.SetPriors(priors); err != nil {
		return fmt.Errorf("failed to set priors: %w", err)
	}

	chain, err := sampler.Chain(exp.ChainLength)
	if err != nil {
		return fmt.Errorf("failed to sample chain: %w", err)
	}
	logger.Debug("Chain sampled", "length", len(chain), "seed", exp.Seed)

	post, err := model.Infer(chain)
	if err != nil {
		return fmt.Errorf("inference failed: %w", err)
	}

	if err = writeReport(os.Stdout, sampler, model.Priors(), post); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	runRecord := &experiment.Run{
		Name:      exp.Name,
		Seed:      exp.Seed,
		Chain:     chain,
		Priors:    model.Priors(),
		Posterior: post,
	}
	if err = store.SaveRun(context.Background(), runRecord); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	logger.Info("Estimation run complete",
		"run_id", runRecord.ID,
		"run_name", runRecord.Name,
		"log_evidence", post.LogEvidence(),
	)

	return nil
}

// buildPriors assembles the prior configuration from the experiment config,
// defaulting to the non-informative uniform setup when no explicit
// pseudo-counts are given.
func buildPriors(exp *ExperimentConfig, k int) (*bayes.Priors, error) {
	if len(exp.PriorInitial) == 0 && len(exp.PriorRows) == 0 {
		return bayes.UniformPriors(k), nil
	}

	initial := dirichlet.Vector(exp.PriorInitial)
	rows := make([]dirichlet.Vector, len(exp.PriorRows))
	for i, row := range exp.PriorRows {
		rows[i] = dirichlet.Vector(row)
	}
	priors, err := bayes.NewPriors(initial, rows)
	if err != nil {
		return nil, fmt.Errorf("configured priors rejected: %w", err)
	}
	return priors, nil
}
