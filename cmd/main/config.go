package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/natefinch/atomic"
)

// ExperimentConfig describes a single estimation experiment: the ground
// truth to sample from, the chain length, and optional informative priors.
// Empty prior fields fall back to the uniform Dirichlet(1, ..., 1)
// configuration.
type ExperimentConfig struct {
	Name         string      `json:"name"`
	ChainLength  int         `json:"chain_length"`
	Seed         uint64      `json:"seed"`
	Initial      []float64   `json:"initial"`
	Transitions  [][]float64 `json:"transitions"`
	PriorInitial []float64   `json:"prior_initial,omitempty"`
	PriorRows    [][]float64 `json:"prior_rows,omitempty"`
}

// Config is the top-level configuration struct.
type Config struct {
	LogLevel     string            `json:"log_level"`
	DataDir      string            `json:"data_dir"`
	DatabasePath string            `json:"database_path"`
	Experiment   *ExperimentConfig `json:"experiment_config"`
}

// envOverrides holds the environment variables that take precedence over the
// config file, so deployments can redirect logging and storage without
// editing JSON.
type envOverrides struct {
	LogLevel     string `env:"DARLINGTONIA_LOG_LEVEL"`
	DataDir      string `env:"DARLINGTONIA_DATA_DIR"`
	DatabasePath string `env:"DARLINGTONIA_DB_PATH"`
}

// DefaultConfig creates a configuration with default values: a three-state
// chain with one sticky state, estimated under uniform priors.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:     "info",
		DataDir:      "./data",
		DatabasePath: "./data/darlingtonia.db?_journal_mode=WAL&_busy_timeout=5000",
		Experiment: &ExperimentConfig{
			Name:        "default",
			ChainLength: 1000,
			Seed:        1,
			Initial:     []float64{0.5, 0.3, 0.2},
			Transitions: [][]float64{
				{0.8, 0.1, 0.1},
				{0.2, 0.6, 0.2},
				{0.1, 0.3, 0.6},
			},
		},
	}
}

// loadConfig reads the configuration from a JSON file at the given path and
// applies environment overrides. If the file doesn't exist, it creates one
// with default values.
func loadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, create it with the default config.
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Log a warning instead of failing, as the run can still proceed with defaults.
				fmt.Printf("warning: failed to write default config file: %v\n", err)
			}
			return applyEnvOverrides(config)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return applyEnvOverrides(config)
}

// applyEnvOverrides layers environment variables on top of the loaded config.
func applyEnvOverrides(config *Config) (*Config, error) {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return nil, fmt.Errorf("failed to parse environment overrides: %w", err)
	}
	if overrides.LogLevel != "" {
		config.LogLevel = overrides.LogLevel
	}
	if overrides.DataDir != "" {
		config.DataDir = overrides.DataDir
	}
	if overrides.DatabasePath != "" {
		config.DatabasePath = overrides.DatabasePath
	}
	return config, nil
}
