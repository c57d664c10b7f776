package bayes

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/CTAG07/Darlingtonia/pkg/dirichlet"
)

// Strategy computes a posterior from a prior configuration and a fully
// observed chain. The interface exists as an extension point: if partially
// observed chains ever need support, an approximate-inference strategy can be
// swapped in without touching the Model API.
type Strategy interface {
	// Name identifies the strategy in logs and stored runs.
	Name() string
	// Infer returns the posterior and total log evidence for the chain.
	// Implementations must not mutate the priors and must be deterministic
	// functions of their inputs.
	Infer(priors *Priors, chain []int) (*Posterior, error)
}

// ExactConjugate is the closed-form Dirichlet-multinomial strategy. Under
// full observation the model is conjugate, so the posterior is exact: each
// posterior vector is the prior plus the observed counts, and the evidence is
// the product (in log-space, the sum) of the Dirichlet-multinomial marginals
// of the initial term and the K independent transition rows.
type ExactConjugate struct{}

// Name implements Strategy.
func (ExactConjugate) Name() string { return "exact_conjugate" }

// Infer implements Strategy.
func (ExactConjugate) Infer(priors *Priors, chain []int) (*Posterior, error) {
	k := priors.States()
	stats, err := Tally(chain, k)
	if err != nil {
		return nil, err
	}

	logEvidence := priors.initial.LogMarginal(stats.Initial)
	rows := make([]dirichlet.Vector, k)
	for i := range rows {
		// A row with no observed departures stays equal to its prior
		// and contributes log(1) = 0 evidence; that falls out of the
		// identity with no special casing.
		rows[i] = priors.rows[i].Add(stats.Transitions[i])
		logEvidence += priors.rows[i].LogMarginal(stats.Transitions[i])
	}

	return &Posterior{
		initial:     priors.initial.Add(stats.Initial),
		rows:        rows,
		logEvidence: logEvidence,
	}, nil
}

// Model estimates the parameters of a first-order Markov chain with a fixed
// chain length and state count. A fresh Model carries uniform priors; callers
// with domain knowledge replace them via SetPriors before inference.
//
// Inference itself is a pure computation: repeated Infer calls with the same
// chain and priors yield identical results, and independent Models may run in
// parallel without synchronization. A single Model is not safe for concurrent
// prior mutation and inference.
type Model struct {
	chainLength int
	stateCount  int
	priors      *Priors
	strategy    Strategy
	logger      *slog.Logger
}

// NewModel creates a Model for chains of length chainLength over stateCount
// states, both of which must be at least 1. The model starts with uniform
// priors and the ExactConjugate strategy.
func NewModel(chainLength, stateCount int) (*Model, error) {
	if chainLength < 1 {
		return nil, fmt.Errorf("%w: chain length %d, must be >= 1", ErrInvalidDimension, chainLength)
	}
	if stateCount < 1 {
		return nil, fmt.Errorf("%w: state count %d, must be >= 1", ErrInvalidDimension, stateCount)
	}
	return &Model{
		chainLength: chainLength,
		stateCount:  stateCount,
		priors:      UniformPriors(stateCount),
		strategy:    ExactConjugate{},
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// SetLogger sets the logger for the Model. By default, all logs are discarded.
func (m *Model) SetLogger(logger *slog.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// SetStrategy replaces the inference strategy. A nil strategy is ignored.
func (m *Model) SetStrategy(s Strategy) {
	if s != nil {
		m.strategy = s
	}
}

// SetUniformPriors resets the model to the non-informative symmetric
// Dirichlet(1, ..., 1) configuration.
func (m *Model) SetUniformPriors() {
	m.priors = UniformPriors(m.stateCount)
}

// SetPriors installs a caller-supplied prior configuration. It fails with
// ErrInvalidPrior if the configuration's state count does not match the
// model's. The priors are copied; later mutation of the argument has no
// effect on the model.
func (m *Model) SetPriors(p *Priors) error {
	if p == nil {
		return fmt.Errorf("%w: nil priors", ErrInvalidPrior)
	}
	if p.States() != m.stateCount {
		return fmt.Errorf("%w: priors cover %d states, model has %d", ErrInvalidPrior, p.States(), m.stateCount)
	}
	m.priors = p.Clone()
	return nil
}

// ChainLength returns the configured chain length T.
func (m *Model) ChainLength() int { return m.chainLength }

// States returns the configured state count K.
func (m *Model) States() int { return m.stateCount }

// Priors returns a copy of the model's current prior configuration.
func (m *Model) Priors() *Priors {
	return m.priors.Clone()
}

// Infer computes the posterior parameter distributions and the model
// evidence for an observed chain. The chain must have exactly the model's
// configured length and every state must lie in [0, K); validation failures
// leave no partial result. The model's priors are not mutated.
func (m *Model) Infer(chain []int) (*Posterior, error) {
	if len(chain) == 0 {
		return nil, ErrEmptyChain
	}
	if len(chain) != m.chainLength {
		return nil, fmt.Errorf("%w: chain length %d, model expects %d", ErrInvalidDimension, len(chain), m.chainLength)
	}

	post, err := m.strategy.Infer(m.priors, chain)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("Inference completed",
		slog.String("strategy", m.strategy.Name()),
		slog.Int("states", m.stateCount),
		slog.Int("chain_length", m.chainLength),
		slog.Float64("log_evidence", post.LogEvidence()),
	)

	return post, nil
}
