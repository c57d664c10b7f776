package bayes

import (
	"fmt"
	"math"

	"github.com/CTAG07/Darlingtonia/pkg/dirichlet"
)

// Posterior is an immutable snapshot of an inference result: the posterior
// Dirichlet vectors for the initial distribution and every transition row,
// together with the total log model evidence of the observed chain. All
// accessors return copies, so a Posterior can be shared freely between
// reporting and storage collaborators.
type Posterior struct {
	initial     dirichlet.Vector
	rows        []dirichlet.Vector
	logEvidence float64
}

// NewPosterior assembles a posterior bundle from already-computed vectors,
// validating their shape. It exists so that stored runs can be rehydrated;
// fresh inference results come from Model.Infer.
func NewPosterior(initial dirichlet.Vector, rows []dirichlet.Vector, logEvidence float64) (*Posterior, error) {
	k := len(initial)
	if err := initial.Validate(k); err != nil {
		return nil, fmt.Errorf("%w: posterior initial vector: %v", ErrInvalidPrior, err)
	}
	if len(rows) != k {
		return nil, fmt.Errorf("%w: got %d posterior rows, want %d", ErrInvalidPrior, len(rows), k)
	}
	copied := make([]dirichlet.Vector, k)
	for i, row := range rows {
		if err := row.Validate(k); err != nil {
			return nil, fmt.Errorf("%w: posterior row %d: %v", ErrInvalidPrior, i, err)
		}
		copied[i] = row.Clone()
	}
	return &Posterior{
		initial:     initial.Clone(),
		rows:        copied,
		logEvidence: logEvidence,
	}, nil
}

// States returns the number of chain states K.
func (p *Posterior) States() int {
	return len(p.initial)
}

// Initial returns a copy of the posterior initial-distribution vector.
func (p *Posterior) Initial() dirichlet.Vector {
	return p.initial.Clone()
}

// Row returns a copy of the posterior transition-row vector for state k.
func (p *Posterior) Row(k int) dirichlet.Vector {
	return p.rows[k].Clone()
}

// Rows returns copies of all posterior transition-row vectors.
func (p *Posterior) Rows() []dirichlet.Vector {
	rows := make([]dirichlet.Vector, len(p.rows))
	for i, row := range p.rows {
		rows[i] = row.Clone()
	}
	return rows
}

// InitialMean returns the posterior mean of the initial distribution.
func (p *Posterior) InitialMean() []float64 {
	return p.initial.Mean()
}

// RowMean returns the posterior mean of transition row k.
func (p *Posterior) RowMean(k int) []float64 {
	return p.rows[k].Mean()
}

// LogEvidence returns the total log marginal likelihood of the observed
// chain under the prior. This is the value callers should compare and
// aggregate.
func (p *Posterior) LogEvidence() float64 {
	return p.logEvidence
}

// Evidence returns exp(LogEvidence) as a convenience. For long chains this
// underflows to 0 in float64; that is expected, and callers needing
// probability-like behavior should work with LogEvidence instead.
func (p *Posterior) Evidence() float64 {
	return math.Exp(p.logEvidence)
}
