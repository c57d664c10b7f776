package bayes

import (
	"fmt"

	"github.com/CTAG07/Darlingtonia/pkg/dirichlet"
)

// Priors holds the Dirichlet hyperparameters of a chain model: one vector for
// the initial-state distribution and one vector per transition row. Row k
// governs the distribution of the state that follows state k. All vectors
// share the same length K.
type Priors struct {
	initial dirichlet.Vector
	rows    []dirichlet.Vector
}

// UniformPriors returns the non-informative prior configuration over k
// states: K+1 symmetric Dirichlet(1, ..., 1) vectors.
func UniformPriors(k int) *Priors {
	rows := make([]dirichlet.Vector, k)
	for i := range rows {
		rows[i] = dirichlet.Uniform(k)
	}
	return &Priors{
		initial: dirichlet.Uniform(k),
		rows:    rows,
	}
}

// NewPriors builds a prior configuration from caller-supplied pseudo-count
// vectors. It fails with ErrInvalidPrior if any entry is non-positive, if any
// vector length differs from the initial vector's, or if the number of
// transition rows differs from the state count. The inputs are copied.
func NewPriors(initial dirichlet.Vector, rows []dirichlet.Vector) (*Priors, error) {
	k := len(initial)
	if err := initial.Validate(k); err != nil {
		return nil, fmt.Errorf("%w: initial vector: %v", ErrInvalidPrior, err)
	}
	if len(rows) != k {
		return nil, fmt.Errorf("%w: got %d transition rows, want %d", ErrInvalidPrior, len(rows), k)
	}
	copied := make([]dirichlet.Vector, k)
	for i, row := range rows {
		if err := row.Validate(k); err != nil {
			return nil, fmt.Errorf("%w: transition row %d: %v", ErrInvalidPrior, i, err)
		}
		copied[i] = row.Clone()
	}
	return &Priors{
		initial: initial.Clone(),
		rows:    copied,
	}, nil
}

// States returns the number of chain states K.
func (p *Priors) States() int {
	return len(p.initial)
}

// Initial returns a copy of the initial-distribution prior vector.
func (p *Priors) Initial() dirichlet.Vector {
	return p.initial.Clone()
}

// Row returns a copy of the transition-row prior vector for state k.
func (p *Priors) Row(k int) dirichlet.Vector {
	return p.rows[k].Clone()
}

// Clone returns an independent deep copy of the prior configuration.
func (p *Priors) Clone() *Priors {
	rows := make([]dirichlet.Vector, len(p.rows))
	for i, row := range p.rows {
		rows[i] = row.Clone()
	}
	return &Priors{
		initial: p.initial.Clone(),
		rows:    rows,
	}
}
