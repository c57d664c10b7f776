package dirichlet

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrInvalidVector is returned when a pseudo-count vector falls outside the
// Dirichlet support: a non-positive entry, an empty vector, or a length that
// does not match the expected number of states.
var ErrInvalidVector = errors.New("dirichlet: invalid parameter vector")

// Vector is a Dirichlet parameter vector: one strictly positive pseudo-count
// per state. A Vector represents either a prior or a posterior belief over a
// categorical distribution on its indices.
type Vector []float64

// Uniform returns the symmetric, non-informative Dirichlet(1, ..., 1) vector
// over k states.
func Uniform(k int) Vector {
	v := make(Vector, k)
	for i := range v {
		v[i] = 1
	}
	return v
}

// Validate checks that the vector has exactly k strictly positive entries.
// NaN entries are rejected along with zeros and negatives.
func (v Vector) Validate(k int) error {
	if len(v) != k {
		return fmt.Errorf("%w: got %d entries, want %d", ErrInvalidVector, len(v), k)
	}
	for i, a := range v {
		if math.IsNaN(a) || a <= 0 {
			return fmt.Errorf("%w: entry %d is %v, must be > 0", ErrInvalidVector, i, a)
		}
	}
	return nil
}

// Clone returns an independent copy of the vector.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Sum returns the total concentration of the vector.
func (v Vector) Sum() float64 {
	return floats.Sum(v)
}

// Add returns a new vector holding the elementwise sum of v and counts.
// Neither input is mutated; this is the conjugate posterior update for a
// Dirichlet prior combined with categorical observation counts.
func (v Vector) Add(counts []float64) Vector {
	out := v.Clone()
	floats.Add(out, counts)
	return out
}

// Mean returns the mean of the Dirichlet distribution parameterized by v:
// each entry divided by the total concentration.
func (v Vector) Mean() []float64 {
	total := v.Sum()
	mean := make([]float64, len(v))
	for i, a := range v {
		mean[i] = a / total
	}
	return mean
}

// LogNorm returns the log of the Dirichlet normalizing constant for v:
//
//	logZ(v) = sum_i lgamma(v_i) - lgamma(sum_i v_i)
func (v Vector) LogNorm() float64 {
	var sum float64
	for _, a := range v {
		sum += lgamma(a)
	}
	return sum - lgamma(v.Sum())
}

// LogMarginal returns the log marginal likelihood of observing the given
// categorical counts under a Dirichlet(v) prior, with the categorical
// parameter integrated out:
//
//	logZ(v + counts) - logZ(v)
//
// This is the Dirichlet-multinomial normalizing-constant identity. The
// computation stays in log-space throughout; callers aggregating evidence
// across independent terms should sum log values and exponentiate only at
// the very end, if at all.
func (v Vector) LogMarginal(counts []float64) float64 {
	return v.Add(counts).LogNorm() - v.LogNorm()
}

// lgamma returns the log of the gamma function for a positive argument.
func lgamma(x float64) float64 {
	u, _ := math.Lgamma(x)
	return u
}
