// Package simulate generates synthetic observation chains from known
// ground-truth Markov parameters. It is a collaborator of the estimation
// engine in pkg/bayes: sampled chains are plain []int input to inference, and
// the ground-truth parameters kept here let callers compare posterior means
// against the distribution that actually produced the data.
package simulate

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// ErrInvalidDistribution is returned when a supplied probability vector has a
// negative entry, a non-positive total, or the wrong length.
var ErrInvalidDistribution = errors.New("simulate: invalid probability distribution")

// Sampler draws state chains from fixed ground-truth initial and transition
// probabilities. Sampling is deterministic for a given seed.
type Sampler struct {
	initial     []float64
	transitions [][]float64
	rng         *rand.Rand
}

// NewSampler builds a Sampler over len(initial) states. Each probability
// vector must be non-negative with a positive sum; vectors are copied and
// explicitly renormalized to sum to exactly 1, so a row supplied as raw
// weights (or one that drifted slightly from 1 in earlier arithmetic) never
// biases the final category. The seed fully determines the sample stream.
func NewSampler(initial []float64, transitions [][]float64, seed uint64) (*Sampler, error) {
	k := len(initial)
	if k < 1 {
		return nil, fmt.Errorf("%w: need at least one state", ErrInvalidDistribution)
	}
	init, err := normalize(initial, k)
	if err != nil {
		return nil, fmt.Errorf("initial distribution: %w", err)
	}
	if len(transitions) != k {
		return nil, fmt.Errorf("%w: got %d transition rows, want %d", ErrInvalidDistribution, len(transitions), k)
	}
	rows := make([][]float64, k)
	for i, row := range transitions {
		rows[i], err = normalize(row, k)
		if err != nil {
			return nil, fmt.Errorf("transition row %d: %w", i, err)
		}
	}
	return &Sampler{
		initial:     init,
		transitions: rows,
		rng:         rand.New(rand.NewPCG(seed, seed)),
	}, nil
}

// States returns the number of states.
func (s *Sampler) States() int {
	return len(s.initial)
}

// Initial returns a copy of the normalized ground-truth initial distribution.
func (s *Sampler) Initial() []float64 {
	out := make([]float64, len(s.initial))
	copy(out, s.initial)
	return out
}

// Transition returns a copy of the normalized ground-truth transition row
// for state k.
func (s *Sampler) Transition(k int) []float64 {
	out := make([]float64, len(s.transitions[k]))
	copy(out, s.transitions[k])
	return out
}

// Chain samples a chain of t states: the first from the initial
// distribution, each subsequent state from the transition row of its
// predecessor. t must be at least 1.
func (s *Sampler) Chain(t int) ([]int, error) {
	if t < 1 {
		return nil, fmt.Errorf("%w: chain length %d, must be >= 1", ErrInvalidDistribution, t)
	}
	chain := make([]int, t)
	chain[0] = s.draw(s.initial)
	for i := 1; i < t; i++ {
		chain[i] = s.draw(s.transitions[chain[i-1]])
	}
	return chain, nil
}

// draw picks a category by walking the cumulative distribution. The vectors
// are normalized at construction, so the trailing fallback only covers
// float64 rounding at the very top of the cumulative sum.
func (s *Sampler) draw(probs []float64) int {
	r := s.rng.Float64()
	for i, p := range probs {
		r -= p
		if r < 0 {
			return i
		}
	}
	return len(probs) - 1
}

// normalize validates a probability vector and returns a copy scaled to sum
// to 1.
func normalize(probs []float64, k int) ([]float64, error) {
	if len(probs) != k {
		return nil, fmt.Errorf("%w: got %d entries, want %d", ErrInvalidDistribution, len(probs), k)
	}
	for i, p := range probs {
		if p < 0 || math.IsNaN(p) {
			return nil, fmt.Errorf("%w: entry %d is %v, must be >= 0", ErrInvalidDistribution, i, p)
		}
	}
	total := floats.Sum(probs)
	if total <= 0 {
		return nil, fmt.Errorf("%w: entries sum to %v, must be > 0", ErrInvalidDistribution, total)
	}
	out := make([]float64, k)
	for i, p := range probs {
		out[i] = p / total
	}
	return out, nil
}
