package bayes

import "fmt"

// SufficientStats holds the count summaries that fully determine the
// conjugate posterior of a fully observed chain: a one-hot indicator on the
// observed first state and, for each source state k, the number of times each
// destination state immediately followed k.
type SufficientStats struct {
	Initial     []float64
	Transitions [][]float64
}

// Tally validates an observed chain against a state count of k and reduces
// it to its sufficient statistics. Validation runs over the whole chain
// before any counting, so an out-of-range state leaves no partial tallies
// behind.
func Tally(chain []int, k int) (*SufficientStats, error) {
	if len(chain) == 0 {
		return nil, ErrEmptyChain
	}
	for t, s := range chain {
		if s < 0 || s >= k {
			return nil, fmt.Errorf("%w: chain[%d] = %d, want [0, %d)", ErrInvalidState, t, s, k)
		}
	}

	stats := &SufficientStats{
		Initial:     make([]float64, k),
		Transitions: make([][]float64, k),
	}
	for i := range stats.Transitions {
		stats.Transitions[i] = make([]float64, k)
	}

	stats.Initial[chain[0]]++
	for t := 1; t < len(chain); t++ {
		stats.Transitions[chain[t-1]][chain[t]]++
	}
	return stats, nil
}
