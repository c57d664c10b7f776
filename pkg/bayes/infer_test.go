package bayes

import (
	"errors"
	"math"
	"testing"

	"github.com/CTAG07/Darlingtonia/pkg/dirichlet"
)

const tol = 1e-12

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= tol
}

func vectorsEqual(a, b dirichlet.Vector) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewModelValidation(t *testing.T) {
	tests := []struct {
		name        string
		chainLength int
		stateCount  int
		wantErr     bool
	}{
		{"valid", 4, 3, false},
		{"single state single step", 1, 1, false},
		{"zero length", 0, 3, true},
		{"zero states", 4, 0, true},
		{"negative length", -1, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewModel(tt.chainLength, tt.stateCount)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewModel(%d, %d) error = %v, wantErr %v", tt.chainLength, tt.stateCount, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidDimension) {
				t.Errorf("NewModel() error = %v, want ErrInvalidDimension", err)
			}
		})
	}
}

// TestInferKnownScenario pins the full result of inferring over the chain
// 0 -> 1 -> 2 -> 0 with uniform priors. Under a uniform prior every
// categorical term has marginal probability 1/3, and the chain contributes
// one initial term plus three transition terms.
func TestInferKnownScenario(t *testing.T) {
	m, err := NewModel(4, 3)
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}

	post, err := m.Infer([]int{0, 1, 2, 0})
	if err != nil {
		t.Fatalf("Infer() error = %v", err)
	}

	if got, want := post.Initial(), (dirichlet.Vector{2, 1, 1}); !vectorsEqual(got, want) {
		t.Errorf("posterior initial = %v, want %v", got, want)
	}
	wantRows := []dirichlet.Vector{
		{1, 2, 1}, // one observed 0 -> 1
		{1, 1, 2}, // one observed 1 -> 2
		{2, 1, 1}, // one observed 2 -> 0
	}
	for k, want := range wantRows {
		if got := post.Row(k); !vectorsEqual(got, want) {
			t.Errorf("posterior row %d = %v, want %v", k, got, want)
		}
	}

	wantLogEvidence := -4 * math.Log(3)
	if !almostEqual(post.LogEvidence(), wantLogEvidence) {
		t.Errorf("LogEvidence() = %v, want %v", post.LogEvidence(), wantLogEvidence)
	}
	if !almostEqual(post.Evidence(), math.Exp(wantLogEvidence)) {
		t.Errorf("Evidence() = %v, want %v", post.Evidence(), math.Exp(wantLogEvidence))
	}
}

func TestInferPosteriorNeverBelowPrior(t *testing.T) {
	priors, err := NewPriors(
		dirichlet.Vector{0.5, 2, 7},
		[]dirichlet.Vector{{1, 1, 1}, {0.1, 0.1, 0.1}, {5, 3, 2}},
	)
	if err != nil {
		t.Fatalf("NewPriors() error = %v", err)
	}

	chain := []int{2, 1, 1, 0, 2, 2, 0, 1}
	m, err := NewModel(len(chain), 3)
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}
	if err := m.SetPriors(priors); err != nil {
		t.Fatalf("SetPriors() error = %v", err)
	}

	post, err := m.Infer(chain)
	if err != nil {
		t.Fatalf("Infer() error = %v", err)
	}

	for i, a := range post.Initial() {
		if a < priors.Initial()[i] {
			t.Errorf("posterior initial[%d] = %v below prior %v", i, a, priors.Initial()[i])
		}
	}
	for k := 0; k < 3; k++ {
		prior := priors.Row(k)
		for i, a := range post.Row(k) {
			if a < prior[i] {
				t.Errorf("posterior row %d[%d] = %v below prior %v", k, i, a, prior[i])
			}
		}
	}
}

func TestInferRowSumInvariant(t *testing.T) {
	chain := []int{0, 0, 1, 2, 1, 1, 2, 0, 0, 1}
	const k = 3

	m, err := NewModel(len(chain), k)
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}
	post, err := m.Infer(chain)
	if err != nil {
		t.Fatalf("Infer() error = %v", err)
	}

	// Sum of posterior row k minus sum of prior row k equals the number of
	// times state k appears in positions 0..T-2.
	occurrences := make([]float64, k)
	for _, s := range chain[:len(chain)-1] {
		occurrences[s]++
	}
	priors := m.Priors()
	for row := 0; row < k; row++ {
		diff := post.Row(row).Sum() - priors.Row(row).Sum()
		if !almostEqual(diff, occurrences[row]) {
			t.Errorf("row %d posterior-prior sum difference = %v, want %v", row, diff, occurrences[row])
		}
	}
}

func TestInferIdempotent(t *testing.T) {
	chain := []int{1, 0, 2, 2, 1, 0}
	m, err := NewModel(len(chain), 3)
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}

	first, err := m.Infer(chain)
	if err != nil {
		t.Fatalf("first Infer() error = %v", err)
	}
	second, err := m.Infer(chain)
	if err != nil {
		t.Fatalf("second Infer() error = %v", err)
	}

	if first.LogEvidence() != second.LogEvidence() {
		t.Errorf("LogEvidence differs between calls: %v vs %v", first.LogEvidence(), second.LogEvidence())
	}
	if !vectorsEqual(first.Initial(), second.Initial()) {
		t.Errorf("posterior initial differs between calls")
	}
	for k := 0; k < 3; k++ {
		if !vectorsEqual(first.Row(k), second.Row(k)) {
			t.Errorf("posterior row %d differs between calls", k)
		}
	}
}

// TestInferPermutationInvariance checks that under uniform priors the total
// log evidence does not depend on how the state labels are assigned.
func TestInferPermutationInvariance(t *testing.T) {
	chain := []int{0, 1, 1, 2, 0, 2, 2, 1, 0, 0}
	perm := []int{2, 0, 1}

	relabeled := make([]int, len(chain))
	for i, s := range chain {
		relabeled[i] = perm[s]
	}

	m, err := NewModel(len(chain), 3)
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}

	orig, err := m.Infer(chain)
	if err != nil {
		t.Fatalf("Infer(chain) error = %v", err)
	}
	swapped, err := m.Infer(relabeled)
	if err != nil {
		t.Fatalf("Infer(relabeled) error = %v", err)
	}

	if !almostEqual(orig.LogEvidence(), swapped.LogEvidence()) {
		t.Errorf("LogEvidence changed under relabeling: %v vs %v", orig.LogEvidence(), swapped.LogEvidence())
	}
}

func TestInferSingleObservation(t *testing.T) {
	// T = 1 means no transitions at all: only the initial vector moves,
	// every transition row stays equal to its prior, and the evidence is
	// just the initial term.
	m, err := NewModel(1, 3)
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}

	post, err := m.Infer([]int{2})
	if err != nil {
		t.Fatalf("Infer() error = %v", err)
	}

	if got, want := post.Initial(), (dirichlet.Vector{1, 1, 2}); !vectorsEqual(got, want) {
		t.Errorf("posterior initial = %v, want %v", got, want)
	}
	priors := m.Priors()
	for k := 0; k < 3; k++ {
		if !vectorsEqual(post.Row(k), priors.Row(k)) {
			t.Errorf("posterior row %d = %v, want prior %v unchanged", k, post.Row(k), priors.Row(k))
		}
	}
	if want := math.Log(1.0 / 3); !almostEqual(post.LogEvidence(), want) {
		t.Errorf("LogEvidence() = %v, want %v", post.LogEvidence(), want)
	}
}

func TestInferErrors(t *testing.T) {
	m, err := NewModel(4, 3)
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}

	if _, err := m.Infer(nil); !errors.Is(err, ErrEmptyChain) {
		t.Errorf("Infer(nil) error = %v, want ErrEmptyChain", err)
	}
	if _, err := m.Infer([]int{0, 1}); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("Infer(short chain) error = %v, want ErrInvalidDimension", err)
	}
	if _, err := m.Infer([]int{0, 1, 3, 0}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Infer(out-of-range state) error = %v, want ErrInvalidState", err)
	}
	if _, err := m.Infer([]int{0, 1, -1, 0}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Infer(negative state) error = %v, want ErrInvalidState", err)
	}
}

func TestInferDoesNotMutatePriors(t *testing.T) {
	m, err := NewModel(4, 2)
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}

	before := m.Priors()
	if _, err := m.Infer([]int{0, 1, 0, 1}); err != nil {
		t.Fatalf("Infer() error = %v", err)
	}
	after := m.Priors()

	if !vectorsEqual(before.Initial(), after.Initial()) {
		t.Errorf("Infer mutated initial prior: %v -> %v", before.Initial(), after.Initial())
	}
	for k := 0; k < 2; k++ {
		if !vectorsEqual(before.Row(k), after.Row(k)) {
			t.Errorf("Infer mutated prior row %d: %v -> %v", k, before.Row(k), after.Row(k))
		}
	}
}

func BenchmarkInfer(b *testing.B) {
	const k = 8
	const length = 4096

	chain := make([]int, length)
	for i := range chain {
		chain[i] = (i * 31) % k
	}
	m, err := NewModel(length, k)
	if err != nil {
		b.Fatalf("NewModel() error = %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := m.Infer(chain); err != nil {
			b.Fatalf("Infer() error = %v", err)
		}
	}
}
