package variants

import (
	"math"
	"testing"

	"hypotest/domain/core"
	"hypotest/domain/stats"
	"hypotest/internal/testkit"
)

// TestOneWayANOVA_SeparatedGroups verifies clearly separated group means
// reject with a meaningful eta-squared.
func TestOneWayANOVA_SeparatedGroups(t *testing.T) {
	gen := testkit.NewGenerator(testkit.DefaultSeed)
	samples := gen.Groups(30, []float64{10, 15, 20}, 3)

	v := NewOneWayANOVA()
	f, pValue, err := v.Compute(samples, stats.DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f <= 1 {
		t.Errorf("F = %.4f, want well above 1 for separated means", f)
	}
	if stats.NewDecision(pValue, 0.05) != stats.DecisionReject {
		t.Errorf("separated groups should reject, got p=%.4f", pValue)
	}

	effect, _ := v.EffectSize(samples, stats.DefaultParams())
	if effect == nil {
		t.Fatal("expected eta-squared")
	}
	if *effect <= 0.3 || *effect >= 1 {
		t.Errorf("eta-squared = %.4f, want a large share of variance explained", *effect)
	}
}

// TestOneWayANOVA_IdenticalMeans verifies overlapping groups fail to reject.
func TestOneWayANOVA_IdenticalMeans(t *testing.T) {
	gen := testkit.NewGenerator(testkit.DefaultSeed)
	samples := gen.Groups(30, []float64{10, 10, 10}, 3)

	v := NewOneWayANOVA()
	_, pValue, err := v.Compute(samples, stats.DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.NewDecision(pValue, 0.05) != stats.DecisionFailToReject {
		t.Errorf("identical means should fail to reject, got p=%.4f", pValue)
	}
}

// TestOneWayANOVA_ZeroWithinVariance verifies the degenerate path.
func TestOneWayANOVA_ZeroWithinVariance(t *testing.T) {
	samples := stats.Samples{
		{Name: "a", Values: []float64{1, 1, 1}},
		{Name: "b", Values: []float64{2, 2, 2}},
	}
	v := NewOneWayANOVA()
	if _, _, err := v.Compute(samples, stats.DefaultParams()); !core.IsDegenerateInputError(err) {
		t.Fatalf("expected DegenerateInput error, got %v", err)
	}
}

// TestMidranks_TieHandling verifies average ranks and the tie term.
func TestMidranks_TieHandling(t *testing.T) {
	ranks, tieSum := midranks([]float64{3, 1, 4, 1, 5})
	// sorted: 1,1,3,4,5 -> ranks 1.5,1.5,3,4,5 in sorted order
	want := []float64{3, 1.5, 4, 1.5, 5}
	for i, r := range ranks {
		if r != want[i] {
			t.Errorf("rank[%d] = %v, want %v", i, r, want[i])
		}
	}
	// one tie group of size 2: 2^3 - 2 = 6
	if tieSum != 6 {
		t.Errorf("tieSum = %v, want 6", tieSum)
	}
}

// TestMannWhitneyU_ShiftedGroups verifies a clear location shift rejects
// and the rank-biserial effect is large.
func TestMannWhitneyU_ShiftedGroups(t *testing.T) {
	gen := testkit.NewGenerator(testkit.DefaultSeed)
	a := gen.Skewed(40, 1)
	b := gen.Shifted(gen.Skewed(40, 1), 5)
	samples := stats.Samples{
		{Name: "baseline", Values: a},
		{Name: "shifted", Values: b},
	}

	v := NewMannWhitneyU()
	u, pValue, err := v.Compute(samples, stats.DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u < 0 || u > 40*40 {
		t.Errorf("U = %v outside [0, n1*n2]", u)
	}
	if stats.NewDecision(pValue, 0.05) != stats.DecisionReject {
		t.Errorf("5-unit shift should reject, got p=%.4f", pValue)
	}

	effect, _ := v.EffectSize(samples, stats.DefaultParams())
	if effect == nil || math.Abs(*effect) < 0.5 {
		t.Errorf("rank-biserial correlation should be large for a clear shift, got %v", effect)
	}
}

// TestMannWhitneyU_AllTied verifies fully tied data is degenerate.
func TestMannWhitneyU_AllTied(t *testing.T) {
	samples := stats.Samples{
		{Name: "a", Values: []float64{7, 7, 7, 7}},
		{Name: "b", Values: []float64{7, 7, 7, 7}},
	}
	v := NewMannWhitneyU()
	if _, _, err := v.Compute(samples, stats.DefaultParams()); !core.IsDegenerateInputError(err) {
		t.Fatalf("expected DegenerateInput error, got %v", err)
	}
}

// TestWilcoxonSignedRank_Drift verifies a consistent drift rejects and zero
// differences are discarded.
func TestWilcoxonSignedRank_Drift(t *testing.T) {
	gen := testkit.NewGenerator(testkit.DefaultSeed)
	before, after := gen.Paired(30, 50, 10, 6, 2)
	samples := stats.Samples{
		{Name: "before", Values: before},
		{Name: "after", Values: after},
	}

	v := NewWilcoxonSignedRank()
	w, pValue, err := v.Compute(samples, stats.DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w < 0 {
		t.Errorf("W = %v, must be non-negative", w)
	}
	if stats.NewDecision(pValue, 0.05) != stats.DecisionReject {
		t.Errorf("consistent drift should reject, got p=%.4f", pValue)
	}
}

// TestWilcoxonSignedRank_AllZeroDiffs verifies identical pairs are degenerate.
func TestWilcoxonSignedRank_AllZeroDiffs(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	samples := stats.Samples{
		{Name: "before", Values: values},
		{Name: "after", Values: values},
	}
	v := NewWilcoxonSignedRank()
	if _, _, err := v.Compute(samples, stats.DefaultParams()); !core.IsDegenerateInputError(err) {
		t.Fatalf("expected DegenerateInput error, got %v", err)
	}
}

// TestKruskalWallis_Shifts verifies location shifts across three groups
// reject under the chi-squared approximation.
func TestKruskalWallis_Shifts(t *testing.T) {
	gen := testkit.NewGenerator(testkit.DefaultSeed)
	base := gen.Skewed(30, 1)
	samples := stats.Samples{
		{Name: "low", Values: base},
		{Name: "mid", Values: gen.Shifted(gen.Skewed(30, 1), 3)},
		{Name: "high", Values: gen.Shifted(gen.Skewed(30, 1), 6)},
	}

	v := NewKruskalWallis()
	h, pValue, err := v.Compute(samples, stats.DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h <= 0 {
		t.Errorf("H = %v, want positive for shifted groups", h)
	}
	if stats.NewDecision(pValue, 0.05) != stats.DecisionReject {
		t.Errorf("shifted groups should reject, got p=%.4f", pValue)
	}
}
