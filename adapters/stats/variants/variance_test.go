package variants

import (
	"math"
	"testing"

	"hypotest/domain/core"
	"hypotest/domain/stats"
	"hypotest/internal/testkit"
)

// TestVarianceVariants_EqualSpread verifies neither dispersion test rejects
// groups with identical spread.
func TestVarianceVariants_EqualSpread(t *testing.T) {
	gen := testkit.NewGenerator(testkit.DefaultSeed)
	samples := stats.Samples{
		{Name: "a", Values: gen.Normal(40, 10, 3)},
		{Name: "b", Values: gen.Normal(40, 12, 3)},
		{Name: "c", Values: gen.Normal(40, 14, 3)},
	}

	for name, v := range map[string]func() (float64, float64, error){
		"levene":   func() (float64, float64, error) { return NewLevene().Compute(samples, stats.DefaultParams()) },
		"bartlett": func() (float64, float64, error) { return NewBartlett().Compute(samples, stats.DefaultParams()) },
	} {
		_, pValue, err := v()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if pValue <= 0.01 {
			t.Errorf("%s: rejected equal spreads (p=%.4f)", name, pValue)
		}
	}
}

// TestVarianceVariants_UnequalSpread verifies both dispersion tests reject
// a 10x spread difference.
func TestVarianceVariants_UnequalSpread(t *testing.T) {
	gen := testkit.NewGenerator(testkit.DefaultSeed)
	samples := stats.Samples{
		{Name: "tight", Values: gen.Normal(40, 10, 1)},
		{Name: "medium", Values: gen.Normal(40, 10, 3)},
		{Name: "wide", Values: gen.Normal(40, 10, 10)},
	}

	for name, compute := range map[string]func(stats.Samples, stats.Params) (float64, float64, error){
		"levene":   NewLevene().Compute,
		"bartlett": NewBartlett().Compute,
	} {
		_, pValue, err := compute(samples, stats.DefaultParams())
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if stats.NewDecision(pValue, 0.05) != stats.DecisionReject {
			t.Errorf("%s: failed to reject 10x spread difference (p=%.4f)", name, pValue)
		}
	}
}

// TestBartlett_ZeroVariance verifies a constant group is degenerate.
func TestBartlett_ZeroVariance(t *testing.T) {
	samples := stats.Samples{
		{Name: "constant", Values: []float64{4, 4, 4, 4}},
		{Name: "varying", Values: []float64{1, 2, 3, 4}},
	}
	if _, _, err := NewBartlett().Compute(samples, stats.DefaultParams()); !core.IsDegenerateInputError(err) {
		t.Fatalf("expected DegenerateInput error, got %v", err)
	}
}

// TestFTestVariance_Ratio verifies the statistic is the variance ratio and
// F=1 for identical groups yields p=1 two-sided.
func TestFTestVariance_Ratio(t *testing.T) {
	gen := testkit.NewGenerator(testkit.DefaultSeed)
	a := gen.NormalExact(25, 10, 2)
	b := gen.NormalExact(25, 10, 6)
	samples := stats.Samples{
		{Name: "a", Values: a},
		{Name: "b", Values: b},
	}

	v := NewFTestVariance()
	f, pValue, err := v.Compute(samples, stats.DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// ratio of exact variances: 4/36
	if math.Abs(f-4.0/36.0) > 1e-9 {
		t.Errorf("F = %v, want %v", f, 4.0/36.0)
	}
	if stats.NewDecision(pValue, 0.05) != stats.DecisionReject {
		t.Errorf("3x sd difference should reject, got p=%.4f", pValue)
	}

	effect, _ := v.EffectSize(samples, stats.DefaultParams())
	if effect == nil || math.Abs(*effect-f) > 1e-12 {
		t.Errorf("effect size should be the variance ratio, got %v", effect)
	}

	same := stats.Samples{
		{Name: "x", Values: a},
		{Name: "y", Values: a},
	}
	fSame, pSame, err := v.Compute(same, stats.DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fSame != 1 {
		t.Errorf("identical groups should give F=1, got %v", fSame)
	}
	if math.Abs(pSame-1) > 1e-9 {
		t.Errorf("identical groups should give two-sided p=1, got %v", pSame)
	}
}
