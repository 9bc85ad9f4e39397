package stats

import (
	"math"
	"sort"
)

// TestID identifies a registered test variant.
type TestID string

const (
	// Parametric location tests
	OneSampleTTest TestID = "one_sample_t_test"
	TwoSampleTTest TestID = "two_sample_t_test"
	PairedTTest    TestID = "paired_t_test"
	OneWayANOVA    TestID = "one_way_anova"

	// Rank-based location tests
	MannWhitneyU       TestID = "mann_whitney_u"
	WilcoxonSignedRank TestID = "wilcoxon_signed_rank"
	KruskalWallis      TestID = "kruskal_wallis"

	// Normality tests
	KolmogorovSmirnov TestID = "kolmogorov_smirnov"
	AndersonDarling   TestID = "anderson_darling"
	JarqueBera        TestID = "jarque_bera"

	// Variance tests
	Levene        TestID = "levene"
	Bartlett      TestID = "bartlett"
	FTestVariance TestID = "f_test_variance"

	// Association tests
	ChiSquareGoodness   TestID = "chi_square_goodness"
	SpearmanCorrelation TestID = "spearman_correlation"
)

// String returns the identifier string.
func (id TestID) String() string { return string(id) }

// Tail selects the alternative hypothesis direction.
type Tail string

const (
	TailTwoSided Tail = "two_sided"
	TailGreater  Tail = "greater"
	TailLess     Tail = "less"
)

// Scale is a caller-supplied measurement scale hint.
type Scale string

const (
	ScaleContinuous Scale = "continuous"
	ScaleOrdinal    Scale = "ordinal"
)

// Decision is the verdict derived from comparing p-value to alpha.
type Decision string

const (
	DecisionReject       Decision = "reject"
	DecisionFailToReject Decision = "fail_to_reject"
)

// NewDecision derives the verdict: reject iff p < alpha.
func NewDecision(pValue, alpha float64) Decision {
	if pValue < alpha {
		return DecisionReject
	}
	return DecisionFailToReject
}

// Sample is one named ordered sequence of observations.
type Sample struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Samples is the ordered collection of sample groups passed to a run.
type Samples []Sample

// Lengths returns the per-sample size map keyed by sample name.
func (s Samples) Lengths() map[string]int {
	sizes := make(map[string]int, len(s))
	for _, g := range s {
		sizes[g.Name] = len(g.Values)
	}
	return sizes
}

// MinLen returns the smallest group length, or 0 for no groups.
func (s Samples) MinLen() int {
	if len(s) == 0 {
		return 0
	}
	min := len(s[0].Values)
	for _, g := range s[1:] {
		if len(g.Values) < min {
			min = len(g.Values)
		}
	}
	return min
}

// Groups returns the raw value slices in order.
func (s Samples) Groups() [][]float64 {
	groups := make([][]float64, len(s))
	for i, g := range s {
		groups[i] = g.Values
	}
	return groups
}

// HasNonFinite reports the first sample containing a NaN or infinity.
func (s Samples) HasNonFinite() (string, bool) {
	for _, g := range s {
		for _, v := range g.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return g.Name, true
			}
		}
	}
	return "", false
}

// Params carries the scalar parameters of one test invocation.
type Params struct {
	Alpha    float64   `json:"alpha"`
	Mu0      float64   `json:"mu0"`
	Tail     Tail      `json:"tail"`
	EqualVar bool      `json:"equal_var"`
	Expected []float64 `json:"expected,omitempty"` // goodness-of-fit proportions
}

// DefaultParams returns the conventional defaults: alpha 0.05, two-sided,
// equal variances assumed.
func DefaultParams() Params {
	return Params{Alpha: 0.05, Tail: TailTwoSided, EqualVar: true}
}

// AssumptionReport maps assumption names to pass/fail, with a reason per
// failure. Computed fresh per invocation and never mutated afterward.
type AssumptionReport struct {
	Checks  map[string]bool   `json:"checks"`
	Reasons map[string]string `json:"reasons,omitempty"`
}

// NewAssumptionReport creates an empty report.
func NewAssumptionReport() AssumptionReport {
	return AssumptionReport{
		Checks:  make(map[string]bool),
		Reasons: make(map[string]string),
	}
}

// Set records one assumption result. The reason is kept only for failures.
func (r AssumptionReport) Set(name string, ok bool, reason string) {
	r.Checks[name] = ok
	if !ok && reason != "" {
		r.Reasons[name] = reason
	}
}

// Failed returns the sorted names of violated assumptions.
func (r AssumptionReport) Failed() []string {
	var failed []string
	for name, ok := range r.Checks {
		if !ok {
			failed = append(failed, name)
		}
	}
	sort.Strings(failed)
	return failed
}

// AllMet reports whether every checked assumption holds.
func (r AssumptionReport) AllMet() bool {
	for _, ok := range r.Checks {
		if !ok {
			return false
		}
	}
	return true
}

// Interval is a pair of confidence bounds.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}
