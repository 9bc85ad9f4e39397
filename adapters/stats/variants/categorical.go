package variants

import (
	"fmt"
	"math"

	"hypotest/adapters/stats/dist"
	"hypotest/adapters/stats/engine"
	"hypotest/domain/core"
	"hypotest/domain/stats"
)

// NewChiSquareGoodness tests observed category counts against expected
// frequencies. Expected frequencies come from Params.Expected, either as
// counts or as proportions summing to one; when absent a uniform
// distribution over the categories is assumed.
func NewChiSquareGoodness() *engine.Variant {
	return &engine.Variant{
		ID:        stats.ChiSquareGoodness,
		Name:      "Chi-Square Goodness-of-Fit Test",
		MinGroups: 1,
		MaxGroups: 1,
		MinLen:    2,
		Hypotheses: func(s stats.Samples, p stats.Params) (string, string) {
			return fmt.Sprintf("H0: the observed frequencies of %s match the expected distribution", s[0].Name),
				fmt.Sprintf("H1: the observed frequencies of %s differ from the expected distribution", s[0].Name)
		},
		Assumptions: func(s stats.Samples, p stats.Params) stats.AssumptionReport {
			report := stats.NewAssumptionReport()
			report.Set("independence", true, "")
			nonNegative := true
			for _, v := range s[0].Values {
				if v < 0 {
					nonNegative = false
					break
				}
			}
			report.Set("non_negative_counts", nonNegative, "observed counts must not be negative")
			expected, err := expectedCounts(s[0].Values, p.Expected)
			adequate := err == nil
			if adequate {
				for _, e := range expected {
					if e < 5 {
						adequate = false
						break
					}
				}
			}
			report.Set("expected_cell_size", adequate, "an expected cell frequency is below 5, chi-squared approximation unreliable")
			return report
		},
		Compute: func(s stats.Samples, p stats.Params) (float64, float64, error) {
			observed := s[0].Values
			expected, err := expectedCounts(observed, p.Expected)
			if err != nil {
				return 0, 0, err
			}
			var chi2 float64
			for i, o := range observed {
				d := o - expected[i]
				chi2 += d * d / expected[i]
			}
			return chi2, dist.ChiSquaredUpperTail(chi2, float64(len(observed)-1)), nil
		},
		EffectSize: func(s stats.Samples, p stats.Params) (*float64, string) {
			observed := s[0].Values
			expected, err := expectedCounts(observed, p.Expected)
			if err != nil {
				return nil, "effect size unavailable"
			}
			var chi2, total float64
			for i, o := range observed {
				d := o - expected[i]
				chi2 += d * d / expected[i]
				total += o
			}
			k := float64(len(observed))
			if total == 0 || k < 2 {
				return nil, "effect size unavailable"
			}
			// Cramer's V for a one-way table
			return fptr(math.Sqrt(chi2 / (total * (k - 1)))), ""
		},
		Interpret: func(statistic, pValue float64, s stats.Samples, p stats.Params) string {
			if pValue < p.Alpha {
				return fmt.Sprintf("The observed frequencies of %s deviate significantly from the expected distribution (chi2=%.2f, df=%d, p=%.4f). With p < alpha=%g, we reject H0.",
					s[0].Name, statistic, len(s[0].Values)-1, pValue, p.Alpha)
			}
			return fmt.Sprintf("The observed frequencies of %s are consistent with the expected distribution (chi2=%.2f, df=%d, p=%.4f). With p >= alpha=%g, we fail to reject H0.",
				s[0].Name, statistic, len(s[0].Values)-1, pValue, p.Alpha)
		},
	}
}

// expectedCounts resolves the expected frequencies for a goodness-of-fit
// test. Proportions are scaled to the observed total; an empty expectation
// means uniform.
func expectedCounts(observed, expected []float64) ([]float64, error) {
	var total float64
	for _, o := range observed {
		total += o
	}
	if total == 0 {
		return nil, core.NewDegenerateInputError("observed", "all observed counts are zero")
	}

	k := len(observed)
	out := make([]float64, k)
	switch {
	case len(expected) == 0:
		for i := range out {
			out[i] = total / float64(k)
		}
	case len(expected) != k:
		return nil, core.NewValidationError("expected frequencies", fmt.Sprintf("%d entries for %d observed categories", len(expected), k))
	default:
		var expTotal float64
		for _, e := range expected {
			if e <= 0 {
				return nil, core.NewDegenerateInputError("expected", "expected frequencies must be positive")
			}
			expTotal += e
		}
		scale := total / expTotal
		for i, e := range expected {
			out[i] = e * scale
		}
	}
	return out, nil
}
