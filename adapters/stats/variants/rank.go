package variants

import (
	"fmt"
	"math"
	"sort"

	"hypotest/adapters/stats/dist"
	"hypotest/adapters/stats/engine"
	"hypotest/domain/core"
	"hypotest/domain/stats"
)

// midranks assigns average ranks to values, returning the rank slice in the
// original order and the tie term sum(t^3 - t) over tie groups, which the
// rank tests fold into their variance corrections.
func midranks(values []float64) ([]float64, float64) {
	n := len(values)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	ranks := make([]float64, n)
	var tieSum float64
	for i := 0; i < n; {
		j := i
		for j < n && values[idx[j]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2 // average of 1-based ranks i+1..j
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		if t := float64(j - i); t > 1 {
			tieSum += t*t*t - t
		}
		i = j
	}
	return ranks, tieSum
}

// NewMannWhitneyU compares two independent groups on rank sums, the
// non-parametric counterpart of the two-sample t-test.
func NewMannWhitneyU() *engine.Variant {
	return &engine.Variant{
		ID:        stats.MannWhitneyU,
		Name:      "Mann-Whitney U Test",
		MinGroups: 2,
		MaxGroups: 2,
		MinLen:    3,
		Hypotheses: func(s stats.Samples, p stats.Params) (string, string) {
			return fmt.Sprintf("H0: the distributions of %s and %s are equal", s[0].Name, s[1].Name),
				fmt.Sprintf("H1: the distributions of %s and %s differ", s[0].Name, s[1].Name)
		},
		Assumptions: func(s stats.Samples, p stats.Params) stats.AssumptionReport {
			report := stats.NewAssumptionReport()
			report.Set("independence", true, "")
			report.Set("ordinal_scale", true, "")
			n := len(s[0].Values) + len(s[1].Values)
			report.Set("sufficient_size", n >= 8, "combined n below 8, normal approximation unreliable")
			return report
		},
		Compute: func(s stats.Samples, p stats.Params) (float64, float64, error) {
			u, z, err := mannWhitneyUZ(s[0].Values, s[1].Values)
			if err != nil {
				return 0, 0, err
			}
			return u, dist.NormalPValue(z, p.Tail), nil
		},
		EffectSize: func(s stats.Samples, p stats.Params) (*float64, string) {
			u, _, err := mannWhitneyUZ(s[0].Values, s[1].Values)
			if err != nil {
				return nil, "effect size unavailable"
			}
			n1n2 := float64(len(s[0].Values) * len(s[1].Values))
			// rank-biserial correlation
			return fptr(1 - 2*u/n1n2), ""
		},
		Interpret: func(statistic, pValue float64, s stats.Samples, p stats.Params) string {
			m1, m2 := median(s[0].Values), median(s[1].Values)
			if pValue < p.Alpha {
				return fmt.Sprintf("The distributions of %s (median %.2f) and %s (median %.2f) differ significantly (U=%.1f, p=%.4f). With p < alpha=%g, we reject H0.",
					s[0].Name, m1, s[1].Name, m2, statistic, pValue, p.Alpha)
			}
			return fmt.Sprintf("No significant difference between the distributions of %s (median %.2f) and %s (median %.2f) (U=%.1f, p=%.4f). With p >= alpha=%g, we fail to reject H0.",
				s[0].Name, m1, s[1].Name, m2, statistic, pValue, p.Alpha)
		},
	}
}

func mannWhitneyUZ(a, b []float64) (u, z float64, err error) {
	n1, n2 := float64(len(a)), float64(len(b))
	combined := make([]float64, 0, len(a)+len(b))
	combined = append(combined, a...)
	combined = append(combined, b...)
	ranks, tieSum := midranks(combined)

	var r1 float64
	for i := range a {
		r1 += ranks[i]
	}
	u1 := r1 - n1*(n1+1)/2
	u2 := n1*n2 - u1
	u = math.Min(u1, u2)

	n := n1 + n2
	mu := n1 * n2 / 2
	variance := n1 * n2 / 12 * ((n + 1) - tieSum/(n*(n-1)))
	if variance <= 0 {
		return 0, 0, core.NewDegenerateInputError("combined", "all observations are tied, U statistic has zero variance")
	}
	// continuity correction toward the mean
	z = (u - mu + 0.5) / math.Sqrt(variance)
	return u, z, nil
}

// NewWilcoxonSignedRank compares paired samples on signed ranks of the
// differences, the non-parametric counterpart of the paired t-test.
func NewWilcoxonSignedRank() *engine.Variant {
	return &engine.Variant{
		ID:        stats.WilcoxonSignedRank,
		Name:      "Wilcoxon Signed-Rank Test",
		MinGroups: 2,
		MaxGroups: 2,
		Paired:    true,
		MinLen:    5,
		Hypotheses: func(s stats.Samples, p stats.Params) (string, string) {
			return "H0: the median difference between pairs is zero",
				"H1: the median difference between pairs is not zero"
		},
		Assumptions: func(s stats.Samples, p stats.Params) stats.AssumptionReport {
			report := stats.NewAssumptionReport()
			report.Set("paired_samples", len(s[0].Values) == len(s[1].Values), "sample lengths differ")
			report.Set("symmetric_differences", true, "")
			nonZero := 0
			for _, d := range diffs(s[0].Values, s[1].Values) {
				if d != 0 {
					nonZero++
				}
			}
			report.Set("sufficient_size", nonZero >= 5, "fewer than 5 non-zero differences")
			return report
		},
		Compute: func(s stats.Samples, p stats.Params) (float64, float64, error) {
			w, z, err := wilcoxonWZ(diffs(s[0].Values, s[1].Values))
			if err != nil {
				return 0, 0, err
			}
			return w, dist.NormalPValue(z, p.Tail), nil
		},
		EffectSize: func(s stats.Samples, p stats.Params) (*float64, string) {
			d := diffs(s[0].Values, s[1].Values)
			_, z, err := wilcoxonWZ(d)
			if err != nil {
				return nil, "effect size unavailable"
			}
			n := 0
			for _, v := range d {
				if v != 0 {
					n++
				}
			}
			// r = z / sqrt(n) over non-zero pairs
			return fptr(math.Abs(z) / math.Sqrt(float64(n))), ""
		},
		Interpret: func(statistic, pValue float64, s stats.Samples, p stats.Params) string {
			md := median(diffs(s[0].Values, s[1].Values))
			if pValue < p.Alpha {
				return fmt.Sprintf("The median difference between %s and %s (%.2f) is significant (W=%.1f, p=%.4f). With p < alpha=%g, we reject H0.",
					s[1].Name, s[0].Name, md, statistic, pValue, p.Alpha)
			}
			return fmt.Sprintf("The median difference between %s and %s (%.2f) is not significant (W=%.1f, p=%.4f). With p >= alpha=%g, we fail to reject H0.",
				s[1].Name, s[0].Name, md, statistic, pValue, p.Alpha)
		},
	}
}

func wilcoxonWZ(d []float64) (w, z float64, err error) {
	abs := make([]float64, 0, len(d))
	signs := make([]float64, 0, len(d))
	for _, v := range d {
		if v == 0 {
			continue // zero differences are discarded
		}
		abs = append(abs, math.Abs(v))
		signs = append(signs, math.Copysign(1, v))
	}
	n := float64(len(abs))
	if n == 0 {
		return 0, 0, core.NewDegenerateInputError("differences", "all paired differences are zero")
	}

	ranks, tieSum := midranks(abs)
	var wPlus, wMinus float64
	for i, r := range ranks {
		if signs[i] > 0 {
			wPlus += r
		} else {
			wMinus += r
		}
	}
	w = math.Min(wPlus, wMinus)

	mu := n * (n + 1) / 4
	variance := n*(n+1)*(2*n+1)/24 - tieSum/48
	if variance <= 0 {
		return 0, 0, core.NewDegenerateInputError("differences", "all differences are tied, W statistic has zero variance")
	}
	z = (w - mu + 0.5) / math.Sqrt(variance)
	return w, z, nil
}

// NewKruskalWallis extends the rank comparison to three or more independent
// groups, the non-parametric counterpart of one-way ANOVA.
func NewKruskalWallis() *engine.Variant {
	return &engine.Variant{
		ID:        stats.KruskalWallis,
		Name:      "Kruskal-Wallis Test",
		MinGroups: 2,
		MinLen:    3,
		Hypotheses: func(s stats.Samples, p stats.Params) (string, string) {
			return fmt.Sprintf("H0: all %d groups come from the same distribution", len(s)),
				"H1: at least one group differs in distribution from the others"
		},
		Assumptions: func(s stats.Samples, p stats.Params) stats.AssumptionReport {
			report := stats.NewAssumptionReport()
			report.Set("independence", true, "")
			report.Set("ordinal_scale", true, "")
			small := false
			for _, g := range s {
				if len(g.Values) < 5 {
					small = true
					break
				}
			}
			report.Set("sufficient_size", !small, "a group has fewer than 5 observations, chi-squared approximation unreliable")
			return report
		},
		Compute: func(s stats.Samples, p stats.Params) (float64, float64, error) {
			h, df, err := kruskalWallisH(s)
			if err != nil {
				return 0, 0, err
			}
			return h, dist.ChiSquaredUpperTail(h, df), nil
		},
		EffectSize: func(s stats.Samples, p stats.Params) (*float64, string) {
			h, _, err := kruskalWallisH(s)
			if err != nil {
				return nil, "effect size unavailable"
			}
			k := float64(len(s))
			var n float64
			for _, g := range s {
				n += float64(len(g.Values))
			}
			if n <= k {
				return nil, "effect size unavailable"
			}
			// epsilon-squared
			return fptr((h - k + 1) / (n - k)), ""
		},
		Interpret: func(statistic, pValue float64, s stats.Samples, p stats.Params) string {
			if pValue < p.Alpha {
				return fmt.Sprintf("At least one of the %d groups differs significantly in distribution (H=%.2f, p=%.4f). With p < alpha=%g, we reject H0. Pairwise comparisons recommended to identify which groups differ.",
					len(s), statistic, pValue, p.Alpha)
			}
			return fmt.Sprintf("No significant differences in distribution among the %d groups (H=%.2f, p=%.4f). With p >= alpha=%g, we fail to reject H0.",
				len(s), statistic, pValue, p.Alpha)
		},
	}
}

func kruskalWallisH(s stats.Samples) (h, df float64, err error) {
	var combined []float64
	sizes := make([]int, len(s))
	for i, g := range s {
		combined = append(combined, g.Values...)
		sizes[i] = len(g.Values)
	}
	n := float64(len(combined))
	ranks, tieSum := midranks(combined)

	h = -3 * (n + 1)
	offset := 0
	for _, size := range sizes {
		var ri float64
		for j := 0; j < size; j++ {
			ri += ranks[offset+j]
		}
		h += 12 / (n * (n + 1)) * ri * ri / float64(size)
		offset += size
	}

	correction := 1 - tieSum/(n*n*n-n)
	if correction <= 0 {
		return 0, 0, core.NewDegenerateInputError("combined", "all observations are tied, H statistic has zero variance")
	}
	h /= correction
	return h, float64(len(s) - 1), nil
}
