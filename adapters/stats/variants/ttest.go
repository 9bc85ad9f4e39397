package variants

import (
	"fmt"
	"math"

	"hypotest/adapters/stats/dist"
	"hypotest/adapters/stats/engine"
	"hypotest/domain/core"
	"hypotest/domain/stats"
	"hypotest/internal/assume"
)

// NewOneSampleTTest tests whether the mean of a single sample differs from
// a hypothesized value.
func NewOneSampleTTest() *engine.Variant {
	return &engine.Variant{
		ID:        stats.OneSampleTTest,
		Name:      "One-Sample T-Test",
		MinGroups: 1,
		MaxGroups: 1,
		MinLen:    2,
		Hypotheses: func(s stats.Samples, p stats.Params) (string, string) {
			null := fmt.Sprintf("H0: mu = %g (population mean equals %g)", p.Mu0, p.Mu0)
			switch p.Tail {
			case stats.TailGreater:
				return null, fmt.Sprintf("H1: mu > %g (population mean is greater than %g)", p.Mu0, p.Mu0)
			case stats.TailLess:
				return null, fmt.Sprintf("H1: mu < %g (population mean is less than %g)", p.Mu0, p.Mu0)
			default:
				return null, fmt.Sprintf("H1: mu != %g (population mean differs from %g)", p.Mu0, p.Mu0)
			}
		},
		Assumptions: func(s stats.Samples, p stats.Params) stats.AssumptionReport {
			data := s[0].Values
			report := stats.NewAssumptionReport()
			normal, reason := assume.Normality(data)
			report.Set("normality", normal || len(data) > 30, reason)
			report.Set("independence", true, "")
			report.Set("sufficient_sample_size", len(data) >= 2, "fewer than 2 observations")
			report.Set("non_zero_variance", assume.NonZeroVariance(data), "all observations identical")
			return report
		},
		Compute: func(s stats.Samples, p stats.Params) (float64, float64, error) {
			data := s[0].Values
			n := float64(len(data))
			sd := sampleSD(data)
			if sd == 0 {
				return 0, 0, core.NewDegenerateInputError(s[0].Name, "zero variance, t statistic undefined")
			}
			t := (mean(data) - p.Mu0) / (sd / math.Sqrt(n))
			return t, dist.StudentTPValue(t, n-1, p.Tail), nil
		},
		EffectSize: func(s stats.Samples, p stats.Params) (*float64, string) {
			data := s[0].Values
			sd := sampleSD(data)
			if sd == 0 {
				return nil, "effect size unavailable: zero standard deviation"
			}
			return fptr((mean(data) - p.Mu0) / sd), ""
		},
		ConfInterval: func(s stats.Samples, p stats.Params) (*stats.Interval, string) {
			data := s[0].Values
			n := float64(len(data))
			sd := sampleSD(data)
			if sd == 0 {
				return nil, "confidence interval unavailable: zero standard deviation"
			}
			se := sd / math.Sqrt(n)
			m := mean(data)
			crit := dist.StudentTQuantile(1-p.Alpha/2, n-1)
			return &stats.Interval{Lower: m - crit*se, Upper: m + crit*se}, ""
		},
		Interpret: func(statistic, pValue float64, s stats.Samples, p stats.Params) string {
			m := mean(s[0].Values)
			diff := m - p.Mu0
			pct := 0.0
			if p.Mu0 != 0 {
				pct = diff / p.Mu0 * 100
			}
			if pValue < p.Alpha {
				return fmt.Sprintf("The sample mean (%.2f) is statistically significantly different from the hypothesized value (%g). This represents a %.1f%% change. With p=%.4f < alpha=%g, we reject H0.",
					m, p.Mu0, pct, pValue, p.Alpha)
			}
			return fmt.Sprintf("The sample mean (%.2f) is not statistically significantly different from the hypothesized value (%g). With p=%.4f >= alpha=%g, we fail to reject H0. The observed difference could be due to random variation.",
				m, p.Mu0, pValue, p.Alpha)
		},
	}
}

// NewTwoSampleTTest compares the means of two independent groups, in
// pooled-variance or Welch (unequal-variance) mode via Params.EqualVar.
func NewTwoSampleTTest() *engine.Variant {
	return &engine.Variant{
		ID:        stats.TwoSampleTTest,
		Name:      "Independent Two-Sample T-Test",
		MinGroups: 2,
		MaxGroups: 2,
		MinLen:    2,
		Hypotheses: func(s stats.Samples, p stats.Params) (string, string) {
			null := "H0: mu1 = mu2 (both groups have equal means)"
			switch p.Tail {
			case stats.TailGreater:
				return null, "H1: mu1 > mu2 (group 1 mean is greater)"
			case stats.TailLess:
				return null, "H1: mu1 < mu2 (group 1 mean is less)"
			default:
				return null, "H1: mu1 != mu2 (groups have different means)"
			}
		},
		Assumptions: func(s stats.Samples, p stats.Params) stats.AssumptionReport {
			g1, g2 := s[0].Values, s[1].Values
			report := stats.NewAssumptionReport()
			n1, r1 := assume.Normality(g1)
			n2, r2 := assume.Normality(g2)
			report.Set("group1_normality", n1 || len(g1) > 30, r1)
			report.Set("group2_normality", n2 || len(g2) > 30, r2)
			eq, reason := assume.EqualVariances([][]float64{g1, g2})
			report.Set("equal_variances", eq, reason)
			report.Set("independence", true, "")
			return report
		},
		Compute: func(s stats.Samples, p stats.Params) (float64, float64, error) {
			g1, g2 := s[0].Values, s[1].Values
			n1, n2 := float64(len(g1)), float64(len(g2))
			v1, v2 := sampleVariance(g1), sampleVariance(g2)
			if v1 == 0 && v2 == 0 {
				return 0, 0, core.NewDegenerateInputError(s[0].Name+","+s[1].Name, "zero variance in both groups")
			}

			var t, df float64
			if p.EqualVar {
				pooled := ((n1-1)*v1 + (n2-1)*v2) / (n1 + n2 - 2)
				se := math.Sqrt(pooled * (1/n1 + 1/n2))
				if se == 0 {
					return 0, 0, core.NewDegenerateInputError(s[0].Name, "zero pooled variance")
				}
				t = (mean(g1) - mean(g2)) / se
				df = n1 + n2 - 2
			} else {
				se := math.Sqrt(v1/n1 + v2/n2)
				if se == 0 {
					return 0, 0, core.NewDegenerateInputError(s[0].Name, "zero standard error")
				}
				t = (mean(g1) - mean(g2)) / se
				df = welchDF(v1, v2, n1, n2)
			}
			return t, dist.StudentTPValue(t, df, p.Tail), nil
		},
		EffectSize: func(s stats.Samples, p stats.Params) (*float64, string) {
			g1, g2 := s[0].Values, s[1].Values
			n1, n2 := float64(len(g1)), float64(len(g2))
			v1, v2 := sampleVariance(g1), sampleVariance(g2)
			pooledSD := math.Sqrt(((n1-1)*v1 + (n2-1)*v2) / (n1 + n2 - 2))
			if pooledSD == 0 {
				return nil, "effect size unavailable: zero pooled standard deviation"
			}
			return fptr((mean(g1) - mean(g2)) / pooledSD), ""
		},
		ConfInterval: func(s stats.Samples, p stats.Params) (*stats.Interval, string) {
			g1, g2 := s[0].Values, s[1].Values
			n1, n2 := float64(len(g1)), float64(len(g2))
			v1, v2 := sampleVariance(g1), sampleVariance(g2)

			var se, df float64
			if p.EqualVar {
				pooled := ((n1-1)*v1 + (n2-1)*v2) / (n1 + n2 - 2)
				se = math.Sqrt(pooled * (1/n1 + 1/n2))
				df = n1 + n2 - 2
			} else {
				se = math.Sqrt(v1/n1 + v2/n2)
				df = welchDF(v1, v2, n1, n2)
			}
			if se == 0 {
				return nil, "confidence interval unavailable: zero standard error"
			}
			diff := mean(g1) - mean(g2)
			crit := dist.StudentTQuantile(1-p.Alpha/2, df)
			return &stats.Interval{Lower: diff - crit*se, Upper: diff + crit*se}, ""
		},
		Interpret: func(statistic, pValue float64, s stats.Samples, p stats.Params) string {
			m1, m2 := mean(s[0].Values), mean(s[1].Values)
			diff := m1 - m2
			if pValue < p.Alpha {
				return fmt.Sprintf("Group %q (mean=%.2f) and group %q (mean=%.2f) are statistically significantly different (difference=%.2f). With p=%.4f < alpha=%g, we reject H0.",
					s[0].Name, m1, s[1].Name, m2, diff, pValue, p.Alpha)
			}
			return fmt.Sprintf("No significant difference between group %q (mean=%.2f) and group %q (mean=%.2f). With p=%.4f >= alpha=%g, we fail to reject H0.",
				s[0].Name, m1, s[1].Name, m2, pValue, p.Alpha)
		},
	}
}

// NewPairedTTest compares the means of two related samples through their
// per-pair differences.
func NewPairedTTest() *engine.Variant {
	return &engine.Variant{
		ID:        stats.PairedTTest,
		Name:      "Paired T-Test",
		MinGroups: 2,
		MaxGroups: 2,
		Paired:    true,
		MinLen:    2,
		Hypotheses: func(s stats.Samples, p stats.Params) (string, string) {
			null := "H0: mu_diff = 0 (no difference between paired observations)"
			switch p.Tail {
			case stats.TailGreater:
				return null, "H1: mu_diff > 0 (second measurement is greater)"
			case stats.TailLess:
				return null, "H1: mu_diff < 0 (second measurement is less)"
			default:
				return null, "H1: mu_diff != 0 (there is a difference)"
			}
		},
		Assumptions: func(s stats.Samples, p stats.Params) stats.AssumptionReport {
			d := diffs(s[0].Values, s[1].Values)
			report := stats.NewAssumptionReport()
			normal, reason := assume.Normality(d)
			report.Set("differences_normality", normal || len(d) > 30, reason)
			report.Set("paired_data", true, "")
			report.Set("independence", true, "")
			return report
		},
		Compute: func(s stats.Samples, p stats.Params) (float64, float64, error) {
			d := diffs(s[0].Values, s[1].Values)
			n := float64(len(d))
			sd := sampleSD(d)
			if sd == 0 {
				return 0, 0, core.NewDegenerateInputError(s[0].Name, "all paired differences identical, t statistic undefined")
			}
			// Convention: statistic on the difference second-minus-first.
			t := mean(d) / (sd / math.Sqrt(n))
			return t, dist.StudentTPValue(t, n-1, p.Tail), nil
		},
		EffectSize: func(s stats.Samples, p stats.Params) (*float64, string) {
			d := diffs(s[0].Values, s[1].Values)
			sd := sampleSD(d)
			if sd == 0 {
				return nil, "effect size unavailable: zero standard deviation of differences"
			}
			return fptr(mean(d) / sd), ""
		},
		ConfInterval: func(s stats.Samples, p stats.Params) (*stats.Interval, string) {
			d := diffs(s[0].Values, s[1].Values)
			n := float64(len(d))
			sd := sampleSD(d)
			if sd == 0 {
				return nil, "confidence interval unavailable: zero standard deviation of differences"
			}
			se := sd / math.Sqrt(n)
			m := mean(d)
			crit := dist.StudentTQuantile(1-p.Alpha/2, n-1)
			return &stats.Interval{Lower: m - crit*se, Upper: m + crit*se}, ""
		},
		Interpret: func(statistic, pValue float64, s stats.Samples, p stats.Params) string {
			mBefore, mAfter := mean(s[0].Values), mean(s[1].Values)
			meanDiff := mAfter - mBefore
			if pValue < p.Alpha {
				direction := "increased"
				if meanDiff < 0 {
					direction = "decreased"
				}
				return fmt.Sprintf("Measurements significantly %s from %.2f to %.2f (difference=%.2f). With p=%.4f < alpha=%g, we reject H0.",
					direction, mBefore, mAfter, meanDiff, pValue, p.Alpha)
			}
			return fmt.Sprintf("No significant change from %.2f to %.2f. With p=%.4f >= alpha=%g, we fail to reject H0.",
				mBefore, mAfter, pValue, p.Alpha)
		},
	}
}

// welchDF is the Welch-Satterthwaite degrees of freedom.
func welchDF(v1, v2, n1, n2 float64) float64 {
	num := math.Pow(v1/n1+v2/n2, 2)
	den := math.Pow(v1/n1, 2)/(n1-1) + math.Pow(v2/n2, 2)/(n2-1)
	if den == 0 {
		return n1 + n2 - 2
	}
	return num / den
}
