package variants

import (
	"fmt"
	"math"
	"strings"

	"hypotest/adapters/stats/dist"
	"hypotest/adapters/stats/engine"
	"hypotest/domain/core"
	"hypotest/domain/stats"
	"hypotest/internal/assume"
)

func varianceHypotheses(s stats.Samples, p stats.Params) (string, string) {
	return fmt.Sprintf("H0: all %d groups have equal variance", len(s)),
		"H1: at least one group has a different variance"
}

func varianceInterpretation(testName string, statistic, pValue float64, s stats.Samples, p stats.Params) string {
	sds := make([]string, len(s))
	for i, g := range s {
		sds[i] = fmt.Sprintf("%s: %.2f", g.Name, sampleSD(g.Values))
	}
	joined := strings.Join(sds, ", ")
	if pValue < p.Alpha {
		return fmt.Sprintf("%s indicates the group variances differ significantly (statistic=%.4f, p=%.4f). Standard deviations: %s. With p < alpha=%g, we reject H0.",
			testName, statistic, pValue, joined, p.Alpha)
	}
	return fmt.Sprintf("%s finds no significant difference in group variances (statistic=%.4f, p=%.4f). Standard deviations: %s. With p >= alpha=%g, we fail to reject H0.",
		testName, statistic, pValue, joined, p.Alpha)
}

func varianceRecommendation(decision stats.Decision, report stats.AssumptionReport) string {
	if decision == stats.DecisionReject {
		return "Group variances are unequal. Use Welch's t-test or Welch's ANOVA rather than their pooled-variance forms, or a rank-based alternative."
	}
	return "Group variances are consistent with homogeneity. Pooled-variance tests (Student's t-test, standard ANOVA) are appropriate."
}

// NewLevene tests variance homogeneity on absolute deviations from the
// group medians (the Brown-Forsythe form), which is robust to departures
// from normality.
func NewLevene() *engine.Variant {
	return &engine.Variant{
		ID:         stats.Levene,
		Name:       "Levene's Test",
		MinGroups:  2,
		MinLen:     3,
		Hypotheses: varianceHypotheses,
		Assumptions: func(s stats.Samples, p stats.Params) stats.AssumptionReport {
			report := stats.NewAssumptionReport()
			report.Set("independence", true, "")
			report.Set("continuous_scale", true, "")
			return report
		},
		Compute: func(s stats.Samples, p stats.Params) (float64, float64, error) {
			w, df1, df2, err := assume.LeveneStatistic(s.Groups())
			if err != nil {
				return 0, 0, err
			}
			return w, dist.FUpperTail(w, df1, df2), nil
		},
		EffectSize: func(s stats.Samples, p stats.Params) (*float64, string) {
			return nil, "effect size not applicable to variance homogeneity tests"
		},
		Interpret: func(statistic, pValue float64, s stats.Samples, p stats.Params) string {
			return varianceInterpretation("Levene's test", statistic, pValue, s, p)
		},
		Recommend: varianceRecommendation,
	}
}

// NewBartlett tests variance homogeneity under a normality assumption. It
// is more powerful than Levene's test when the groups are normal and much
// less reliable when they are not.
func NewBartlett() *engine.Variant {
	return &engine.Variant{
		ID:         stats.Bartlett,
		Name:       "Bartlett's Test",
		MinGroups:  2,
		MinLen:     3,
		Hypotheses: varianceHypotheses,
		Assumptions: func(s stats.Samples, p stats.Params) stats.AssumptionReport {
			report := stats.NewAssumptionReport()
			allNormal := true
			var reason string
			for _, g := range s {
				if ok, r := assume.Normality(g.Values); !ok {
					allNormal = false
					reason = fmt.Sprintf("group %q: %s", g.Name, r)
					break
				}
			}
			report.Set("normality", allNormal, reason)
			report.Set("independence", true, "")
			return report
		},
		Compute: func(s stats.Samples, p stats.Params) (float64, float64, error) {
			chi2, df, err := bartlettStatistic(s)
			if err != nil {
				return 0, 0, err
			}
			return chi2, dist.ChiSquaredUpperTail(chi2, df), nil
		},
		EffectSize: func(s stats.Samples, p stats.Params) (*float64, string) {
			return nil, "effect size not applicable to variance homogeneity tests"
		},
		Interpret: func(statistic, pValue float64, s stats.Samples, p stats.Params) string {
			return varianceInterpretation("Bartlett's test", statistic, pValue, s, p)
		},
		Recommend: varianceRecommendation,
	}
}

func bartlettStatistic(s stats.Samples) (chi2, df float64, err error) {
	k := float64(len(s))
	var totalN, pooledSS, logSum, invSum float64
	for _, g := range s {
		ni := float64(len(g.Values))
		vi := sampleVariance(g.Values)
		if vi == 0 {
			return 0, 0, core.NewDegenerateInputError(g.Name, "zero variance, Bartlett statistic undefined")
		}
		totalN += ni
		pooledSS += (ni - 1) * vi
		logSum += (ni - 1) * math.Log(vi)
		invSum += 1 / (ni - 1)
	}
	pooled := pooledSS / (totalN - k)
	c := 1 + (invSum-1/(totalN-k))/(3*(k-1))
	chi2 = ((totalN-k)*math.Log(pooled) - logSum) / c
	return chi2, k - 1, nil
}

// NewFTestVariance compares the variances of exactly two groups by their
// ratio. Highly sensitive to non-normality; Levene's test is usually the
// safer choice.
func NewFTestVariance() *engine.Variant {
	return &engine.Variant{
		ID:        stats.FTestVariance,
		Name:      "F-Test for Equality of Variances",
		MinGroups: 2,
		MaxGroups: 2,
		MinLen:    3,
		Hypotheses: func(s stats.Samples, p stats.Params) (string, string) {
			return fmt.Sprintf("H0: var(%s) = var(%s)", s[0].Name, s[1].Name),
				fmt.Sprintf("H1: var(%s) != var(%s)", s[0].Name, s[1].Name)
		},
		Assumptions: func(s stats.Samples, p stats.Params) stats.AssumptionReport {
			report := stats.NewAssumptionReport()
			allNormal := true
			var reason string
			for _, g := range s {
				if ok, r := assume.Normality(g.Values); !ok {
					allNormal = false
					reason = fmt.Sprintf("group %q: %s", g.Name, r)
					break
				}
			}
			report.Set("normality", allNormal, reason)
			report.Set("independence", true, "")
			return report
		},
		Compute: func(s stats.Samples, p stats.Params) (float64, float64, error) {
			v1, v2 := sampleVariance(s[0].Values), sampleVariance(s[1].Values)
			if v2 == 0 {
				return 0, 0, core.NewDegenerateInputError(s[1].Name, "zero variance, F ratio undefined")
			}
			f := v1 / v2
			d1 := float64(len(s[0].Values) - 1)
			d2 := float64(len(s[1].Values) - 1)
			return f, dist.FPValue(f, d1, d2, p.Tail), nil
		},
		EffectSize: func(s stats.Samples, p stats.Params) (*float64, string) {
			v1, v2 := sampleVariance(s[0].Values), sampleVariance(s[1].Values)
			if v2 == 0 {
				return nil, "effect size unavailable: zero variance"
			}
			// the variance ratio itself
			return fptr(v1 / v2), ""
		},
		Interpret: func(statistic, pValue float64, s stats.Samples, p stats.Params) string {
			return varianceInterpretation("The F-test", statistic, pValue, s, p)
		},
		Recommend: varianceRecommendation,
	}
}
