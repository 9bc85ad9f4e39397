package variants

import (
	"fmt"
	"strings"

	"hypotest/adapters/stats/dist"
	"hypotest/adapters/stats/engine"
	"hypotest/domain/core"
	"hypotest/domain/stats"
	"hypotest/internal/assume"
)

// NewOneWayANOVA compares means across two or more independent groups.
func NewOneWayANOVA() *engine.Variant {
	return &engine.Variant{
		ID:        stats.OneWayANOVA,
		Name:      "One-Way ANOVA",
		MinGroups: 2,
		MinLen:    2,
		Hypotheses: func(s stats.Samples, p stats.Params) (string, string) {
			return fmt.Sprintf("H0: mu1 = mu2 = ... = mu%d (all group means are equal)", len(s)),
				"H1: at least one group mean differs from the others"
		},
		Assumptions: func(s stats.Samples, p stats.Params) stats.AssumptionReport {
			report := stats.NewAssumptionReport()
			allNormal := true
			var reason string
			for _, g := range s {
				if ok, r := assume.Normality(g.Values); !ok && len(g.Values) <= 30 {
					allNormal = false
					reason = fmt.Sprintf("group %q: %s", g.Name, r)
					break
				}
			}
			report.Set("normality", allNormal, reason)
			eq, eqReason := assume.EqualVariances(s.Groups())
			report.Set("equal_variances", eq, eqReason)
			report.Set("independence", true, "")
			report.Set("sufficient_groups", len(s) >= 2, "fewer than 2 groups")
			return report
		},
		Compute: func(s stats.Samples, p stats.Params) (float64, float64, error) {
			ssBetween, ssWithin, df1, df2, err := anovaSumsOfSquares(s)
			if err != nil {
				return 0, 0, err
			}
			if ssWithin == 0 {
				return 0, 0, core.NewDegenerateInputError(s[0].Name, "zero within-group variance, F statistic undefined")
			}
			f := (ssBetween / df1) / (ssWithin / df2)
			return f, dist.FUpperTail(f, df1, df2), nil
		},
		EffectSize: func(s stats.Samples, p stats.Params) (*float64, string) {
			ssBetween, ssWithin, _, _, err := anovaSumsOfSquares(s)
			if err != nil {
				return nil, "effect size unavailable"
			}
			ssTotal := ssBetween + ssWithin
			if ssTotal == 0 {
				return nil, "effect size unavailable: zero total variance"
			}
			// eta-squared: share of variance explained by group membership
			return fptr(ssBetween / ssTotal), ""
		},
		Interpret: func(statistic, pValue float64, s stats.Samples, p stats.Params) string {
			if pValue < p.Alpha {
				parts := make([]string, len(s))
				for i, g := range s {
					parts[i] = fmt.Sprintf("%s: %.2f", g.Name, mean(g.Values))
				}
				return fmt.Sprintf("At least one group differs significantly (F=%.2f, p=%.4f). Group means: %s. With p < alpha=%g, we reject H0. Post-hoc tests recommended to identify which groups differ.",
					statistic, pValue, strings.Join(parts, ", "), p.Alpha)
			}
			return fmt.Sprintf("No significant differences among %d groups (F=%.2f, p=%.4f). With p >= alpha=%g, we fail to reject H0. All groups may have similar means.",
				len(s), statistic, pValue, p.Alpha)
		},
		Recommend: func(decision stats.Decision, report stats.AssumptionReport) string {
			rec := defaultANOVARecommendation(decision, report)
			if decision == stats.DecisionReject {
				rec += " Consider post-hoc tests (Tukey HSD, Bonferroni) to identify which specific groups differ."
			}
			if met, checked := report.Checks["equal_variances"]; checked && !met {
				rec += " WARNING: equal variance assumption violated. Consider Welch's ANOVA or the Kruskal-Wallis test."
			}
			return rec
		},
	}
}

func anovaSumsOfSquares(s stats.Samples) (ssBetween, ssWithin, df1, df2 float64, err error) {
	k := len(s)
	totalN := 0
	var grandSum float64
	for _, g := range s {
		for _, v := range g.Values {
			grandSum += v
		}
		totalN += len(g.Values)
	}
	if totalN <= k {
		return 0, 0, 0, 0, core.NewDegenerateInputError(s[0].Name, "not enough observations for within-group variance")
	}
	grandMean := grandSum / float64(totalN)

	for _, g := range s {
		gm := mean(g.Values)
		d := gm - grandMean
		ssBetween += float64(len(g.Values)) * d * d
		for _, v := range g.Values {
			e := v - gm
			ssWithin += e * e
		}
	}
	return ssBetween, ssWithin, float64(k - 1), float64(totalN - k), nil
}

func defaultANOVARecommendation(decision stats.Decision, report stats.AssumptionReport) string {
	suffix := ""
	if failed := report.Failed(); len(failed) > 0 {
		suffix = fmt.Sprintf(" WARNING: assumptions not met: %s. Consider non-parametric alternatives.", strings.Join(failed, ", "))
	}
	if decision == stats.DecisionReject {
		return "Evidence suggests a significant effect. Consider practical significance and collect more data to confirm." + suffix
	}
	return "Insufficient evidence to conclude an effect. Consider increasing sample size or effect size." + suffix
}
