package variants

import (
	"fmt"
	"math"
	"sort"

	"hypotest/adapters/stats/dist"
	"hypotest/adapters/stats/engine"
	"hypotest/domain/core"
	"hypotest/domain/stats"
	"hypotest/internal/assume"
)

// standardized sorts a copy of values and maps each to its z-score against
// the sample mean and standard deviation.
func standardized(values []float64) ([]float64, error) {
	sd := sampleSD(values)
	if sd == 0 {
		return nil, core.NewDegenerateInputError("values", "zero variance, normality is undefined")
	}
	m := mean(values)
	z := make([]float64, len(values))
	for i, v := range values {
		z[i] = (v - m) / sd
	}
	sort.Float64s(z)
	return z, nil
}

func normalityAssumptions(s stats.Samples, minN int) stats.AssumptionReport {
	report := stats.NewAssumptionReport()
	report.Set("continuous_scale", true, "")
	report.Set("sufficient_size", len(s[0].Values) >= minN,
		fmt.Sprintf("fewer than %d observations, normality test unreliable", minN))
	report.Set("non_zero_variance", assume.NonZeroVariance(s[0].Values), "all values identical")
	return report
}

func normalityInterpretation(testName string, statistic, pValue float64, s stats.Samples, p stats.Params) string {
	sk, ku := assume.Moments(s[0].Values)
	if pValue < p.Alpha {
		return fmt.Sprintf("%s indicates %s deviates significantly from a normal distribution (statistic=%.4f, p=%.4f, skewness=%.2f, kurtosis=%.2f). With p < alpha=%g, we reject H0. Consider non-parametric tests for this data.",
			testName, s[0].Name, statistic, pValue, sk, ku, p.Alpha)
	}
	return fmt.Sprintf("%s finds no significant departure of %s from normality (statistic=%.4f, p=%.4f, skewness=%.2f, kurtosis=%.2f). With p >= alpha=%g, we fail to reject H0. Parametric tests are reasonable for this data.",
		testName, s[0].Name, statistic, pValue, sk, ku, p.Alpha)
}

func normalityRecommendation(decision stats.Decision, report stats.AssumptionReport) string {
	if decision == stats.DecisionReject {
		return "The data does not appear normally distributed. Prefer rank-based tests (Mann-Whitney U, Wilcoxon, Kruskal-Wallis) over their parametric counterparts."
	}
	return "The data is consistent with a normal distribution. Parametric tests (t-tests, ANOVA) are appropriate."
}

// NewKolmogorovSmirnov tests a single sample against the normal distribution
// fitted from its own mean and standard deviation, using the asymptotic
// Kolmogorov distribution for the p-value.
func NewKolmogorovSmirnov() *engine.Variant {
	return &engine.Variant{
		ID:        stats.KolmogorovSmirnov,
		Name:      "Kolmogorov-Smirnov Normality Test",
		MinGroups: 1,
		MaxGroups: 1,
		MinLen:    5,
		Hypotheses: func(s stats.Samples, p stats.Params) (string, string) {
			return fmt.Sprintf("H0: %s follows a normal distribution", s[0].Name),
				fmt.Sprintf("H1: %s does not follow a normal distribution", s[0].Name)
		},
		Assumptions: func(s stats.Samples, p stats.Params) stats.AssumptionReport {
			return normalityAssumptions(s, 5)
		},
		Compute: func(s stats.Samples, p stats.Params) (float64, float64, error) {
			z, err := standardized(s[0].Values)
			if err != nil {
				return 0, 0, err
			}
			n := float64(len(z))
			var d float64
			for i, v := range z {
				f := dist.NormalCDF(v)
				dPlus := float64(i+1)/n - f
				dMinus := f - float64(i)/n
				d = math.Max(d, math.Max(dPlus, dMinus))
			}
			lambda := (math.Sqrt(n) + 0.12 + 0.11/math.Sqrt(n)) * d
			return d, dist.KolmogorovUpperTail(lambda), nil
		},
		EffectSize: func(s stats.Samples, p stats.Params) (*float64, string) {
			return nil, "effect size not applicable to normality tests"
		},
		Interpret: func(statistic, pValue float64, s stats.Samples, p stats.Params) string {
			return normalityInterpretation("The Kolmogorov-Smirnov test", statistic, pValue, s, p)
		},
		Recommend: normalityRecommendation,
	}
}

// NewAndersonDarling tests normality with heavier weight on the tails than
// Kolmogorov-Smirnov. P-values follow the D'Agostino-Stephens approximation
// for the case of estimated mean and variance.
func NewAndersonDarling() *engine.Variant {
	return &engine.Variant{
		ID:        stats.AndersonDarling,
		Name:      "Anderson-Darling Normality Test",
		MinGroups: 1,
		MaxGroups: 1,
		MinLen:    8,
		Hypotheses: func(s stats.Samples, p stats.Params) (string, string) {
			return fmt.Sprintf("H0: %s follows a normal distribution", s[0].Name),
				fmt.Sprintf("H1: %s does not follow a normal distribution", s[0].Name)
		},
		Assumptions: func(s stats.Samples, p stats.Params) stats.AssumptionReport {
			return normalityAssumptions(s, 8)
		},
		Compute: func(s stats.Samples, p stats.Params) (float64, float64, error) {
			z, err := standardized(s[0].Values)
			if err != nil {
				return 0, 0, err
			}
			n := float64(len(z))
			var sum float64
			for i := range z {
				fi := clampCDF(dist.NormalCDF(z[i]))
				fj := clampCDF(dist.NormalCDF(z[len(z)-1-i]))
				sum += (2*float64(i+1) - 1) * (math.Log(fi) + math.Log(1-fj))
			}
			a2 := -n - sum/n
			adjusted := a2 * (1 + 0.75/n + 2.25/(n*n))
			return adjusted, andersonDarlingPValue(adjusted), nil
		},
		EffectSize: func(s stats.Samples, p stats.Params) (*float64, string) {
			return nil, "effect size not applicable to normality tests"
		},
		Interpret: func(statistic, pValue float64, s stats.Samples, p stats.Params) string {
			return normalityInterpretation("The Anderson-Darling test", statistic, pValue, s, p)
		},
		Recommend: normalityRecommendation,
	}
}

func clampCDF(f float64) float64 {
	const eps = 1e-15
	if f < eps {
		return eps
	}
	if f > 1-eps {
		return 1 - eps
	}
	return f
}

func andersonDarlingPValue(a float64) float64 {
	switch {
	case a >= 0.6:
		return math.Exp(1.2937 - 5.709*a + 0.0186*a*a)
	case a > 0.34:
		return math.Exp(0.9177 - 4.279*a - 1.38*a*a)
	case a > 0.2:
		return 1 - math.Exp(-8.318+42.796*a-59.938*a*a)
	default:
		return 1 - math.Exp(-13.436+101.14*a-223.73*a*a)
	}
}

// NewJarqueBera tests normality through sample skewness and kurtosis.
func NewJarqueBera() *engine.Variant {
	return &engine.Variant{
		ID:        stats.JarqueBera,
		Name:      "Jarque-Bera Normality Test",
		MinGroups: 1,
		MaxGroups: 1,
		MinLen:    7,
		Hypotheses: func(s stats.Samples, p stats.Params) (string, string) {
			return fmt.Sprintf("H0: %s has the skewness and kurtosis of a normal distribution", s[0].Name),
				fmt.Sprintf("H1: %s has skewness or kurtosis inconsistent with a normal distribution", s[0].Name)
		},
		Assumptions: func(s stats.Samples, p stats.Params) stats.AssumptionReport {
			report := normalityAssumptions(s, 20)
			if met, ok := report.Checks["sufficient_size"]; ok && !met {
				report.Set("sufficient_size", false, "fewer than 20 observations, Jarque-Bera chi-squared approximation unreliable")
			}
			return report
		},
		Compute: func(s stats.Samples, p stats.Params) (float64, float64, error) {
			if !assume.NonZeroVariance(s[0].Values) {
				return 0, 0, core.NewDegenerateInputError(s[0].Name, "zero variance, normality is undefined")
			}
			return assume.JarqueBera(s[0].Values)
		},
		EffectSize: func(s stats.Samples, p stats.Params) (*float64, string) {
			return nil, "effect size not applicable to normality tests"
		},
		Interpret: func(statistic, pValue float64, s stats.Samples, p stats.Params) string {
			return normalityInterpretation("The Jarque-Bera test", statistic, pValue, s, p)
		},
		Recommend: normalityRecommendation,
	}
}
