package variants

import (
	"fmt"
	"math"

	gonumstat "gonum.org/v1/gonum/stat"

	"hypotest/adapters/stats/dist"
	"hypotest/adapters/stats/engine"
	"hypotest/domain/core"
	"hypotest/domain/stats"
)

// NewSpearmanCorrelation measures the monotonic association between two
// paired variables as the Pearson correlation of their midranks, with the
// significance of rho assessed through a t transform on n-2 degrees of
// freedom.
func NewSpearmanCorrelation() *engine.Variant {
	return &engine.Variant{
		ID:        stats.SpearmanCorrelation,
		Name:      "Spearman Rank Correlation",
		MinGroups: 2,
		MaxGroups: 2,
		Paired:    true,
		MinLen:    4,
		Hypotheses: func(s stats.Samples, p stats.Params) (string, string) {
			return fmt.Sprintf("H0: there is no monotonic association between %s and %s (rho = 0)", s[0].Name, s[1].Name),
				fmt.Sprintf("H1: there is a monotonic association between %s and %s (rho != 0)", s[0].Name, s[1].Name)
		},
		Assumptions: func(s stats.Samples, p stats.Params) stats.AssumptionReport {
			report := stats.NewAssumptionReport()
			report.Set("paired_observations", len(s[0].Values) == len(s[1].Values), "sample lengths differ")
			report.Set("ordinal_scale", true, "")
			report.Set("sufficient_size", len(s[0].Values) >= 10, "fewer than 10 pairs, t approximation for rho unreliable")
			return report
		},
		Compute: func(s stats.Samples, p stats.Params) (float64, float64, error) {
			rho, err := spearmanRho(s[0].Values, s[1].Values)
			if err != nil {
				return 0, 0, err
			}
			n := float64(len(s[0].Values))
			if math.Abs(rho) >= 1 {
				// perfect monotone association, p-value degenerates to zero
				return rho, 0, nil
			}
			t := rho * math.Sqrt((n-2)/(1-rho*rho))
			return rho, dist.StudentTPValue(t, n-2, p.Tail), nil
		},
		EffectSize: func(s stats.Samples, p stats.Params) (*float64, string) {
			rho, err := spearmanRho(s[0].Values, s[1].Values)
			if err != nil {
				return nil, "effect size unavailable"
			}
			// rho is its own effect size
			return fptr(rho), ""
		},
		Interpret: func(statistic, pValue float64, s stats.Samples, p stats.Params) string {
			strength := correlationStrength(statistic)
			direction := "positive"
			if statistic < 0 {
				direction = "negative"
			}
			if pValue < p.Alpha {
				return fmt.Sprintf("There is a significant %s %s monotonic association between %s and %s (rho=%.3f, p=%.4f). With p < alpha=%g, we reject H0.",
					strength, direction, s[0].Name, s[1].Name, statistic, pValue, p.Alpha)
			}
			return fmt.Sprintf("No significant monotonic association between %s and %s (rho=%.3f, p=%.4f). With p >= alpha=%g, we fail to reject H0.",
				s[0].Name, s[1].Name, statistic, pValue, p.Alpha)
		},
	}
}

func correlationStrength(rho float64) string {
	switch abs := math.Abs(rho); {
	case abs >= 0.7:
		return "strong"
	case abs >= 0.4:
		return "moderate"
	default:
		return "weak"
	}
}

func spearmanRho(x, y []float64) (float64, error) {
	rx, _ := midranks(x)
	ry, _ := midranks(y)
	if sampleSD(rx) == 0 || sampleSD(ry) == 0 {
		return 0, core.NewDegenerateInputError("values", "a variable is constant, correlation undefined")
	}
	return gonumstat.Correlation(rx, ry, nil), nil
}
