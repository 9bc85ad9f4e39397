// Package dist is the boundary to the external statistical computation
// library. Every p-value, quantile and interval in the engine comes through
// here, backed by gonum's closed-form distributions.
package dist

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"hypotest/domain/stats"
)

// StudentTCDF computes the cumulative probability of Student's t with nu
// degrees of freedom.
func StudentTCDF(t, nu float64) float64 {
	if nu <= 0 {
		return math.NaN()
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: nu}
	return tDist.CDF(t)
}

// StudentTPValue converts a t statistic to a p-value for the given tail.
func StudentTPValue(t, nu float64, tail stats.Tail) float64 {
	switch tail {
	case stats.TailGreater:
		return 1 - StudentTCDF(t, nu)
	case stats.TailLess:
		return StudentTCDF(t, nu)
	default:
		return 2 * (1 - StudentTCDF(math.Abs(t), nu))
	}
}

// StudentTQuantile computes the inverse CDF of Student's t.
func StudentTQuantile(p, nu float64) float64 {
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: nu}
	return tDist.Quantile(p)
}

// FCDF computes the cumulative probability of the F distribution.
func FCDF(f float64, d1, d2 float64) float64 {
	if d1 <= 0 || d2 <= 0 {
		return math.NaN()
	}
	fDist := distuv.F{D1: d1, D2: d2}
	return fDist.CDF(f)
}

// FUpperTail computes the upper-tail probability of the F distribution
// (ANOVA, Levene).
func FUpperTail(f float64, d1, d2 float64) float64 {
	return 1 - FCDF(f, d1, d2)
}

// FPValue converts an F statistic to a p-value for the given tail. The
// two-sided form doubles the smaller tail, as used by the variance-ratio
// test.
func FPValue(f float64, d1, d2 float64, tail stats.Tail) float64 {
	switch tail {
	case stats.TailGreater:
		return FUpperTail(f, d1, d2)
	case stats.TailLess:
		return FCDF(f, d1, d2)
	default:
		lower := FCDF(f, d1, d2)
		upper := 1 - lower
		return math.Min(1, 2*math.Min(lower, upper))
	}
}

// ChiSquaredUpperTail computes the upper-tail probability of chi-squared
// with k degrees of freedom.
func ChiSquaredUpperTail(x, k float64) float64 {
	if k <= 0 {
		return math.NaN()
	}
	chiDist := distuv.ChiSquared{K: k}
	return 1 - chiDist.CDF(x)
}

// NormalCDF computes the standard normal cumulative probability.
func NormalCDF(z float64) float64 {
	return distuv.UnitNormal.CDF(z)
}

// NormalPValue converts a z statistic to a p-value for the given tail.
func NormalPValue(z float64, tail stats.Tail) float64 {
	switch tail {
	case stats.TailGreater:
		return 1 - NormalCDF(z)
	case stats.TailLess:
		return NormalCDF(z)
	default:
		return 2 * (1 - NormalCDF(math.Abs(z)))
	}
}

// NormalQuantile computes the standard normal inverse CDF.
func NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// KolmogorovUpperTail evaluates the asymptotic Kolmogorov distribution
// upper tail Q(lambda) = 2 * sum_{j>=1} (-1)^{j-1} exp(-2 j^2 lambda^2).
func KolmogorovUpperTail(lambda float64) float64 {
	if lambda <= 0 {
		return 1
	}
	sum := 0.0
	for j := 1; j <= 100; j++ {
		term := 2 * math.Pow(-1, float64(j-1)) * math.Exp(-2*float64(j*j)*lambda*lambda)
		sum += term
		if math.Abs(term) < 1e-12 {
			break
		}
	}
	return clampProbability(sum)
}

func clampProbability(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
