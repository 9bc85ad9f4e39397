// Package assume provides the stateless assumption diagnostics shared by
// the test execution engine and the test suggester.
package assume

import (
	"fmt"
	"math"

	mstats "github.com/montanaflynn/stats"

	"hypotest/adapters/stats/dist"
)

// Minimum observations before a shape test says anything meaningful.
const minShapeN = 7

// CLT exemption threshold: above this, normality of the mean is assumed.
const cltN = 30

// Moments returns the moment-based skewness and kurtosis (non-excess) used
// by the Jarque-Bera statistic.
func Moments(values []float64) (skewness, kurtosis float64) {
	n := float64(len(values))
	if n < 2 {
		return 0, 0
	}
	mean, _ := mstats.Mean(values)

	var m2, m3, m4 float64
	for _, v := range values {
		d := v - mean
		m2 += d * d
		m3 += d * d * d
		m4 += d * d * d * d
	}
	m2 /= n
	m3 /= n
	m4 /= n

	if m2 == 0 {
		return 0, 0
	}
	skewness = m3 / math.Pow(m2, 1.5)
	kurtosis = m4 / (m2 * m2)
	return skewness, kurtosis
}

// JarqueBera computes the Jarque-Bera shape statistic and its chi-squared
// p-value (2 degrees of freedom).
func JarqueBera(values []float64) (statistic, pValue float64, err error) {
	n := len(values)
	if n < minShapeN {
		return 0, 0, fmt.Errorf("need at least %d observations for a shape test, got %d", minShapeN, n)
	}
	skew, kurt := Moments(values)
	statistic = float64(n) / 6 * (skew*skew + (kurt-3)*(kurt-3)/4)
	pValue = dist.ChiSquaredUpperTail(statistic, 2)
	return statistic, pValue, nil
}

// Combined moment-statistic cutoff backing the small-sample branch of
// Normality. The chi-squared approximation behind Jarque-Bera has little
// power below n ~ 30, so clearly non-normal sample moments veto a passing
// p-value there.
const maxShapeStat = 1.0

// Normality reports whether a sample is safe to treat as approximately
// normal: either its shape diagnostics do not reject normality at the 5%
// level, or the sample is large enough for the central-limit exemption.
// Small samples additionally face a direct skewness/kurtosis threshold.
func Normality(values []float64) (ok bool, reason string) {
	n := len(values)
	if n > cltN {
		return true, ""
	}
	if n < minShapeN {
		return false, fmt.Sprintf("sample too small to assess normality (n=%d)", n)
	}
	_, p, err := JarqueBera(values)
	if err != nil {
		return false, err.Error()
	}
	if p <= 0.05 {
		return false, fmt.Sprintf("shape test rejects normality (p=%.4f)", p)
	}
	skew, kurt := Moments(values)
	if math.Abs(skew)+math.Abs(kurt-3)/2 > maxShapeStat {
		return false, fmt.Sprintf("sample shape departs from normal (skewness=%.2f, kurtosis=%.2f)", skew, kurt)
	}
	return true, ""
}

// LeveneStatistic computes the Brown-Forsythe form of Levene's W
// (median-centered absolute deviations), with its F degrees of freedom.
func LeveneStatistic(groups [][]float64) (w float64, df1, df2 float64, err error) {
	k := len(groups)
	if k < 2 {
		return 0, 0, 0, fmt.Errorf("need at least 2 groups, got %d", k)
	}

	totalN := 0
	deviations := make([][]float64, k)
	groupMeans := make([]float64, k)
	var grandSum float64

	for i, g := range groups {
		if len(g) < 2 {
			return 0, 0, 0, fmt.Errorf("group %d has fewer than 2 observations", i+1)
		}
		center, merr := mstats.Median(g)
		if merr != nil {
			return 0, 0, 0, merr
		}
		z := make([]float64, len(g))
		var sum float64
		for j, v := range g {
			z[j] = math.Abs(v - center)
			sum += z[j]
		}
		deviations[i] = z
		groupMeans[i] = sum / float64(len(g))
		grandSum += sum
		totalN += len(g)
	}

	grandMean := grandSum / float64(totalN)

	var between, within float64
	for i, z := range deviations {
		ni := float64(len(z))
		d := groupMeans[i] - grandMean
		between += ni * d * d
		for _, v := range z {
			e := v - groupMeans[i]
			within += e * e
		}
	}

	df1 = float64(k - 1)
	df2 = float64(totalN - k)
	if within == 0 {
		return 0, df1, df2, fmt.Errorf("zero within-group spread, dispersion statistic undefined")
	}
	w = (df2 / df1) * (between / within)
	return w, df1, df2, nil
}

// EqualVariances reports whether group variances look homogeneous, using
// the robust Levene diagnostic at the 5% level. Inconclusive inputs count
// as homogeneous, matching the engine's warn-don't-block policy.
func EqualVariances(groups [][]float64) (ok bool, reason string) {
	w, df1, df2, err := LeveneStatistic(groups)
	if err != nil {
		return true, ""
	}
	p := dist.FUpperTail(w, df1, df2)
	if p <= 0.05 {
		return false, fmt.Sprintf("dispersion test rejects equal variances (W=%.3f, p=%.4f)", w, p)
	}
	return true, ""
}

// NonZeroVariance reports whether a sample has any spread at all.
func NonZeroVariance(values []float64) bool {
	if len(values) < 2 {
		return false
	}
	v, err := mstats.SampleVariance(values)
	return err == nil && v > 0
}

// AdequateSize reports whether a group is large enough for location
// inference: n >= 30, or n >= 20 when the data already looks normal.
func AdequateSize(n int, normal bool) bool {
	return n >= 30 || (n >= 20 && normal)
}
