// Package variants defines the closed set of supported hypothesis tests.
// Each variant bundles the strategy functions the engine dispatches
// through; All returns them in registration order.
package variants

import (
	mstats "github.com/montanaflynn/stats"

	"hypotest/adapters/stats/engine"
)

// All returns every supported variant, ready for registration.
func All() []*engine.Variant {
	return []*engine.Variant{
		NewOneSampleTTest(),
		NewTwoSampleTTest(),
		NewPairedTTest(),
		NewOneWayANOVA(),
		NewMannWhitneyU(),
		NewWilcoxonSignedRank(),
		NewKruskalWallis(),
		NewKolmogorovSmirnov(),
		NewAndersonDarling(),
		NewJarqueBera(),
		NewLevene(),
		NewBartlett(),
		NewFTestVariance(),
		NewChiSquareGoodness(),
		NewSpearmanCorrelation(),
	}
}

// fptr boxes a float for optional outcome fields.
func fptr(v float64) *float64 { return &v }

// mean is a panic-free wrapper; inputs are validated upstream so the only
// error case (empty slice) cannot occur on the compute path.
func mean(values []float64) float64 {
	m, _ := mstats.Mean(values)
	return m
}

func median(values []float64) float64 {
	m, _ := mstats.Median(values)
	return m
}

func sampleVariance(values []float64) float64 {
	v, _ := mstats.SampleVariance(values)
	return v
}

func sampleSD(values []float64) float64 {
	sd, _ := mstats.StandardDeviationSample(values)
	return sd
}

// diffs computes after-minus-before for paired samples.
func diffs(before, after []float64) []float64 {
	d := make([]float64, len(before))
	for i := range before {
		d[i] = after[i] - before[i]
	}
	return d
}
