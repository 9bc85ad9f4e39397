package testkit

import (
	"math"
	"math/rand"

	"hypotest/domain/stats"
)

// DefaultSeed keeps generated fixtures reproducible across test runs.
const DefaultSeed int64 = 42

// Generator produces deterministic synthetic samples for tests.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a seeded generator.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Normal draws n values from N(mean, sd^2).
func (g *Generator) Normal(n int, mean, sd float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = mean + sd*g.rng.NormFloat64()
	}
	return out
}

// NormalExact draws n normal values and then rescales them so the sample
// mean and sample standard deviation match exactly. Scenario tests that
// assert on specific statistics need the moments pinned, not approximated.
func (g *Generator) NormalExact(n int, mean, sd float64) []float64 {
	values := g.Normal(n, 0, 1)

	var m float64
	for _, v := range values {
		m += v
	}
	m /= float64(n)

	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	observedSD := math.Sqrt(ss / float64(n-1))

	out := make([]float64, n)
	for i, v := range values {
		out[i] = mean + (v-m)*sd/observedSD
	}
	return out
}

// Skewed draws n right-skewed values by exponentiating normals.
func (g *Generator) Skewed(n int, scale float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = scale * math.Exp(g.rng.NormFloat64())
	}
	return out
}

// Shifted returns a copy of values with a constant offset, for building
// groups with a known location difference.
func (g *Generator) Shifted(values []float64, offset float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v + offset
	}
	return out
}

// Paired produces a before/after pair where after drifts from before by
// drift plus per-observation noise.
func (g *Generator) Paired(n int, mean, sd, drift, noise float64) (before, after []float64) {
	before = g.Normal(n, mean, sd)
	after = make([]float64, n)
	for i, v := range before {
		after[i] = v + drift + noise*g.rng.NormFloat64()
	}
	return before, after
}

// Groups builds k independent normal groups of size n with the given
// per-group means and a shared standard deviation.
func (g *Generator) Groups(n int, means []float64, sd float64) stats.Samples {
	names := []string{"group_a", "group_b", "group_c", "group_d", "group_e"}
	samples := make(stats.Samples, 0, len(means))
	for i, m := range means {
		name := names[i%len(names)]
		samples = append(samples, stats.Sample{Name: name, Values: g.Normal(n, m, sd)})
	}
	return samples
}
