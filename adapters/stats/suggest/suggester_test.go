package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hypotest/domain/stats"
	"hypotest/internal/testkit"
)

func boolPtr(b bool) *bool { return &b }

// TestSuggest_Totality runs the full characteristic grid and verifies every
// combination yields a primary test with a reason and confidence.
func TestSuggest_Totality(t *testing.T) {
	gen := testkit.NewGenerator(testkit.DefaultSeed)

	makeGroup := func(normal bool, n int) []float64 {
		if normal {
			return gen.Normal(n, 10, 2)
		}
		return gen.Skewed(n, 1)
	}

	for _, groups := range []int{1, 2, 3, 4} {
		for _, paired := range []bool{true, false} {
			if paired && groups != 2 {
				continue
			}
			for _, normal := range []bool{true, false} {
				for _, scale := range []stats.Scale{stats.ScaleContinuous, stats.ScaleOrdinal} {
					for _, n := range []int{4, 12, 50} {
						samples := make(stats.Samples, groups)
						for i := range samples {
							samples[i] = stats.Sample{Name: "g", Values: makeGroup(normal, n)}
						}

						s := Suggest(samples, Hints{Paired: boolPtr(paired), Scale: scale})
						if s.Primary == "" {
							t.Fatalf("no primary test for groups=%d paired=%v normal=%v scale=%s n=%d",
								groups, paired, normal, scale, n)
						}
						if s.Reason == "" || s.TestName == "" {
							t.Errorf("suggestion for %s missing reason or name", s.Primary)
						}
						switch s.Confidence {
						case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
						default:
							t.Errorf("invalid confidence %q", s.Confidence)
						}
					}
				}
			}
		}
	}
}

// TestSuggest_NormalTwoGroups verifies the parametric happy path.
func TestSuggest_NormalTwoGroups(t *testing.T) {
	gen := testkit.NewGenerator(testkit.DefaultSeed)
	samples := stats.Samples{
		{Name: "control", Values: gen.Normal(40, 10, 2)},
		{Name: "treatment", Values: gen.Normal(45, 11, 2)},
	}

	s := Suggest(samples, Hints{Paired: boolPtr(false)})
	assert.Equal(t, stats.TwoSampleTTest, s.Primary)
	assert.Equal(t, ConfidenceHigh, s.Confidence)
	assert.Contains(t, s.Alternatives, stats.MannWhitneyU)
}

// TestSuggest_UnequalSpread verifies the dispersion scenario: unequal
// variances push the suggestion to Welch with Levene listed.
func TestSuggest_UnequalSpread(t *testing.T) {
	gen := testkit.NewGenerator(testkit.DefaultSeed)
	samples := stats.Samples{
		{Name: "tight", Values: gen.Normal(50, 10, 1)},
		{Name: "wide", Values: gen.Normal(50, 10, 12)},
	}

	c := Analyze(samples, Hints{Paired: boolPtr(false)})
	if c.EqualVariances {
		t.Fatal("12x spread difference should fail the variance check")
	}

	s := Suggest(samples, Hints{Paired: boolPtr(false)})
	assert.Equal(t, stats.TwoSampleTTest, s.Primary)
	assert.Equal(t, "Welch's T-Test", s.TestName)
	assert.Contains(t, s.Alternatives, stats.Levene)
	assert.NotEmpty(t, s.Warning)
}

// TestSuggest_PairingInference verifies two equal-length groups under 100
// observations are inferred as paired.
func TestSuggest_PairingInference(t *testing.T) {
	gen := testkit.NewGenerator(testkit.DefaultSeed)
	before, after := gen.Paired(30, 50, 10, 2, 1)
	samples := stats.Samples{
		{Name: "before", Values: before},
		{Name: "after", Values: after},
	}

	c := Analyze(samples, Hints{})
	if !c.Paired {
		t.Error("equal-length groups under 100 should infer paired")
	}

	s := Suggest(samples, Hints{})
	assert.Equal(t, stats.PairedTTest, s.Primary)

	// an explicit hint overrides the inference
	c = Analyze(samples, Hints{Paired: boolPtr(false)})
	if c.Paired {
		t.Error("explicit hint should override pairing inference")
	}
}

// TestSuggest_OrdinalScale verifies ordinal data lands on rank-based tests.
func TestSuggest_OrdinalScale(t *testing.T) {
	// likert-style responses: few distinct values, inferred ordinal
	likert := []float64{1, 2, 3, 4, 5, 3, 2, 4, 1, 5, 3, 3, 2, 4, 4, 5, 1, 2, 3, 4}
	samples := stats.Samples{
		{Name: "survey_a", Values: likert},
		{Name: "survey_b", Values: likert},
	}

	c := Analyze(samples, Hints{Paired: boolPtr(false)})
	assert.Equal(t, stats.ScaleOrdinal, c.Scale)

	s := Suggest(samples, Hints{Paired: boolPtr(false)})
	assert.Equal(t, stats.MannWhitneyU, s.Primary)
}

// TestSuggest_ThreeGroupsUnequalVariance verifies the multi-group fallback
// to Kruskal-Wallis with Levene as alternative.
func TestSuggest_ThreeGroupsUnequalVariance(t *testing.T) {
	gen := testkit.NewGenerator(testkit.DefaultSeed)
	samples := stats.Samples{
		{Name: "a", Values: gen.Normal(40, 10, 1)},
		{Name: "b", Values: gen.Normal(40, 10, 8)},
		{Name: "c", Values: gen.Normal(40, 10, 1)},
	}

	s := Suggest(samples, Hints{})
	assert.Equal(t, stats.KruskalWallis, s.Primary)
	assert.Contains(t, s.Alternatives, stats.Levene)
}

// TestSuggestNormalityTest_SizeBuckets verifies the size-based selection.
func TestSuggestNormalityTest_SizeBuckets(t *testing.T) {
	tiny := SuggestNormalityTest(5)
	assert.Empty(t, tiny.Primary)
	assert.Equal(t, ConfidenceLow, tiny.Confidence)

	small := SuggestNormalityTest(30)
	assert.Equal(t, stats.KolmogorovSmirnov, small.Primary)

	medium := SuggestNormalityTest(500)
	assert.Equal(t, stats.AndersonDarling, medium.Primary)

	large := SuggestNormalityTest(10000)
	assert.Equal(t, stats.JarqueBera, large.Primary)
}

// TestAnalyze_OutlierFence verifies the 1.5*IQR detection.
func TestAnalyze_OutlierFence(t *testing.T) {
	clean := stats.Samples{{Name: "clean", Values: []float64{
		1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20,
	}}}
	spiked := stats.Samples{{Name: "spiked", Values: []float64{
		1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 100,
	}}}

	assert.False(t, Analyze(clean, Hints{}).HasOutliers)
	assert.True(t, Analyze(spiked, Hints{}).HasOutliers)
}

// TestSuggestVarianceTest_Selection verifies the F/Bartlett/Levene split.
func TestSuggestVarianceTest_Selection(t *testing.T) {
	gen := testkit.NewGenerator(testkit.DefaultSeed)
	normal2 := stats.Samples{
		{Name: "a", Values: gen.Normal(40, 10, 2)},
		{Name: "b", Values: gen.Normal(40, 10, 2)},
	}
	normal3 := append(stats.Samples{}, normal2...)
	normal3 = append(normal3, stats.Sample{Name: "c", Values: gen.Normal(40, 10, 2)})
	skewed := stats.Samples{
		{Name: "a", Values: gen.Skewed(20, 1)},
		{Name: "b", Values: gen.Skewed(20, 1)},
	}

	assert.Equal(t, stats.FTestVariance, SuggestVarianceTest(normal2).Primary)
	assert.Equal(t, stats.Bartlett, SuggestVarianceTest(normal3).Primary)
	assert.Equal(t, stats.Levene, SuggestVarianceTest(skewed).Primary)

	single := SuggestVarianceTest(stats.Samples{{Name: "only", Values: []float64{1, 2, 3}}})
	assert.Empty(t, single.Primary)
	assert.Equal(t, ConfidenceLow, single.Confidence)
}
