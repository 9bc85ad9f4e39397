package suggest

import (
	"fmt"

	mstats "github.com/montanaflynn/stats"

	"hypotest/domain/stats"
	"hypotest/internal/assume"
)

// Confidence labels how well the recommended test's assumptions hold for
// the supplied data.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Suggestion is the suggester's answer: a primary test plus ranked
// rank-based fallbacks and the reasoning behind the pick.
type Suggestion struct {
	Primary      stats.TestID   `json:"primary_test"`
	TestName     string         `json:"test_name"`
	Reason       string         `json:"reason"`
	Confidence   Confidence     `json:"confidence"`
	Alternatives []stats.TestID `json:"alternative_tests"`
	Warning      string         `json:"warning,omitempty"`
}

// Hints carries caller-supplied metadata that overrides inference.
type Hints struct {
	// Paired overrides the pairing inference when set.
	Paired *bool
	// Scale overrides the measurement-scale inference when set.
	Scale stats.Scale
}

// Characteristics is the data vector the rule table matches against.
type Characteristics struct {
	Groups         int
	Paired         bool
	Scale          stats.Scale
	Normal         bool
	EqualVariances bool
	MinN           int
	HasOutliers    bool
	AdequateSize   bool
}

// Analyze derives the characteristic vector for a set of samples. Pairing
// is taken from the hint when present, otherwise inferred from shape: two
// equal-length groups below 100 observations are treated as paired.
func Analyze(samples stats.Samples, hints Hints) Characteristics {
	c := Characteristics{
		Groups:         len(samples),
		Scale:          stats.ScaleContinuous,
		Normal:         true,
		EqualVariances: true,
	}
	if len(samples) == 0 {
		return c
	}

	c.MinN = samples.MinLen()
	if hints.Paired != nil {
		c.Paired = *hints.Paired
	} else {
		c.Paired = len(samples) == 2 &&
			len(samples[0].Values) == len(samples[1].Values) &&
			len(samples[0].Values) < 100
	}

	if hints.Scale != "" {
		c.Scale = hints.Scale
	} else {
		c.Scale = inferScale(samples[0].Values)
	}

	for _, g := range samples {
		if ok, _ := assume.Normality(g.Values); !ok {
			c.Normal = false
			break
		}
	}
	if len(samples) >= 2 {
		c.EqualVariances, _ = assume.EqualVariances(samples.Groups())
	}
	c.HasOutliers = hasOutliers(samples)
	c.AdequateSize = assume.AdequateSize(c.MinN, c.Normal)
	return c
}

// inferScale guesses the measurement scale from value coarseness: a small
// set of distinct values is treated as ordinal.
func inferScale(values []float64) stats.Scale {
	distinct := make(map[float64]struct{}, len(values))
	for _, v := range values {
		distinct[v] = struct{}{}
	}
	if len(distinct) <= 10 {
		return stats.ScaleOrdinal
	}
	return stats.ScaleContinuous
}

// hasOutliers applies the 1.5*IQR fence per group.
func hasOutliers(samples stats.Samples) bool {
	for _, g := range samples {
		if len(g.Values) < 4 {
			continue
		}
		q, err := mstats.Quartile(g.Values)
		if err != nil {
			continue
		}
		iqr := q.Q3 - q.Q1
		lo, hi := q.Q1-1.5*iqr, q.Q3+1.5*iqr
		for _, v := range g.Values {
			if v < lo || v > hi {
				return true
			}
		}
	}
	return false
}

// rule is one row of the suggestion table.
type rule struct {
	matches func(Characteristics) bool
	build   func(Characteristics) Suggestion
}

// rules is ordered; the first matching row wins. The final row matches
// unconditionally, so every characteristic vector resolves to a test.
var rules = []rule{
	// single sample
	{
		matches: func(c Characteristics) bool {
			return c.Groups == 1 && c.Scale == stats.ScaleContinuous && (c.Normal || c.AdequateSize)
		},
		build: func(c Characteristics) Suggestion {
			return Suggestion{
				Primary:      stats.OneSampleTTest,
				TestName:     "One-Sample T-Test",
				Reason:       "data is continuous and approximately normal (or n >= 30)",
				Confidence:   degradeForSize(ConfidenceHigh, c),
				Alternatives: []stats.TestID{stats.WilcoxonSignedRank},
			}
		},
	},
	{
		matches: func(c Characteristics) bool { return c.Groups == 1 },
		build: func(c Characteristics) Suggestion {
			return Suggestion{
				Primary:      stats.WilcoxonSignedRank,
				TestName:     "Wilcoxon Signed-Rank Test",
				Reason:       "single sample that is non-normal or ordinal; compare signed ranks against the hypothesized center",
				Confidence:   degradeForSize(ConfidenceMedium, c),
				Alternatives: nil,
			}
		},
	},

	// two paired groups
	{
		matches: func(c Characteristics) bool {
			return c.Groups == 2 && c.Paired && c.Scale == stats.ScaleContinuous && (c.Normal || c.AdequateSize)
		},
		build: func(c Characteristics) Suggestion {
			return Suggestion{
				Primary:      stats.PairedTTest,
				TestName:     "Paired T-Test",
				Reason:       "paired continuous data with approximately normal differences",
				Confidence:   degradeForSize(ConfidenceHigh, c),
				Alternatives: []stats.TestID{stats.WilcoxonSignedRank},
			}
		},
	},
	{
		matches: func(c Characteristics) bool { return c.Groups == 2 && c.Paired },
		build: func(c Characteristics) Suggestion {
			return Suggestion{
				Primary:      stats.WilcoxonSignedRank,
				TestName:     "Wilcoxon Signed-Rank Test",
				Reason:       "paired data that is non-normal or ordinal",
				Confidence:   degradeForSize(ConfidenceHigh, c),
				Alternatives: nil,
			}
		},
	},

	// two independent groups
	{
		matches: func(c Characteristics) bool {
			return c.Groups == 2 && c.Scale == stats.ScaleContinuous && (c.Normal || c.AdequateSize) && c.EqualVariances
		},
		build: func(c Characteristics) Suggestion {
			return Suggestion{
				Primary:      stats.TwoSampleTTest,
				TestName:     "Independent Two-Sample T-Test",
				Reason:       "independent continuous groups, approximately normal, with equal variances",
				Confidence:   degradeForSize(ConfidenceHigh, c),
				Alternatives: []stats.TestID{stats.MannWhitneyU},
			}
		},
	},
	{
		matches: func(c Characteristics) bool {
			return c.Groups == 2 && c.Scale == stats.ScaleContinuous && (c.Normal || c.AdequateSize)
		},
		build: func(c Characteristics) Suggestion {
			return Suggestion{
				Primary:      stats.TwoSampleTTest,
				TestName:     "Welch's T-Test",
				Reason:       "independent continuous groups, approximately normal, but with unequal variances",
				Confidence:   degradeForSize(ConfidenceMedium, c),
				Alternatives: []stats.TestID{stats.MannWhitneyU, stats.Levene},
				Warning:      "equal variance assumption violated; run with equal_var=false",
			}
		},
	},
	{
		matches: func(c Characteristics) bool { return c.Groups == 2 },
		build: func(c Characteristics) Suggestion {
			return Suggestion{
				Primary:      stats.MannWhitneyU,
				TestName:     "Mann-Whitney U Test",
				Reason:       "independent groups that are non-normal or ordinal",
				Confidence:   degradeForSize(ConfidenceHigh, c),
				Alternatives: nil,
			}
		},
	},

	// three or more groups
	{
		matches: func(c Characteristics) bool {
			return c.Groups >= 3 && c.Scale == stats.ScaleContinuous && (c.Normal || c.AdequateSize) && c.EqualVariances
		},
		build: func(c Characteristics) Suggestion {
			return Suggestion{
				Primary:      stats.OneWayANOVA,
				TestName:     "One-Way ANOVA",
				Reason:       fmt.Sprintf("%d independent continuous groups, approximately normal, with equal variances", c.Groups),
				Confidence:   degradeForSize(ConfidenceHigh, c),
				Alternatives: []stats.TestID{stats.KruskalWallis},
			}
		},
	},
	{
		matches: func(c Characteristics) bool {
			return c.Groups >= 3 && c.Scale == stats.ScaleContinuous && (c.Normal || c.AdequateSize)
		},
		build: func(c Characteristics) Suggestion {
			return Suggestion{
				Primary:      stats.KruskalWallis,
				TestName:     "Kruskal-Wallis Test",
				Reason:       fmt.Sprintf("%d independent continuous groups with unequal variances", c.Groups),
				Confidence:   degradeForSize(ConfidenceMedium, c),
				Alternatives: []stats.TestID{stats.Levene},
				Warning:      "equal variance assumption violated; using the rank-based alternative",
			}
		},
	},

	// catch-all: the most robust rank-based test for the shape
	{
		matches: func(c Characteristics) bool { return true },
		build: func(c Characteristics) Suggestion {
			return Suggestion{
				Primary:      stats.KruskalWallis,
				TestName:     "Kruskal-Wallis Test",
				Reason:       fmt.Sprintf("%d groups that are non-normal or ordinal", c.Groups),
				Confidence:   degradeForSize(ConfidenceHigh, c),
				Alternatives: nil,
			}
		},
	},
}

func degradeForSize(base Confidence, c Characteristics) Confidence {
	if c.MinN >= 5 {
		return base
	}
	// sparse data never errors, it just lowers confidence
	if base == ConfidenceHigh {
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// Suggest maps samples to a recommended test through the rule table. It
// never fails: sparse or odd data lands on a robust rank-based test with
// reduced confidence.
func Suggest(samples stats.Samples, hints Hints) Suggestion {
	c := Analyze(samples, hints)
	for _, r := range rules {
		if r.matches(c) {
			return r.build(c)
		}
	}
	// unreachable, the last rule matches everything
	return rules[len(rules)-1].build(c)
}

// SuggestNormalityTest picks a normality test by sample size.
func SuggestNormalityTest(n int) Suggestion {
	switch {
	case n < 7:
		return Suggestion{
			Confidence: ConfidenceLow,
			Reason:     "sample too small for normality testing (n < 7); assume non-normal and prefer rank-based tests",
		}
	case n <= 50:
		return Suggestion{
			Primary:      stats.KolmogorovSmirnov,
			TestName:     "Kolmogorov-Smirnov Normality Test",
			Reason:       "suitable for small to moderate samples (n <= 50)",
			Confidence:   ConfidenceHigh,
			Alternatives: []stats.TestID{stats.AndersonDarling, stats.JarqueBera},
		}
	case n <= 5000:
		return Suggestion{
			Primary:      stats.AndersonDarling,
			TestName:     "Anderson-Darling Normality Test",
			Reason:       "tail-sensitive and well calibrated for moderate samples",
			Confidence:   ConfidenceHigh,
			Alternatives: []stats.TestID{stats.KolmogorovSmirnov, stats.JarqueBera},
		}
	default:
		return Suggestion{
			Primary:      stats.JarqueBera,
			TestName:     "Jarque-Bera Normality Test",
			Reason:       "moment-based test scales best for large samples (n > 5000)",
			Confidence:   ConfidenceHigh,
			Alternatives: []stats.TestID{stats.AndersonDarling},
		}
	}
}

// SuggestVarianceTest picks a variance-homogeneity test for the groups.
func SuggestVarianceTest(samples stats.Samples) Suggestion {
	if len(samples) < 2 {
		return Suggestion{
			Confidence: ConfidenceLow,
			Reason:     "at least 2 groups are required to test variance equality",
		}
	}

	allNormal := true
	for _, g := range samples {
		if ok, _ := assume.Normality(g.Values); !ok {
			allNormal = false
			break
		}
	}

	if allNormal && len(samples) == 2 {
		return Suggestion{
			Primary:      stats.FTestVariance,
			TestName:     "F-Test for Equality of Variances",
			Reason:       "two normal groups, the variance ratio test is most powerful",
			Confidence:   ConfidenceHigh,
			Alternatives: []stats.TestID{stats.Levene},
			Warning:      "sensitive to non-normality; prefer Levene's test if normality is questionable",
		}
	}
	if allNormal {
		return Suggestion{
			Primary:      stats.Bartlett,
			TestName:     "Bartlett's Test",
			Reason:       fmt.Sprintf("%d normal groups, Bartlett's test is most powerful", len(samples)),
			Confidence:   ConfidenceHigh,
			Alternatives: []stats.TestID{stats.Levene},
			Warning:      "sensitive to non-normality; prefer Levene's test if normality is questionable",
		}
	}
	return Suggestion{
		Primary:      stats.Levene,
		TestName:     "Levene's Test",
		Reason:       "normality is doubtful, the median-centered Levene test stays robust",
		Confidence:   ConfidenceHigh,
		Alternatives: nil,
	}
}
