package stats

// Outcome is the immutable result of running one test variant once. It is
// created by the engine at the end of a run and never mutated afterward;
// only its serialized form is persisted.
type Outcome struct {
	Test     TestID `json:"test_type"`
	TestName string `json:"test_name"`

	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	Alpha     float64 `json:"alpha"`

	Significant bool     `json:"significant"`
	Decision    Decision `json:"decision"`

	NullHypothesis string `json:"null_hypothesis"`
	AltHypothesis  string `json:"alternative_hypothesis"`

	Interpretation string `json:"interpretation"`
	Recommendation string `json:"recommendation"`

	EffectSize         *float64  `json:"effect_size,omitempty"`
	ConfidenceInterval *Interval `json:"confidence_interval,omitempty"`

	SampleSizes map[string]int   `json:"sample_sizes"`
	Assumptions AssumptionReport `json:"assumptions"`
	Warnings    []string         `json:"warnings,omitempty"`

	CacheID string `json:"cache_id,omitempty"`
}

// Serialize projects the outcome into its nested wire structure with four
// fixed groups. Every field is present even when its value is nil.
func (o *Outcome) Serialize() map[string]interface{} {
	var ci []float64
	if o.ConfidenceInterval != nil {
		ci = []float64{o.ConfidenceInterval.Lower, o.ConfidenceInterval.Upper}
	}
	var effect interface{}
	if o.EffectSize != nil {
		effect = *o.EffectSize
	}
	warnings := o.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return map[string]interface{}{
		"test_name": o.TestName,
		"test_type": string(o.Test),
		"statistics": map[string]interface{}{
			"test_statistic":      o.Statistic,
			"p_value":             o.PValue,
			"alpha":               o.Alpha,
			"effect_size":         effect,
			"confidence_interval": ci,
			"power":               nil,
		},
		"hypothesis": map[string]interface{}{
			"null":        o.NullHypothesis,
			"alternative": o.AltHypothesis,
			"decision":    string(o.Decision),
			"significant": o.Significant,
		},
		"interpretation": map[string]interface{}{
			"summary":        o.Interpretation,
			"recommendation": o.Recommendation,
		},
		"metadata": map[string]interface{}{
			"sample_sizes":    o.SampleSizes,
			"assumptions_met": o.Assumptions.Checks,
			"warnings":        warnings,
			"cache_id":        o.CacheID,
		},
	}
}

// Summary is the compact caller-facing projection of an outcome, suitable
// for size-constrained transports. Full detail lives behind the cache id.
type Summary struct {
	TestName       string   `json:"test_name"`
	Decision       Decision `json:"decision"`
	PValue         float64  `json:"p_value"`
	Significant    bool     `json:"significant"`
	Interpretation string   `json:"interpretation"`
	EffectSize     *float64 `json:"effect_size,omitempty"`
	CacheID        string   `json:"cache_id,omitempty"`
}

// Summary returns the compact projection.
func (o *Outcome) Summary() Summary {
	return Summary{
		TestName:       o.TestName,
		Decision:       o.Decision,
		PValue:         o.PValue,
		Significant:    o.Significant,
		Interpretation: o.Interpretation,
		EffectSize:     o.EffectSize,
		CacheID:        o.CacheID,
	}
}
