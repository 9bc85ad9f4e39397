// Package engine orchestrates hypothesis-test execution: a closed registry
// of test variants, each a bundle of strategy functions, run through one
// uniform workflow.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"hypotest/domain/core"
	"hypotest/domain/stats"
	"hypotest/internal"
	"hypotest/ports"
)

// Variant describes one registered test: its structural requirements and
// the strategy functions the engine dispatches through. Optional derived
// quantities (effect size, confidence interval) are nil for variants that
// do not support them.
type Variant struct {
	ID   stats.TestID
	Name string

	// Structural requirements checked during validation.
	MinGroups int
	MaxGroups int // 0 means unbounded
	Paired    bool
	MinLen    int

	// Hypotheses renders the null/alternative statements with the actual
	// parameters substituted.
	Hypotheses func(s stats.Samples, p stats.Params) (null, alt string)

	// Assumptions produces the per-run assumption report. Failures become
	// warnings, never aborts.
	Assumptions func(s stats.Samples, p stats.Params) stats.AssumptionReport

	// Compute obtains (statistic, p-value) from the statistical library.
	Compute func(s stats.Samples, p stats.Params) (statistic, pValue float64, err error)

	// EffectSize returns the supported effect measure, or nil plus a
	// warning when the needed denominator vanishes. Nil field means the
	// variant does not support effect sizes.
	EffectSize func(s stats.Samples, p stats.Params) (*float64, string)

	// ConfInterval returns the supported interval estimate, or nil plus a
	// warning. Nil field means unsupported.
	ConfInterval func(s stats.Samples, p stats.Params) (*stats.Interval, string)

	// Interpret renders the deterministic natural-language summary.
	Interpret func(statistic, pValue float64, s stats.Samples, p stats.Params) string

	// Recommend overrides the default recommendation text. Optional.
	Recommend func(decision stats.Decision, report stats.AssumptionReport) string
}

// Request carries everything one run needs.
type Request struct {
	Test     stats.TestID
	Samples  stats.Samples
	Params   stats.Params
	StoreRaw bool
}

// Engine executes registered variants. It is stateless across calls except
// for the registry, which is populated once at startup and read-only
// afterward.
type Engine struct {
	registry map[stats.TestID]*Variant
	order    []stats.TestID
	cache    ports.ResultCache
	log      *internal.Logger
}

// New creates an engine bound to a result cache.
func New(cache ports.ResultCache, logger *internal.Logger) *Engine {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &Engine{
		registry: make(map[stats.TestID]*Variant),
		cache:    cache,
		log:      logger,
	}
}

// Register adds a variant to the registry. Duplicate ids are rejected.
func (e *Engine) Register(v *Variant) error {
	if v == nil || v.ID == "" {
		return fmt.Errorf("variant must have an id")
	}
	if _, exists := e.registry[v.ID]; exists {
		return fmt.Errorf("variant %s already registered", v.ID)
	}
	if v.Compute == nil || v.Hypotheses == nil || v.Assumptions == nil || v.Interpret == nil {
		return fmt.Errorf("variant %s is missing a required strategy", v.ID)
	}
	e.registry[v.ID] = v
	e.order = append(e.order, v.ID)
	return nil
}

// Variant looks up a registered variant by id.
func (e *Engine) Variant(id stats.TestID) (*Variant, bool) {
	v, ok := e.registry[id]
	return v, ok
}

// List returns registered variant ids in registration order.
func (e *Engine) List() []stats.TestID {
	out := make([]stats.TestID, len(e.order))
	copy(out, e.order)
	return out
}

// Run executes one test invocation: validate, check assumptions, compute,
// decide, derive effect size and interval, interpret, cache, emit.
func (e *Engine) Run(ctx context.Context, req Request) (*stats.Outcome, error) {
	v, ok := e.registry[req.Test]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrTestNotFound, req.Test)
	}

	if err := e.validate(v, req.Samples, req.Params); err != nil {
		return nil, err
	}

	report := v.Assumptions(req.Samples, req.Params)
	var warnings []string
	for _, name := range report.Failed() {
		if reason, has := report.Reasons[name]; has {
			warnings = append(warnings, fmt.Sprintf("assumption %s violated: %s", name, reason))
		} else {
			warnings = append(warnings, fmt.Sprintf("assumption %s violated", name))
		}
	}

	statistic, pValue, err := v.Compute(req.Samples, req.Params)
	if err != nil {
		return nil, err
	}

	decision := stats.NewDecision(pValue, req.Params.Alpha)

	var effect *float64
	if v.EffectSize != nil {
		var warn string
		effect, warn = v.EffectSize(req.Samples, req.Params)
		if effect == nil && warn != "" {
			warnings = append(warnings, warn)
		}
	}

	var interval *stats.Interval
	if v.ConfInterval != nil {
		var warn string
		interval, warn = v.ConfInterval(req.Samples, req.Params)
		if interval == nil && warn != "" {
			warnings = append(warnings, warn)
		}
	}

	null, alt := v.Hypotheses(req.Samples, req.Params)

	recommendation := defaultRecommendation(decision, report)
	if v.Recommend != nil {
		recommendation = v.Recommend(decision, report)
	}

	outcome := &stats.Outcome{
		Test:               v.ID,
		TestName:           v.Name,
		Statistic:          statistic,
		PValue:             pValue,
		Alpha:              req.Params.Alpha,
		Significant:        decision == stats.DecisionReject,
		Decision:           decision,
		NullHypothesis:     null,
		AltHypothesis:      alt,
		Interpretation:     v.Interpret(statistic, pValue, req.Samples, req.Params),
		Recommendation:     recommendation,
		EffectSize:         effect,
		ConfidenceInterval: interval,
		SampleSizes:        req.Samples.Lengths(),
		Assumptions:        report,
		Warnings:           warnings,
	}

	// Caching failure must never lose the result: downgrade to a warning
	// and return the outcome without an id.
	if id, cerr := e.cacheOutcome(ctx, v, outcome, req); cerr != nil {
		e.log.Warn("failed to cache result for %s: %v", v.ID, cerr)
		outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("detailed results were not cached: %v", cerr))
	} else {
		outcome.CacheID = id.String()
	}

	return outcome, nil
}

func (e *Engine) validate(v *Variant, samples stats.Samples, p stats.Params) error {
	if p.Alpha <= 0 || p.Alpha >= 1 {
		return fmt.Errorf("%w: got %v", core.ErrAlphaOutOfRange, p.Alpha)
	}
	if len(samples) < v.MinGroups {
		return fmt.Errorf("%w: %s requires at least %d groups, got %d",
			core.ErrArityMismatch, v.ID, v.MinGroups, len(samples))
	}
	if v.MaxGroups > 0 && len(samples) > v.MaxGroups {
		return fmt.Errorf("%w: %s accepts at most %d groups, got %d",
			core.ErrArityMismatch, v.ID, v.MaxGroups, len(samples))
	}
	if v.Paired {
		first := len(samples[0].Values)
		for _, g := range samples[1:] {
			if len(g.Values) != first {
				return fmt.Errorf("%w: %q has %d values, %q has %d",
					core.ErrUnpairedSamples, samples[0].Name, first, g.Name, len(g.Values))
			}
		}
	}
	for _, g := range samples {
		if len(g.Values) < v.MinLen {
			return fmt.Errorf("%w: %q has %d values, %s requires at least %d",
				core.ErrSampleTooSmall, g.Name, len(g.Values), v.ID, v.MinLen)
		}
	}
	if name, bad := samples.HasNonFinite(); bad {
		return fmt.Errorf("%w: in sample %q", core.ErrNonFiniteValue, name)
	}
	return nil
}

// cacheOutcome mints the entry id before serializing so the cached detail
// carries the same cache_id the caller receives. The id is cleared again on
// any failure.
func (e *Engine) cacheOutcome(ctx context.Context, v *Variant, o *stats.Outcome, req Request) (core.CacheID, error) {
	id := core.CacheID(core.NewID())
	o.CacheID = id.String()

	payload, err := json.Marshal(o.Serialize())
	if err != nil {
		o.CacheID = ""
		return "", err
	}
	var raw []byte
	if req.StoreRaw {
		raw, err = json.Marshal(req.Samples)
		if err != nil {
			o.CacheID = ""
			return "", err
		}
	}
	if err := e.cache.Put(ctx, id, v.ID.String(), payload, raw); err != nil {
		o.CacheID = ""
		return "", err
	}
	return id, nil
}

func defaultRecommendation(decision stats.Decision, report stats.AssumptionReport) string {
	suffix := ""
	if failed := report.Failed(); len(failed) > 0 {
		suffix = fmt.Sprintf(" WARNING: assumptions not met: %s. Consider non-parametric alternatives.",
			strings.Join(failed, ", "))
	}
	if decision == stats.DecisionReject {
		return "Evidence suggests a significant effect. Consider practical significance and collect more data to confirm." + suffix
	}
	return "Insufficient evidence to conclude an effect. Consider increasing sample size or effect size." + suffix
}
