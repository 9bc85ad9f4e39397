package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"hypotest/domain/core"
	"hypotest/domain/stats"
	"hypotest/internal/testkit"
	"hypotest/ports"
)

// memCache is an in-memory ResultCache for engine tests.
type memCache struct {
	entries map[core.CacheID]memEntry
	failPut bool
	puts    int
}

type memEntry struct {
	test    string
	payload []byte
	raw     []byte
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[core.CacheID]memEntry)}
}

func (m *memCache) Put(ctx context.Context, id core.CacheID, test string, payload []byte, raw []byte) error {
	if m.failPut {
		return errors.New("storage unavailable")
	}
	m.puts++
	m.entries[id] = memEntry{test: test, payload: payload, raw: raw}
	return nil
}

func (m *memCache) Get(ctx context.Context, id core.CacheID, includeRaw bool) ([]byte, []byte, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, nil, core.ErrEntryNotFound
	}
	if includeRaw {
		return e.payload, e.raw, nil
	}
	return e.payload, nil, nil
}

func (m *memCache) Delete(ctx context.Context, id core.CacheID) error {
	delete(m.entries, id)
	return nil
}

func (m *memCache) List(ctx context.Context) ([]ports.CacheEntrySummary, error) {
	return nil, nil
}

func (m *memCache) Sweep(ctx context.Context) (int, error) { return 0, nil }

// meanTestVariant is a minimal location-test variant for exercising the
// workflow without statistical noise.
func meanTestVariant() *Variant {
	return &Variant{
		ID:        "mean_probe",
		Name:      "Mean Probe",
		MinGroups: 1,
		MaxGroups: 1,
		MinLen:    3,
		Hypotheses: func(s stats.Samples, p stats.Params) (string, string) {
			return fmt.Sprintf("H0: mu = %g", p.Mu0), fmt.Sprintf("H1: mu != %g", p.Mu0)
		},
		Assumptions: func(s stats.Samples, p stats.Params) stats.AssumptionReport {
			r := stats.NewAssumptionReport()
			r.Set("normality", len(s[0].Values) >= 10, "sample too small")
			return r
		},
		Compute: func(s stats.Samples, p stats.Params) (float64, float64, error) {
			var sum float64
			for _, v := range s[0].Values {
				sum += v
			}
			mean := sum / float64(len(s[0].Values))
			if mean == p.Mu0 {
				return 0, 1, nil
			}
			diff := math.Abs(mean - p.Mu0)
			return diff, 1 / (1 + diff), nil
		},
		Interpret: func(statistic, pValue float64, s stats.Samples, p stats.Params) string {
			return fmt.Sprintf("mean differs from %g by %g", p.Mu0, statistic)
		},
	}
}

func newTestEngine(t *testing.T, cache ports.ResultCache) *Engine {
	t.Helper()
	e := New(cache, nil)
	if err := e.Register(meanTestVariant()); err != nil {
		t.Fatalf("register: %v", err)
	}
	return e
}

// TestRegister_Rejections verifies duplicates and incomplete variants are
// rejected.
func TestRegister_Rejections(t *testing.T) {
	e := newTestEngine(t, newMemCache())

	if err := e.Register(meanTestVariant()); err == nil {
		t.Error("duplicate registration should fail")
	}
	if err := e.Register(&Variant{ID: "no_strategies"}); err == nil {
		t.Error("variant without strategies should fail")
	}
	if err := e.Register(nil); err == nil {
		t.Error("nil variant should fail")
	}
}

// TestRun_UnknownVariant verifies the typed not-found error.
func TestRun_UnknownVariant(t *testing.T) {
	e := newTestEngine(t, newMemCache())

	_, err := e.Run(context.Background(), Request{
		Test:    "no_such_test",
		Samples: stats.Samples{{Name: "x", Values: []float64{1, 2, 3}}},
		Params:  stats.DefaultParams(),
	})
	if !errors.Is(err, core.ErrTestNotFound) {
		t.Fatalf("expected ErrTestNotFound, got %v", err)
	}
}

// TestRun_ValidationErrors verifies each structural check fires with its
// sentinel.
func TestRun_ValidationErrors(t *testing.T) {
	e := newTestEngine(t, newMemCache())
	ctx := context.Background()

	cases := []struct {
		name    string
		req     Request
		wantErr error
	}{
		{
			name: "alpha out of range",
			req: Request{
				Test:    "mean_probe",
				Samples: stats.Samples{{Name: "x", Values: []float64{1, 2, 3}}},
				Params:  stats.Params{Alpha: 1.5, Tail: stats.TailTwoSided},
			},
			wantErr: core.ErrAlphaOutOfRange,
		},
		{
			name: "too few groups",
			req: Request{
				Test:   "mean_probe",
				Params: stats.DefaultParams(),
			},
			wantErr: core.ErrArityMismatch,
		},
		{
			name: "too many groups",
			req: Request{
				Test: "mean_probe",
				Samples: stats.Samples{
					{Name: "x", Values: []float64{1, 2, 3}},
					{Name: "y", Values: []float64{1, 2, 3}},
				},
				Params: stats.DefaultParams(),
			},
			wantErr: core.ErrArityMismatch,
		},
		{
			name: "sample too small",
			req: Request{
				Test:    "mean_probe",
				Samples: stats.Samples{{Name: "x", Values: []float64{1, 2}}},
				Params:  stats.DefaultParams(),
			},
			wantErr: core.ErrSampleTooSmall,
		},
		{
			name: "non-finite value",
			req: Request{
				Test:    "mean_probe",
				Samples: stats.Samples{{Name: "x", Values: []float64{1, math.Inf(1), 3}}},
				Params:  stats.DefaultParams(),
			},
			wantErr: core.ErrNonFiniteValue,
		},
	}

	for _, c := range cases {
		if _, err := e.Run(ctx, c.req); !errors.Is(err, c.wantErr) {
			t.Errorf("%s: got %v, want %v", c.name, err, c.wantErr)
		}
	}
}

// TestRun_UnpairedSamples verifies pairing validation on paired variants.
func TestRun_UnpairedSamples(t *testing.T) {
	e := New(newMemCache(), nil)
	paired := meanTestVariant()
	paired.ID = "paired_probe"
	paired.MaxGroups = 2
	paired.Paired = true
	if err := e.Register(paired); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := e.Run(context.Background(), Request{
		Test: "paired_probe",
		Samples: stats.Samples{
			{Name: "before", Values: []float64{1, 2, 3}},
			{Name: "after", Values: []float64{1, 2, 3, 4}},
		},
		Params: stats.DefaultParams(),
	})
	if !errors.Is(err, core.ErrUnpairedSamples) {
		t.Fatalf("expected ErrUnpairedSamples, got %v", err)
	}
}

// TestRun_FullWorkflow verifies decision derivation, assumption warnings,
// interpretation, and caching on the happy path.
func TestRun_FullWorkflow(t *testing.T) {
	cache := newMemCache()
	e := newTestEngine(t, cache)

	// 5 values: triggers the variant's small-sample assumption warning
	outcome, err := e.Run(context.Background(), Request{
		Test:    "mean_probe",
		Samples: stats.Samples{{Name: "x", Values: []float64{10, 11, 12, 13, 14}}},
		Params:  stats.Params{Alpha: 0.5, Mu0: 0, Tail: stats.TailTwoSided},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if outcome.Decision != stats.DecisionReject || !outcome.Significant {
		t.Errorf("p=%v alpha=%v should reject, got %s", outcome.PValue, outcome.Alpha, outcome.Decision)
	}
	if (outcome.Decision == stats.DecisionReject) != (outcome.PValue < outcome.Alpha) {
		t.Error("decision invariant violated")
	}
	if outcome.NullHypothesis == "" || outcome.AltHypothesis == "" || outcome.Interpretation == "" {
		t.Error("hypothesis and interpretation text must be populated")
	}
	if outcome.Recommendation == "" {
		t.Error("default recommendation must be populated")
	}
	if len(outcome.Warnings) == 0 || !strings.Contains(outcome.Warnings[0], "normality") {
		t.Errorf("expected a normality warning, got %v", outcome.Warnings)
	}
	if outcome.SampleSizes["x"] != 5 {
		t.Errorf("sample sizes = %v, want x:5", outcome.SampleSizes)
	}
	if outcome.CacheID == "" {
		t.Error("successful run should carry a cache id")
	}
	if cache.puts != 1 {
		t.Errorf("cache received %d puts, want 1", cache.puts)
	}

	// cached payload must be the serialized outcome
	payload, _, err := cache.Get(context.Background(), core.CacheID(outcome.CacheID), false)
	if err != nil {
		t.Fatalf("get cached payload: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("cached payload is not JSON: %v", err)
	}
	if _, ok := decoded["statistics"]; !ok {
		t.Error("cached payload missing statistics group")
	}
	// the cached detail must carry the same id the caller got back
	meta, ok := decoded["metadata"].(map[string]interface{})
	if !ok {
		t.Fatal("cached payload missing metadata group")
	}
	if meta["cache_id"] != outcome.CacheID {
		t.Errorf("cached metadata.cache_id = %v, want %s", meta["cache_id"], outcome.CacheID)
	}
}

// TestRun_CacheFailureNonFatal verifies a failing cache downgrades to a
// warning with an empty cache id.
func TestRun_CacheFailureNonFatal(t *testing.T) {
	cache := newMemCache()
	cache.failPut = true
	e := newTestEngine(t, cache)

	outcome, err := e.Run(context.Background(), Request{
		Test:    "mean_probe",
		Samples: stats.Samples{{Name: "x", Values: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}}},
		Params:  stats.DefaultParams(),
	})
	if err != nil {
		t.Fatalf("caching failure must not fail the run: %v", err)
	}
	if outcome.CacheID != "" {
		t.Errorf("cache id should be empty on cache failure, got %q", outcome.CacheID)
	}
	found := false
	for _, w := range outcome.Warnings {
		if strings.Contains(w, "not cached") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a caching warning, got %v", outcome.Warnings)
	}
}

// TestRun_StoreRaw verifies raw samples ride along only when requested.
func TestRun_StoreRaw(t *testing.T) {
	cache := newMemCache()
	e := newTestEngine(t, cache)
	gen := testkit.NewGenerator(testkit.DefaultSeed)
	values := gen.Normal(20, 5, 1)

	outcome, err := e.Run(context.Background(), Request{
		Test:     "mean_probe",
		Samples:  stats.Samples{{Name: "x", Values: values}},
		Params:   stats.DefaultParams(),
		StoreRaw: true,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	_, raw, err := cache.Get(context.Background(), core.CacheID(outcome.CacheID), true)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("raw samples were requested but not stored")
	}
	var decoded stats.Samples
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("raw blob is not JSON: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Name != "x" || len(decoded[0].Values) != 20 {
		t.Errorf("raw round-trip mismatch: %+v", decoded)
	}
}

// TestList_RegistrationOrder verifies List preserves registration order.
func TestList_RegistrationOrder(t *testing.T) {
	e := New(newMemCache(), nil)
	for _, id := range []stats.TestID{"c_probe", "a_probe", "b_probe"} {
		v := meanTestVariant()
		v.ID = id
		if err := e.Register(v); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}
	got := e.List()
	want := []stats.TestID{"c_probe", "a_probe", "b_probe"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("List() = %v, want %v", got, want)
		}
	}
}
