package scoring

import (
	"math"
	"testing"

	"github.com/quadmap/quadmap/pkg/errors"
	"github.com/quadmap/quadmap/pkg/plane"
)

const eps = 1e-9

func item(id string, descriptors map[string]string) plane.Item {
	return plane.Item{ID: id, Name: id, Size: plane.SizeMedium, Descriptors: descriptors}
}

func TestLookupPreset(t *testing.T) {
	tests := []struct {
		name     string
		preset   string
		wantCode errors.Code
	}{
		{name: "base", preset: PresetBase},
		{name: "state emphasis", preset: PresetStateEmphasis},
		{name: "equity emphasis", preset: PresetEquityEmphasis},
		{name: "market emphasis", preset: PresetMarketEmphasis},
		{name: "unknown", preset: "maximal", wantCode: errors.ErrCodeInvalidPreset},
		{name: "empty", preset: "", wantCode: errors.ErrCodeInvalidPreset},
		{name: "path separator", preset: "base/extra", wantCode: errors.ErrCodeInvalidPreset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := LookupPreset(nil, tt.preset)
			if tt.wantCode != "" {
				if !errors.Is(err, tt.wantCode) {
					t.Fatalf("LookupPreset(%q) error = %v, want code %s", tt.preset, err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("LookupPreset(%q) unexpected error: %v", tt.preset, err)
			}
			if p.Name != tt.preset {
				t.Errorf("preset name = %q, want %q", p.Name, tt.preset)
			}
		})
	}
}

func TestPresetWeightsSumToOne(t *testing.T) {
	for name, preset := range DefaultPresets {
		t.Run(name, func(t *testing.T) {
			var sx, sy float64
			for _, w := range preset.X {
				sx += w
			}
			for _, w := range preset.Y {
				sy += w
			}
			if math.Abs(sx-1) > eps {
				t.Errorf("X weights sum to %v, want 1", sx)
			}
			if math.Abs(sy-1) > eps {
				t.Errorf("Y weights sum to %v, want 1", sy)
			}
		})
	}
}

func TestComputePositionBasePreset(t *testing.T) {
	eng := NewEngine(nil, nil)

	it := item("market-school", map[string]string{
		DimEconomyView:  "individuals",
		DimHumanView:    "rational_egoist",
		DimWorldView:    "certain_predictable",
		DimDomainFocus:  "trade",
		DimChangeDriver: "individual_choice",
		DimPolicyStance: "free_market",
	})

	got, degraded, err := eng.ComputePosition(it, PresetBase)
	if err != nil {
		t.Fatalf("ComputePosition: %v", err)
	}
	if len(degraded) != 0 {
		t.Fatalf("unexpected degradations: %v", degraded)
	}

	// X = .25*.8 + .20*.7 + .15*.6 + .20*.7 + .20*.9
	// Y = .30*(-.6) + .30*.2 + .40*(-.4)
	if math.Abs(got.X-0.75) > eps {
		t.Errorf("X = %v, want 0.75", got.X)
	}
	if math.Abs(got.Y-(-0.28)) > eps {
		t.Errorf("Y = %v, want -0.28", got.Y)
	}
}

func TestComputePositionDegradesUnknownValues(t *testing.T) {
	eng := NewEngine(nil, nil)

	known := item("known", map[string]string{
		DimEconomyView: "individuals",
	})
	noisy := item("noisy", map[string]string{
		DimEconomyView:  "individuals",
		DimPolicyStance: "anarchist", // not in the table
	})

	base, _, err := eng.ComputePosition(known, PresetBase)
	if err != nil {
		t.Fatalf("ComputePosition(known): %v", err)
	}
	got, degraded, err := eng.ComputePosition(noisy, PresetBase)
	if err != nil {
		t.Fatalf("ComputePosition(noisy): %v", err)
	}

	if len(degraded) != 1 {
		t.Fatalf("degradations = %v, want exactly one", degraded)
	}
	if degraded[0].Dimension != DimPolicyStance || degraded[0].Value != "anarchist" {
		t.Errorf("degradation = %+v", degraded[0])
	}
	// The unknown value must contribute zero, not fail or distort.
	if got != base {
		t.Errorf("unknown value changed position: %v vs %v", got, base)
	}
}

func TestComputePositionMissingDimensions(t *testing.T) {
	eng := NewEngine(nil, nil)

	got, degraded, err := eng.ComputePosition(item("sparse", map[string]string{
		DimPolicyStance: "free_market",
	}), PresetBase)
	if err != nil {
		t.Fatalf("ComputePosition: %v", err)
	}
	if len(degraded) != 0 {
		t.Errorf("missing dimensions must not be reported as degraded: %v", degraded)
	}
	if math.Abs(got.X-0.18) > eps || got.Y != 0 {
		t.Errorf("got %v, want (0.18, 0)", got)
	}
}

func TestComputePositionStaysOnUnitPlane(t *testing.T) {
	eng := NewEngine(nil, nil)

	// Exhaustive sweep: every value combination under every preset must
	// land inside [-1,1]².
	combos := []map[string]string{}
	for _, econ := range []string{"social_classes", "individuals", "structures"} {
		for _, human := range []string{"rational_egoist", "class_conditioned", "bounded_rationality"} {
			for _, driver := range []string{"capital_accumulation", "class_struggle", "institutions"} {
				combos = append(combos, map[string]string{
					DimEconomyView:  econ,
					DimHumanView:    human,
					DimWorldView:    "complex_uncertain",
					DimDomainFocus:  "distribution",
					DimChangeDriver: driver,
					DimPolicyStance: "redistribution",
				})
			}
		}
	}

	for name := range DefaultPresets {
		for i, d := range combos {
			p, _, err := eng.ComputePosition(item("it", d), name)
			if err != nil {
				t.Fatalf("preset %s combo %d: %v", name, i, err)
			}
			if p.X < -1 || p.X > 1 || p.Y < -1 || p.Y > 1 {
				t.Errorf("preset %s combo %d: %v escapes unit plane", name, i, p)
			}
			if !p.IsFinite() {
				t.Errorf("preset %s combo %d: non-finite %v", name, i, p)
			}
		}
	}
}

func TestBatchComputeUnknownPresetFailsWholeBatch(t *testing.T) {
	eng := NewEngine(nil, nil)
	items := []plane.Item{item("a", nil), item("b", nil)}

	points, _, err := eng.BatchCompute(items, "bogus", 1)
	if !errors.Is(err, errors.ErrCodeInvalidPreset) {
		t.Fatalf("error = %v, want INVALID_PRESET", err)
	}
	if points != nil {
		t.Error("failed batch must not return partial points")
	}
}

func TestBatchComputeBreaksTies(t *testing.T) {
	eng := NewEngine(nil, nil)
	same := map[string]string{DimEconomyView: "individuals"}
	items := []plane.Item{item("a", same), item("b", same), item("c", same)}

	points, _, err := eng.BatchCompute(items, PresetBase, 42)
	if err != nil {
		t.Fatalf("BatchCompute: %v", err)
	}
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			if points[i] == points[j] {
				t.Errorf("points %d and %d coincide at %v", i, j, points[i])
			}
		}
	}
	// First occurrence keeps its exact raw score.
	if math.Abs(points[0].X-0.2) > eps {
		t.Errorf("first point displaced: %v", points[0])
	}
}

func TestBreakTiesDeterministic(t *testing.T) {
	mk := func() []plane.Point {
		return []plane.Point{{X: 0.5, Y: 0.5}, {X: 0.5, Y: 0.5}, {X: -0.2, Y: 0.1}}
	}

	a, b := mk(), mk()
	BreakTies(a, 7)
	BreakTies(b, 7)
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("same seed diverged at %d: %v vs %v", i, a[i], b[i])
		}
	}

	c := mk()
	BreakTies(c, 8)
	if a[1] == c[1] {
		t.Error("different seeds should displace duplicates differently")
	}
}

func TestBreakTiesStaysInBounds(t *testing.T) {
	points := []plane.Point{{X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}}
	BreakTies(points, 3)
	for i, p := range points {
		if p.X < -1 || p.X > 1 || p.Y < -1 || p.Y > 1 {
			t.Errorf("point %d left unit plane: %v", i, p)
		}
	}
}
