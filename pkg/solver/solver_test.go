package solver

import (
	"fmt"
	"math"
	"testing"

	"github.com/quadmap/quadmap/pkg/errors"
	"github.com/quadmap/quadmap/pkg/normalize"
	"github.com/quadmap/quadmap/pkg/plane"
	"github.com/quadmap/quadmap/pkg/scoring"
)

const settleEps = 1e-3

func mkItem(id string, target plane.Point) plane.Item {
	return plane.Item{ID: id, Name: id, Size: plane.SizeMedium, Target: target, Pos: target}
}

func TestConfigValidateAndSetDefaults(t *testing.T) {
	t.Run("zero config gets defaults", func(t *testing.T) {
		var cfg Config
		if err := cfg.ValidateAndSetDefaults(); err != nil {
			t.Fatalf("ValidateAndSetDefaults: %v", err)
		}
		if cfg.Stiffness != DefaultStiffness || cfg.MaxTicks != DefaultMaxTicks {
			t.Errorf("defaults not applied: %+v", cfg)
		}
		if cfg.Radii == nil {
			t.Error("radii table not defaulted")
		}
		// Idempotent.
		before := cfg
		if err := cfg.ValidateAndSetDefaults(); err != nil {
			t.Fatalf("second call: %v", err)
		}
		if cfg.Stiffness != before.Stiffness || cfg.CollisionIterations != before.CollisionIterations {
			t.Error("second call changed values")
		}
	})

	t.Run("rejects bad values", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*Config)
		}{
			{"stiffness too high", func(c *Config) { c.Stiffness = 2 }},
			{"negative damping", func(c *Config) { c.Damping = -0.5 }},
			{"unknown policy", func(c *Config) { c.CollisionPolicy = "adaptive" }},
			{"negative iterations", func(c *Config) { c.CollisionIterations = -3 }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				cfg := DefaultConfig()
				tt.mutate(&cfg)
				if err := cfg.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
					t.Errorf("error = %v, want INVALID_CONFIG", err)
				}
			})
		}
	})
}

func TestStepIsPure(t *testing.T) {
	cfg := DefaultConfig()
	s := Activate(NewState([]plane.Item{
		mkItem("a", plane.Point{X: 0.01}),
		mkItem("b", plane.Point{X: -0.01}),
	}))

	posBefore := s.Items[0].Pos
	_ = Step(s, cfg)
	if s.Items[0].Pos != posBefore || s.Tick != 0 {
		t.Error("Step mutated its input state")
	}
}

func TestSeparatedPairSettlesExactlyAtTargets(t *testing.T) {
	// Edge and corner targets are the common case, not a corner case:
	// percentile and minmax place the extreme item of every axis at
	// exactly ±1, so the boundary band must not hold items off their
	// targets there.
	tests := []struct {
		name string
		a, b plane.Point
	}{
		{"interior targets", plane.Point{X: -0.5}, plane.Point{X: 0.5}},
		{"corner target", plane.Point{X: -1, Y: -1}, plane.Point{X: 0.5, Y: 0.5}},
		{"axis extremes", plane.Point{X: -1}, plane.Point{X: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			a := mkItem("a", tt.a)
			b := mkItem("b", tt.b)
			if a.Target.Dist(b.Target) < cfg.SafetyRadius(a.Size, b.Size) {
				t.Fatal("test setup: targets must be separated")
			}

			s := Settle(NewState([]plane.Item{a, b}), cfg)

			if s.Phase != PhaseStable {
				t.Fatalf("phase = %v, want stable", s.Phase)
			}
			for i, want := range []plane.Point{a.Target, b.Target} {
				if d := s.Items[i].Pos.Dist(want); d > settleEps {
					t.Errorf("item %d ended %v away from its target", i, d)
				}
			}
			targetDist := a.Target.Dist(b.Target)
			gotDist := s.Items[0].Pos.Dist(s.Items[1].Pos)
			if math.Abs(gotDist-targetDist) > settleEps {
				t.Errorf("pair distance %v, want target distance %v", gotDist, targetDist)
			}
		})
	}
}

func TestOverlappingPairSeparates(t *testing.T) {
	cfg := DefaultConfig()
	a := mkItem("a", plane.Point{X: -0.02})
	b := mkItem("b", plane.Point{X: 0.02})
	safety := cfg.SafetyRadius(a.Size, b.Size)
	if a.Target.Dist(b.Target) >= safety {
		t.Fatal("test setup: targets must overlap")
	}

	s := Settle(NewState([]plane.Item{a, b}), cfg)

	dist := s.Items[0].Pos.Dist(s.Items[1].Pos)
	if dist < safety {
		t.Errorf("settled distance %v still below safety radius %v", dist, safety)
	}
	// Displacement is bounded: items separate, they do not fly apart.
	for i, target := range []plane.Point{a.Target, b.Target} {
		if d := s.Items[i].Pos.Dist(target); d > 2*safety {
			t.Errorf("item %d displaced %v from target, more than twice the safety radius", i, d)
		}
	}
}

func TestCollisionToggleIsLossless(t *testing.T) {
	on := DefaultConfig()
	off := on
	off.CollisionEnabled = false

	items := []plane.Item{
		mkItem("a", plane.Point{X: -0.02, Y: 0.01}),
		mkItem("b", plane.Point{X: 0.02, Y: -0.01}),
		mkItem("c", plane.Point{X: 0.7, Y: 0.7}),
	}

	// Settle with collision on: the overlapping pair moves off target.
	s := Settle(NewState(items), on)

	// Off: a single tick snaps everything to exactly its target.
	s = Step(Activate(s), off)
	for i, it := range s.Items {
		if it.Pos != items[i].Target {
			t.Fatalf("collision off: item %d at %v, want exact target %v", i, it.Pos, items[i].Target)
		}
	}
	if s.Phase != PhaseStable {
		t.Fatalf("collision off must settle immediately, phase = %v", s.Phase)
	}

	// On again, then off: still the exact targets. No drift across cycles.
	s = Settle(Activate(s), on)
	s = Step(Activate(s), off)
	for i, it := range s.Items {
		if it.Pos != items[i].Target {
			t.Errorf("after on/off cycle: item %d at %v, want exact target %v", i, it.Pos, items[i].Target)
		}
	}
}

func TestCoincidentTargetsSeparateDeterministically(t *testing.T) {
	cfg := DefaultConfig()
	items := []plane.Item{
		mkItem("a", plane.Point{}),
		mkItem("b", plane.Point{}),
	}
	safety := cfg.SafetyRadius(plane.SizeMedium, plane.SizeMedium)

	s1 := Settle(NewState(items), cfg)
	dist := s1.Items[0].Pos.Dist(s1.Items[1].Pos)
	if dist <= 0 {
		t.Fatal("coincident items did not separate")
	}
	if dist > 4*safety {
		t.Errorf("separation %v exceeds a small multiple of the safety radius %v", dist, safety)
	}

	// The same seed reproduces the exact same layout.
	s2 := Settle(NewState(items), cfg)
	for i := range s1.Items {
		if s1.Items[i].Pos != s2.Items[i].Pos {
			t.Errorf("run diverged at item %d: %v vs %v", i, s1.Items[i].Pos, s2.Items[i].Pos)
		}
	}

	// A different seed separates along a different direction.
	cfg2 := cfg
	cfg2.Seed = 99
	s3 := Settle(NewState(items), cfg2)
	if s3.Items[0].Pos == s1.Items[0].Pos {
		t.Error("different seeds produced identical separation")
	}
}

func TestCornerTargetStaysContained(t *testing.T) {
	cfg := DefaultConfig()
	it := mkItem("corner", plane.Point{X: -1, Y: -1})
	it.Pos = plane.Point{X: 0.8, Y: 0.8}

	s := Activate(NewState([]plane.Item{it}))
	s.Items[0].Pos = plane.Point{X: 0.8, Y: 0.8}

	for s.Phase == PhaseSettling {
		s = Step(s, cfg)
		if !plane.Unit.Contains(s.Items[0].Pos) {
			t.Fatalf("tick %d: position %v left the unit plane", s.Tick, s.Items[0].Pos)
		}
	}

	// The corner itself is reachable: the settle ends on the target, not
	// held off it by the edge repulsion.
	if d := s.Items[0].Pos.Dist(it.Target); d > settleEps {
		t.Errorf("settled %v away from the corner target", d)
	}
}

func TestMaxTicksBoundsSettle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTicks = 50
	cfg.EnergyEpsilon = 1e-300 // effectively unreachable

	s := Settle(NewState([]plane.Item{
		mkItem("a", plane.Point{}),
		mkItem("b", plane.Point{}),
	}), cfg)

	if s.Phase != PhaseStable {
		t.Fatalf("phase = %v, want stable", s.Phase)
	}
	if s.Tick > cfg.MaxTicks {
		t.Errorf("ran %d ticks, bound is %d", s.Tick, cfg.MaxTicks)
	}
}

func TestRetarget(t *testing.T) {
	s := Settle(NewState([]plane.Item{
		mkItem("a", plane.Point{X: -0.5}),
		mkItem("b", plane.Point{X: 0.5}),
	}), DefaultConfig())

	t.Run("swaps targets and restarts settling", func(t *testing.T) {
		next, err := Retarget(s, []plane.Point{{X: 0.3}, {X: -0.3}})
		if err != nil {
			t.Fatalf("Retarget: %v", err)
		}
		if next.Phase != PhaseSettling || next.Tick != 0 {
			t.Errorf("phase=%v tick=%d, want settling from tick 0", next.Phase, next.Tick)
		}
		if next.Items[0].Target != (plane.Point{X: 0.3}) {
			t.Errorf("target not swapped: %v", next.Items[0].Target)
		}
		if next.Items[0].Vel != (plane.Point{}) {
			t.Error("velocity not reset")
		}
		// Positions start from the prior settled layout.
		if next.Items[0].Pos != s.Items[0].Pos {
			t.Error("retarget must not move positions")
		}
	})

	t.Run("rejects mismatched target count", func(t *testing.T) {
		if _, err := Retarget(s, []plane.Point{{}}); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("error = %v, want INVALID_INPUT", err)
		}
	})

	t.Run("sanitizes non-finite targets", func(t *testing.T) {
		next, err := Retarget(s, []plane.Point{{X: math.NaN()}, {X: math.Inf(1)}})
		if err != nil {
			t.Fatalf("Retarget: %v", err)
		}
		for i, it := range next.Items {
			if !it.Target.IsFinite() {
				t.Errorf("item %d target still non-finite: %v", i, it.Target)
			}
		}
	})
}

func TestPerPairPolicyIgnoresTransientProximity(t *testing.T) {
	// Both items start coincident but their targets are far apart. Under
	// per-pair scoping the collision force never applies to them; under
	// global scoping it does, at least transiently.
	items := []plane.Item{
		mkItem("a", plane.Point{X: -0.5}),
		mkItem("b", plane.Point{X: 0.5}),
	}
	items[0].Pos = plane.Point{}
	items[1].Pos = plane.Point{}

	mk := func(policy CollisionPolicy) State {
		cfg := DefaultConfig()
		cfg.CollisionPolicy = policy
		s := Activate(NewState(items))
		s.Items[0].Pos = plane.Point{}
		s.Items[1].Pos = plane.Point{}
		return Step(s, cfg)
	}

	perPair := mk(CollisionPerPair)
	global := mk(CollisionGlobal)

	ppDist := perPair.Items[0].Pos.Dist(perPair.Items[1].Pos)
	glDist := global.Items[0].Pos.Dist(global.Items[1].Pos)
	if glDist <= ppDist {
		t.Errorf("global first-tick distance %v should exceed per-pair %v", glDist, ppDist)
	}

	// Both policies still converge to the exact targets.
	cfg := DefaultConfig()
	cfg.CollisionPolicy = CollisionPerPair
	s := Activate(NewState(items))
	s.Items[0].Pos = plane.Point{}
	s.Items[1].Pos = plane.Point{}
	s = Settle(s, cfg)
	for i, it := range s.Items {
		if d := it.Pos.Dist(items[i].Target); d > settleEps {
			t.Errorf("per-pair item %d ended %v from target", i, d)
		}
	}
}

func TestPinnedItemsNeverMove(t *testing.T) {
	cfg := DefaultConfig()
	pinned := mkItem("pinned", plane.Point{X: 0.01})
	pinned.Pinned = true
	pinned.Pos = plane.Point{X: 0.01}
	free := mkItem("free", plane.Point{X: -0.01})

	s := Settle(NewState([]plane.Item{pinned, free}), cfg)

	if s.Items[0].Pos != (plane.Point{X: 0.01}) {
		t.Errorf("pinned item moved to %v", s.Items[0].Pos)
	}
	safety := cfg.SafetyRadius(pinned.Size, free.Size)
	if d := s.Items[0].Pos.Dist(s.Items[1].Pos); d < safety {
		t.Errorf("free item did not yield: distance %v < safety %v", d, safety)
	}
}

func TestOverlapsReport(t *testing.T) {
	shared := map[string]string{
		scoring.DimEconomyView:  "structures",
		scoring.DimPolicyStance: "state_intervention",
	}
	items := []plane.Item{
		{ID: "a", Size: plane.SizeMedium, Pos: plane.Point{}, Descriptors: shared},
		{ID: "b", Size: plane.SizeMedium, Pos: plane.Point{X: 0.05}, Descriptors: shared},
		{ID: "c", Size: plane.SizeMedium, Pos: plane.Point{X: 0.7}, Descriptors: map[string]string{
			scoring.DimEconomyView: "individuals",
		}},
	}

	got := Overlaps(items, nil)
	if len(got) != 1 {
		t.Fatalf("overlaps = %d, want 1 (%+v)", len(got), got)
	}
	o := got[0]
	if o.A != "a" || o.B != "b" {
		t.Errorf("pair = %s/%s, want a/b", o.A, o.B)
	}
	if math.Abs(o.Distance-0.05) > 1e-12 {
		t.Errorf("distance = %v, want 0.05", o.Distance)
	}
	if o.SharedDescriptors != 2 {
		t.Errorf("shared descriptors = %d, want 2", o.SharedDescriptors)
	}
}

// Twelve items under the standard presets with percentile normalization:
// switching between any two presets and settling must leave zero pairs below
// the safety threshold.
func TestPresetSwitchingLeavesNoOverlaps(t *testing.T) {
	items := twelveItems()
	eng := scoring.NewEngine(nil, nil)
	presets := []string{
		scoring.PresetBase,
		scoring.PresetStateEmphasis,
		scoring.PresetEquityEmphasis,
		scoring.PresetMarketEmphasis,
	}
	cfg := DefaultConfig()

	targetsFor := func(preset string) []plane.Point {
		raw, _, err := eng.BatchCompute(items, preset, cfg.Seed)
		if err != nil {
			t.Fatalf("BatchCompute(%s): %v", preset, err)
		}
		xs := make([]float64, len(raw))
		ys := make([]float64, len(raw))
		for i, p := range raw {
			xs[i], ys[i] = p.X, p.Y
		}
		xs = normalize.Apply(xs, normalize.ModePercentile)
		ys = normalize.Apply(ys, normalize.ModePercentile)
		out := make([]plane.Point, len(raw))
		for i := range out {
			out[i] = plane.Point{X: xs[i], Y: ys[i]}
		}
		scoring.BreakTies(out, cfg.Seed)
		return out
	}

	for _, from := range presets {
		for _, to := range presets {
			if from == to {
				continue
			}
			t.Run(from+"→"+to, func(t *testing.T) {
				start := make([]plane.Item, len(items))
				copy(start, items)
				for i, p := range targetsFor(from) {
					start[i].Target = p
				}
				s := Settle(NewState(start), cfg)

				s, err := Retarget(s, targetsFor(to))
				if err != nil {
					t.Fatalf("Retarget: %v", err)
				}
				s = Settle(s, cfg)

				if s.Phase != PhaseStable {
					t.Fatalf("phase = %v, want stable", s.Phase)
				}
				if got := Overlaps(s.Items, cfg.Radii); len(got) != 0 {
					t.Errorf("%d pairs still below safety threshold: %+v", len(got), got)
				}
			})
		}
	}
}

func twelveItems() []plane.Item {
	econ := []string{"social_classes", "individuals", "structures"}
	human := []string{"rational_egoist", "class_conditioned", "bounded_rationality"}
	world := []string{"certain_predictable", "complex_uncertain"}
	domain := []string{"production", "trade", "consumption", "distribution"}
	driver := []string{"capital_accumulation", "individual_choice", "class_struggle", "institutions"}
	policy := []string{"free_market", "state_intervention", "redistribution"}

	items := make([]plane.Item, 12)
	for i := range items {
		items[i] = plane.Item{
			ID:   fmt.Sprintf("school-%02d", i),
			Name: fmt.Sprintf("School %d", i),
			Size: plane.SizeMedium,
			Descriptors: map[string]string{
				scoring.DimEconomyView:  econ[i%len(econ)],
				scoring.DimHumanView:    human[(i/2)%len(human)],
				scoring.DimWorldView:    world[i%len(world)],
				scoring.DimDomainFocus:  domain[i%len(domain)],
				scoring.DimChangeDriver: driver[(i/3)%len(driver)],
				scoring.DimPolicyStance: policy[(i/4)%len(policy)],
			},
		}
	}
	return items
}
