// Package solver implements the physics-based layout pass that resolves
// visual overlaps between items without disturbing items that are already
// well separated.
//
// # Architecture
//
// The solver is a pure simulation: all mutable state lives in a State value
// and Step(state, cfg) returns the next state without touching the input.
// There is no internal scheduler; a caller (the transition coordinator, the
// API ticker, or a test) drives one tick at a time.
//
// Each tick folds over a declarative force list rebuilt from the config:
//
//   - positioning: an elastic pull of every item toward its target,
//     independent per item, always active
//   - collision: pairwise separation for items closer than the sum of their
//     safety radii plus a margin; zero effect at or above that threshold
//   - boundary: soft repulsion near the plot edges, backed by a hard clamp
//     so simulated positions never leave [-1,1]²
//
// Collision selectivity is the central correctness requirement: a pair whose
// distance is at or above the safety threshold receives exactly zero
// collision influence, so well-separated items settle at exactly their
// target coordinates.
package solver

import (
	"math"
	"math/rand/v2"

	"github.com/quadmap/quadmap/pkg/errors"
	"github.com/quadmap/quadmap/pkg/plane"
)

// Phase is the solver lifecycle state.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseSettling Phase = "settling"
	PhaseStable   Phase = "stable"
)

// CollisionPolicy selects how collision forces are scoped.
type CollisionPolicy string

const (
	// CollisionGlobal applies collision forces to every pair that is
	// currently overlapping, regardless of where their targets are.
	CollisionGlobal CollisionPolicy = "global"

	// CollisionPerPair restricts collision forces to pairs whose targets
	// are themselves closer than the safety threshold. Pairs that merely
	// pass near each other mid-flight are left alone.
	CollisionPerPair CollisionPolicy = "per-pair"
)

// ParseCollisionPolicy converts a string to a CollisionPolicy.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch CollisionPolicy(s) {
	case CollisionGlobal:
		return CollisionGlobal, nil
	case CollisionPerPair:
		return CollisionPerPair, nil
	}
	return "", errors.New(errors.ErrCodeInvalidConfig, "unknown collision policy: %q", s)
}

// Tuning constants. Earlier tuning rounds disagreed on strength and
// iteration count; the values that survived are the defaults and the
// alternatives stay available as named constants so a config can reproduce
// an older feel exactly.
const (
	DefaultStiffness         = 0.15
	DefaultDamping           = 0.45
	DefaultCollisionStrength = 0.9
	SoftCollisionStrength    = 0.35 // gentler separation, slower convergence
	DefaultCollisionIters    = 4
	DenseCollisionIters      = 8 // for crowded layouts
	DefaultCollisionMargin   = 0.05
	DefaultBoundaryStrength  = 0.5
	DefaultBoundaryBand      = 0.08
	DefaultMaxForce          = 0.25
	DefaultMaxTicks          = 600
	DefaultEnergyEpsilon     = 1e-10
)

// Config holds every tuning parameter of the simulation. The zero value is
// not usable; start from DefaultConfig.
type Config struct {
	// Stiffness scales the per-tick elastic pull toward the target.
	Stiffness float64
	// Damping is the fraction of velocity carried into the next tick.
	Damping float64

	// CollisionEnabled switches the collision force on or off globally.
	// With collision off the positioning pass snaps every unpinned item to
	// exactly its target, so toggling is lossless and reversible.
	CollisionEnabled bool
	// CollisionPolicy selects global or per-pair collision scoping.
	CollisionPolicy CollisionPolicy
	// CollisionStrength is the fraction of the remaining overlap corrected
	// per sub-iteration. Several sub-iterations per tick drive the residual
	// overlap near zero without ever pushing past the threshold.
	CollisionStrength float64
	// CollisionIterations is the number of pairwise correction passes per
	// tick. More passes converge tightly packed clusters faster.
	CollisionIterations int
	// CollisionMargin widens the safety threshold so settled pairs come to
	// rest a little beyond the bare safety radius.
	CollisionMargin float64

	// BoundaryStrength and BoundaryBand shape the soft edge repulsion. The
	// hard clamp applies regardless.
	BoundaryStrength float64
	BoundaryBand     float64

	// MaxForce caps the accumulated per-item force magnitude per tick, so
	// oversized items cannot generate runaway acceleration.
	MaxForce float64

	// MaxTicks bounds a settle; EnergyEpsilon is the kinetic-energy level
	// below which the system is considered stable.
	MaxTicks      int
	EnergyEpsilon float64

	// Radii maps size categories to safety radii.
	Radii plane.RadiusTable

	// Seed drives the deterministic separation directions used for
	// coincident items.
	Seed uint64
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		Stiffness:           DefaultStiffness,
		Damping:             DefaultDamping,
		CollisionEnabled:    true,
		CollisionPolicy:     CollisionGlobal,
		CollisionStrength:   DefaultCollisionStrength,
		CollisionIterations: DefaultCollisionIters,
		CollisionMargin:     DefaultCollisionMargin,
		BoundaryStrength:    DefaultBoundaryStrength,
		BoundaryBand:        DefaultBoundaryBand,
		MaxForce:            DefaultMaxForce,
		MaxTicks:            DefaultMaxTicks,
		EnergyEpsilon:       DefaultEnergyEpsilon,
		Radii:               plane.DefaultRadii,
		Seed:                1,
	}
}

// ValidateAndSetDefaults fills zero-valued fields with defaults and rejects
// out-of-range values. Safe to call multiple times.
func (c *Config) ValidateAndSetDefaults() error {
	def := DefaultConfig()
	if c.Stiffness == 0 {
		c.Stiffness = def.Stiffness
	}
	if c.Damping == 0 {
		c.Damping = def.Damping
	}
	if c.CollisionPolicy == "" {
		c.CollisionPolicy = def.CollisionPolicy
	}
	if c.CollisionStrength == 0 {
		c.CollisionStrength = def.CollisionStrength
	}
	if c.CollisionIterations == 0 {
		c.CollisionIterations = def.CollisionIterations
	}
	if c.CollisionMargin == 0 {
		c.CollisionMargin = def.CollisionMargin
	}
	if c.BoundaryStrength == 0 {
		c.BoundaryStrength = def.BoundaryStrength
	}
	if c.BoundaryBand == 0 {
		c.BoundaryBand = def.BoundaryBand
	}
	if c.MaxForce == 0 {
		c.MaxForce = def.MaxForce
	}
	if c.MaxTicks == 0 {
		c.MaxTicks = def.MaxTicks
	}
	if c.EnergyEpsilon == 0 {
		c.EnergyEpsilon = def.EnergyEpsilon
	}
	if c.Radii == nil {
		c.Radii = def.Radii
	}
	if c.Seed == 0 {
		c.Seed = def.Seed
	}

	if c.Stiffness < 0 || c.Stiffness > 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "stiffness must be in (0,1], got %v", c.Stiffness)
	}
	if c.Damping < 0 || c.Damping >= 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "damping must be in [0,1), got %v", c.Damping)
	}
	if c.CollisionStrength < 0 || c.CollisionStrength > 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "collision strength must be in (0,1], got %v", c.CollisionStrength)
	}
	if c.CollisionIterations < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "collision iterations must be >= 1, got %d", c.CollisionIterations)
	}
	if _, err := ParseCollisionPolicy(string(c.CollisionPolicy)); err != nil {
		return err
	}
	return nil
}

// Threshold returns the distance below which a pair of the given size
// categories is subject to collision forces.
func (c Config) Threshold(a, b plane.SizeCategory) float64 {
	return c.Radii.Radius(a) + c.Radii.Radius(b) + c.CollisionMargin
}

// SafetyRadius returns the bare overlap threshold for a pair, without the
// separation margin. Pairs closer than this are reported as overlapping.
func (c Config) SafetyRadius(a, b plane.SizeCategory) float64 {
	return c.Radii.Radius(a) + c.Radii.Radius(b)
}

// State is one committed, whole-tick snapshot of the simulation. It is a
// value: Step never mutates its input, so callers can hold on to any state
// they have seen.
type State struct {
	Items  []plane.Item
	Phase  Phase
	Tick   int
	Energy float64
}

// NewState builds an Idle state with every item placed at its target.
func NewState(items []plane.Item) State {
	out := make([]plane.Item, len(items))
	copy(out, items)
	for i := range out {
		if !out[i].Pinned {
			out[i].Pos = out[i].Target
		}
		out[i].Vel = plane.Point{}
	}
	return State{Items: out, Phase: PhaseIdle}
}

// Activate moves an Idle or Stable state into Settling without touching
// positions. A no-op if the state is already Settling.
func Activate(s State) State {
	if s.Phase == PhaseSettling {
		return s
	}
	s = s.clone()
	s.Phase = PhaseSettling
	s.Tick = 0
	return s
}

// Retarget installs new targets, zeroes velocities, and restarts Settling.
// This is the atomic swap primitive the transition coordinator builds on:
// targets and velocity reset land together, never partially.
//
// targets must be index-aligned with s.Items.
func Retarget(s State, targets []plane.Point) (State, error) {
	if len(targets) != len(s.Items) {
		return State{}, errors.New(errors.ErrCodeInvalidInput,
			"target count %d does not match item count %d", len(targets), len(s.Items))
	}
	s = s.clone()
	for i := range s.Items {
		s.Items[i].Target = plane.Sanitize(targets[i], plane.Point{})
		s.Items[i].Vel = plane.Point{}
	}
	s.Phase = PhaseSettling
	s.Tick = 0
	s.Energy = 0
	return s, nil
}

func (s State) clone() State {
	items := make([]plane.Item, len(s.Items))
	copy(items, s.Items)
	s.Items = items
	return s
}

// Positions returns the current simulated positions keyed by item id.
func (s State) Positions() map[string]plane.Point {
	out := make(map[string]plane.Point, len(s.Items))
	for _, it := range s.Items {
		out[it.ID] = it.Pos
	}
	return out
}

// A force contributes to one of two stages of a tick: accumulation (summed
// into the per-item force vector before integration) or resolution
// (positional correction after integration).
type force struct {
	name       string
	accumulate func(items []plane.Item, cfg Config, out []plane.Point)
	resolve    func(items []plane.Item, cfg Config)
}

// activeForces builds the declarative force list for the current config.
// The list is rebuilt on every tick, so a config change (collision toggled,
// policy switched) takes effect on the next Step with no registry to mutate.
func activeForces(cfg Config) []force {
	forces := []force{
		{name: "positioning", accumulate: accumulatePositioning},
		{name: "boundary", accumulate: accumulateBoundary},
	}
	if cfg.CollisionEnabled {
		forces = append(forces, force{name: "collision", resolve: resolveCollisions})
	}
	return forces
}

func accumulatePositioning(items []plane.Item, cfg Config, out []plane.Point) {
	for i, it := range items {
		out[i] = out[i].Add(it.Target.Sub(it.Pos).Scale(cfg.Stiffness))
	}
}

// accumulateBoundary pushes items away from the plot edges once they enter
// the boundary band. The band never reaches past an item's own target, so
// targets on or near the edge (percentile and minmax place axis extremes at
// exactly ±1) stay reachable. The hard clamp in Step is the real guarantee;
// this just keeps the approach smooth.
func accumulateBoundary(items []plane.Item, cfg Config, out []plane.Point) {
	for i, it := range items {
		out[i].X += edgePush(it.Pos.X, it.Target.X, cfg)
		out[i].Y += edgePush(it.Pos.Y, it.Target.Y, cfg)
	}
}

// edgePush returns the inward force for one axis. The effective band is
// capped at the target's own edge distance: an item may sit as close to
// the edge as its target does without being pushed.
func edgePush(pos, target float64, cfg Config) float64 {
	if d, band := pos-(-1), min(cfg.BoundaryBand, target-(-1)); d < band {
		return cfg.BoundaryStrength * (band - d)
	}
	if d, band := 1-pos, min(cfg.BoundaryBand, 1-target); d < band {
		return -cfg.BoundaryStrength * (band - d)
	}
	return 0
}

// resolveCollisions runs the pairwise separation passes. Only pairs below
// the safety threshold move; everything else is untouched. Corrections are
// positional and carry no momentum, so they cannot pump energy into the
// system.
func resolveCollisions(items []plane.Item, cfg Config) {
	for iter := 0; iter < cfg.CollisionIterations; iter++ {
		for i := range items {
			for j := i + 1; j < len(items); j++ {
				if cfg.CollisionPolicy == CollisionPerPair {
					if items[i].Target.Dist(items[j].Target) >= cfg.Threshold(items[i].Size, items[j].Size) {
						continue
					}
				}
				separatePair(items, i, j, cfg)
			}
		}
	}
}

func separatePair(items []plane.Item, i, j int, cfg Config) {
	threshold := cfg.Threshold(items[i].Size, items[j].Size)
	delta := items[i].Pos.Sub(items[j].Pos)
	dist := delta.Norm()
	if dist >= threshold {
		return
	}

	var dir plane.Point
	if dist > 1e-9 {
		dir = delta.Scale(1 / dist)
	} else {
		// Coincident positions: the repulsion direction is undefined, so
		// take a deterministic one derived from the pair and the seed.
		dir = pairDirection(cfg.Seed, i, j)
	}

	push := (threshold - dist) * cfg.CollisionStrength
	switch {
	case items[i].Pinned && items[j].Pinned:
		return
	case items[i].Pinned:
		items[j].Pos = items[j].Pos.Sub(dir.Scale(push))
	case items[j].Pinned:
		items[i].Pos = items[i].Pos.Add(dir.Scale(push))
	default:
		items[i].Pos = items[i].Pos.Add(dir.Scale(push / 2))
		items[j].Pos = items[j].Pos.Sub(dir.Scale(push / 2))
	}
}

// pairDirection returns a stable unit vector for a pair of item indices.
// The same seed and pair always yield the same direction.
func pairDirection(seed uint64, i, j int) plane.Point {
	rng := rand.New(rand.NewPCG(seed, uint64(i)<<32|uint64(j)|1))
	angle := rng.Float64() * 2 * math.Pi
	return plane.Point{X: math.Cos(angle), Y: math.Sin(angle)}
}

// Step advances the simulation one tick and returns the next state. Pure:
// the input state is never modified.
//
// With collision disabled the tick degenerates to an exact snap of every
// unpinned item to its target, which makes repeated collision on/off cycles
// lossless: re-enabling always starts from the target positions.
func Step(s State, cfg Config) State {
	next := s.clone()
	if next.Phase != PhaseSettling {
		return next
	}
	next.Tick++

	if !cfg.CollisionEnabled {
		for i := range next.Items {
			if next.Items[i].Pinned {
				continue
			}
			next.Items[i].Pos = plane.Sanitize(next.Items[i].Target, plane.Point{})
			next.Items[i].Vel = plane.Point{}
		}
		next.Energy = 0
		next.Phase = PhaseStable
		return next
	}

	before := make([]plane.Point, len(next.Items))
	for i, it := range next.Items {
		before[i] = it.Pos
	}

	forces := activeForces(cfg)

	// Stage 1: accumulate per-item forces and integrate.
	acc := make([]plane.Point, len(next.Items))
	for _, f := range forces {
		if f.accumulate != nil {
			f.accumulate(next.Items, cfg, acc)
		}
	}
	for i := range next.Items {
		if next.Items[i].Pinned {
			continue
		}
		f := capForce(acc[i], cfg.MaxForce)
		next.Items[i].Vel = next.Items[i].Vel.Scale(cfg.Damping).Add(f)
		next.Items[i].Pos = next.Items[i].Pos.Add(next.Items[i].Vel)
	}

	// Stage 2: positional resolution (collision passes).
	for _, f := range forces {
		if f.resolve != nil {
			f.resolve(next.Items, cfg)
		}
	}

	// Containment and numerical safety: nothing leaves the unit plane and
	// nothing non-finite survives a tick.
	for i := range next.Items {
		if next.Items[i].Pinned {
			continue
		}
		p := plane.Sanitize(next.Items[i].Pos, next.Items[i].Target)
		next.Items[i].Pos = plane.Unit.Clamp(p)
	}

	// Kinetic energy is measured as net per-tick displacement, so a pair
	// resting in spring/collision equilibrium reads as zero movement.
	var energy float64
	for i, it := range next.Items {
		d := it.Pos.Sub(before[i])
		energy += d.X*d.X + d.Y*d.Y
	}
	next.Energy = energy

	if energy < cfg.EnergyEpsilon || next.Tick >= cfg.MaxTicks {
		next.Phase = PhaseStable
	}
	return next
}

func capForce(f plane.Point, max float64) plane.Point {
	n := f.Norm()
	if n <= max || n == 0 {
		return f
	}
	return f.Scale(max / n)
}

// Settle runs Step until the state leaves Settling. The MaxTicks guard in
// Step bounds the loop.
func Settle(s State, cfg Config) State {
	s = Activate(s)
	for s.Phase == PhaseSettling {
		s = Step(s, cfg)
	}
	return s
}
