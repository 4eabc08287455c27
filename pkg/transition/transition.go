// Package transition orchestrates preset and normalization changes on top of
// the layout solver.
//
// A Coordinator owns one solver state and replaces its targets atomically
// when a new weighting is requested. Every applied change bumps a
// monotonically increasing generation; completion callbacks are guarded by
// that generation, so a transition that has been superseded mid-settle can
// never fire its callback.
//
// The coordinator is single-owner by design: one goroutine drives Tick and
// Apply. Concurrent readers must go through a committed Snapshot taken by the
// owner (the HTTP layer wraps the coordinator in a mutex for this).
package transition

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/quadmap/quadmap/pkg/normalize"
	"github.com/quadmap/quadmap/pkg/observability"
	"github.com/quadmap/quadmap/pkg/plane"
	"github.com/quadmap/quadmap/pkg/scoring"
	"github.com/quadmap/quadmap/pkg/solver"
)

// Request asks for a new weighting of the current item set.
type Request struct {
	Preset        string
	Normalization normalize.Mode
}

// Transition identifies one applied preset/mode change.
type Transition struct {
	ID            string         `json:"id"`
	Generation    uint64         `json:"generation"`
	Preset        string         `json:"preset"`
	Normalization normalize.Mode `json:"normalization"`
	StartedAt     time.Time      `json:"started_at"`
}

// Snapshot is a committed whole-tick view of the layout. It shares no memory
// with the coordinator, so callers can hold it as long as they like.
type Snapshot struct {
	Generation    uint64          `json:"generation"`
	TransitionID  string          `json:"transition_id"`
	Preset        string          `json:"preset"`
	Normalization normalize.Mode  `json:"normalization"`
	Phase         solver.Phase    `json:"phase"`
	Tick          int             `json:"tick"`
	Energy        float64         `json:"energy"`
	Items         []plane.Item    `json:"items"`
	Segments      []plane.Segment `json:"segments"`
}

// Stable reports whether the layout has finished settling.
func (s Snapshot) Stable() bool { return s.Phase == solver.PhaseStable }

// Positions returns the snapshot's positions keyed by item id.
func (s Snapshot) Positions() map[string]plane.Point {
	out := make(map[string]plane.Point, len(s.Items))
	for _, it := range s.Items {
		out[it.ID] = it.Pos
	}
	return out
}

// ComputeTargets scores and normalizes the item set under the given preset
// and mode, returning one target per item in item order. Configuration
// errors (unknown preset) fail the whole computation; degraded descriptor
// values are returned for the caller to report.
func ComputeTargets(eng *scoring.Engine, items []plane.Item, preset string, mode normalize.Mode, seed uint64) ([]plane.Point, []scoring.Degradation, error) {
	raw, degraded, err := eng.BatchCompute(items, preset, seed)
	if err != nil {
		return nil, nil, err
	}

	xs := make([]float64, len(raw))
	ys := make([]float64, len(raw))
	for i, p := range raw {
		xs[i], ys[i] = p.X, p.Y
	}
	xs = normalize.Apply(xs, mode)
	ys = normalize.Apply(ys, mode)

	out := make([]plane.Point, len(raw))
	for i := range out {
		out[i] = plane.Point{X: xs[i], Y: ys[i]}
	}
	// Normalization can reintroduce coincident coordinates (e.g. zscore of
	// a constant axis), so ties are broken again on the final targets.
	scoring.BreakTies(out, seed)
	return out, degraded, nil
}

// Coordinator drives the solver through successive weighting changes.
type Coordinator struct {
	engine *scoring.Engine
	cfg    solver.Config
	state  solver.State
	links  []plane.Link

	generation uint64
	current    Transition

	// onComplete is the pending completion callback for the current
	// generation. A newer Apply overwrites it, which is exactly the
	// supersede-as-no-op guarantee.
	onComplete    func(Transition)
	completeFired bool

	now func() time.Time
}

// New builds a Coordinator over the given items and links, computing initial
// targets under the requested preset and mode. The items start at their
// targets in the Idle phase; call Apply or Tick to start settling.
func New(eng *scoring.Engine, cfg solver.Config, items []plane.Item, links []plane.Link, preset string, mode normalize.Mode) (*Coordinator, error) {
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	targets, _, err := ComputeTargets(eng, items, preset, mode, cfg.Seed)
	if err != nil {
		return nil, err
	}

	prepared := make([]plane.Item, len(items))
	copy(prepared, items)
	for i := range prepared {
		prepared[i].Target = targets[i]
	}

	c := &Coordinator{
		engine: eng,
		cfg:    cfg,
		state:  solver.NewState(prepared),
		links:  append([]plane.Link(nil), links...),
		now:    time.Now,
	}
	c.current = Transition{
		ID:            uuid.NewString(),
		Generation:    0,
		Preset:        preset,
		Normalization: mode,
		StartedAt:     c.now(),
	}
	return c, nil
}

// Generation returns the current transition generation.
func (c *Coordinator) Generation() uint64 { return c.generation }

// Current returns the transition currently driving the layout.
func (c *Coordinator) Current() Transition { return c.current }

// Config returns the active solver configuration.
func (c *Coordinator) Config() solver.Config { return c.cfg }

// SetCollisionEnabled toggles the collision force. The solver guarantees the
// toggle is lossless: disabling snaps to exact targets and re-enabling
// starts from them.
func (c *Coordinator) SetCollisionEnabled(enabled bool) {
	if c.cfg.CollisionEnabled == enabled {
		return
	}
	c.cfg.CollisionEnabled = enabled
	c.state = solver.Activate(c.state)
}

// Apply recomputes targets under the requested preset and mode and swaps
// them in atomically, starting a new settle from the current positions.
//
// Configuration errors fail fast: the current layout, generation, and any
// pending completion callback are left untouched. On success any in-flight
// transition is superseded; its completion callback will never fire.
func (c *Coordinator) Apply(req Request, onComplete func(Transition)) (Transition, error) {
	targets, _, err := ComputeTargets(c.engine, c.state.Items, req.Preset, req.Normalization, c.cfg.Seed)
	if err != nil {
		return Transition{}, err
	}

	next, err := solver.Retarget(c.state, targets)
	if err != nil {
		return Transition{}, err
	}

	c.state = next
	c.generation++
	c.current = Transition{
		ID:            uuid.NewString(),
		Generation:    c.generation,
		Preset:        req.Preset,
		Normalization: req.Normalization,
		StartedAt:     c.now(),
	}
	c.onComplete = onComplete
	c.completeFired = false
	return c.current, nil
}

// Tick advances the simulation one step and returns the committed snapshot.
// When the settle completes, the pending completion callback fires exactly
// once, and only if its transition is still the current generation.
func (c *Coordinator) Tick() Snapshot {
	if c.state.Phase == solver.PhaseIdle {
		c.state = solver.Activate(c.state)
	}
	c.state = solver.Step(c.state, c.cfg)
	observability.Solver().OnTick(context.Background(), c.generation, c.state.Tick, c.state.Energy)

	if c.state.Phase == solver.PhaseStable && !c.completeFired {
		c.completeFired = true
		observability.Solver().OnStable(context.Background(), c.generation, c.state.Tick)
		if c.onComplete != nil {
			c.onComplete(c.current)
		}
	}
	return c.Snapshot()
}

// Settle ticks until the current transition is stable and returns the final
// snapshot. Bounded by the solver's MaxTicks guard.
func (c *Coordinator) Settle() Snapshot {
	snap := c.Tick()
	for !snap.Stable() {
		snap = c.Tick()
	}
	return snap
}

// Snapshot returns a whole-tick copy of the current layout, including link
// geometry resolved against the current simulated positions. Derived
// geometry is never cached across ticks.
func (c *Coordinator) Snapshot() Snapshot {
	items := make([]plane.Item, len(c.state.Items))
	copy(items, c.state.Items)

	return Snapshot{
		Generation:    c.generation,
		TransitionID:  c.current.ID,
		Preset:        c.current.Preset,
		Normalization: c.current.Normalization,
		Phase:         c.state.Phase,
		Tick:          c.state.Tick,
		Energy:        c.state.Energy,
		Items:         items,
		Segments:      resolveSegments(c.links, items),
	}
}

// Overlaps reports the pairs currently below the safety radius.
func (c *Coordinator) Overlaps() []solver.Overlap {
	return solver.Overlaps(c.state.Items, c.cfg.Radii)
}

// resolveSegments materializes link endpoints from current item positions.
// Links whose endpoints are missing from the item set are skipped.
func resolveSegments(links []plane.Link, items []plane.Item) []plane.Segment {
	if len(links) == 0 {
		return nil
	}
	pos := make(map[string]plane.Point, len(items))
	for _, it := range items {
		pos[it.ID] = it.Pos
	}

	out := make([]plane.Segment, 0, len(links))
	for _, l := range links {
		a, okA := pos[l.From]
		b, okB := pos[l.To]
		if !okA || !okB {
			continue
		}
		out = append(out, plane.Segment{From: l.From, To: l.To, A: a, B: b, Label: l.Label})
	}
	return out
}
