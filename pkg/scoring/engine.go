package scoring

import (
	"fmt"
	"math/rand/v2"

	"github.com/quadmap/quadmap/pkg/plane"
)

// tieEpsilon is the displacement applied to items whose raw scores coincide
// exactly. It only has to make coordinates distinct; the solver's collision
// pass does the real separation work afterwards.
const tieEpsilon = 1e-4

// Engine computes target coordinates from item descriptors.
//
// The zero value is not usable; construct with NewEngine. An Engine is
// immutable after construction and safe for concurrent use.
type Engine struct {
	table   Table
	presets map[string]WeightPreset
}

// NewEngine builds an Engine over the given table and preset set. Nil
// arguments select DefaultTable and DefaultPresets.
func NewEngine(table Table, presets map[string]WeightPreset) *Engine {
	if table == nil {
		table = DefaultTable
	}
	if presets == nil {
		presets = DefaultPresets
	}
	return &Engine{table: table, presets: presets}
}

// Presets returns the engine's preset set.
func (e *Engine) Presets() map[string]WeightPreset { return e.presets }

// Table returns the engine's score table.
func (e *Engine) Table() Table { return e.table }

// Degradation records descriptor values that contributed nothing to an
// item's position, either because the dimension is unknown to the table or
// the value is not enumerated for it.
type Degradation struct {
	ItemID    string `json:"item_id"`
	Dimension string `json:"dimension"`
	Value     string `json:"value"`
}

func (d Degradation) String() string {
	return fmt.Sprintf("%s: %s=%q not in score table", d.ItemID, d.Dimension, d.Value)
}

// ComputePosition maps one item's descriptors to a raw coordinate under the
// named preset. Unknown descriptor values contribute zero and are reported in
// the returned degradations; they never fail the computation. The result is
// always clipped to the unit plane and finite.
func (e *Engine) ComputePosition(item plane.Item, presetName string) (plane.Point, []Degradation, error) {
	preset, err := LookupPreset(e.presets, presetName)
	if err != nil {
		return plane.Point{}, nil, err
	}

	var p plane.Point
	var degraded []Degradation
	for _, dim := range Dimensions {
		value, ok := item.Descriptors[dim]
		if !ok {
			// Missing dimensions are a dataset-validation concern,
			// not a scoring one. Treat as zero contribution here.
			continue
		}
		score, known := e.table.Lookup(dim, value)
		if !known {
			degraded = append(degraded, Degradation{ItemID: item.ID, Dimension: dim, Value: value})
			continue
		}
		p.X += preset.X[dim] * score.X
		p.Y += preset.Y[dim] * score.Y
	}

	return plane.Sanitize(clip(p), plane.Point{}), degraded, nil
}

// BatchCompute scores every item under the named preset. The i-th point
// belongs to the i-th item. Coincident raw scores are separated by a
// deterministic jitter derived from seed so the solver never sees two items
// at the exact same target.
//
// An unknown preset fails the whole batch; degraded descriptor values do not.
func (e *Engine) BatchCompute(items []plane.Item, presetName string, seed uint64) ([]plane.Point, []Degradation, error) {
	if _, err := LookupPreset(e.presets, presetName); err != nil {
		return nil, nil, err
	}

	points := make([]plane.Point, len(items))
	var degraded []Degradation
	for i, item := range items {
		p, d, err := e.ComputePosition(item, presetName)
		if err != nil {
			return nil, nil, err
		}
		points[i] = p
		degraded = append(degraded, d...)
	}

	BreakTies(points, seed)
	return points, degraded, nil
}

// BreakTies displaces later occurrences of coincident points by a tiny
// deterministic offset, in place. The same seed always produces the same
// displacements, so layouts stay reproducible across runs.
func BreakTies(points []plane.Point, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))

	seen := make(map[plane.Point]struct{}, len(points))
	for i, p := range points {
		for {
			if _, dup := seen[p]; !dup {
				break
			}
			p.X = plane.ClipUnit(p.X + (rng.Float64()*2-1)*tieEpsilon)
			p.Y = plane.ClipUnit(p.Y + (rng.Float64()*2-1)*tieEpsilon)
		}
		seen[p] = struct{}{}
		points[i] = p
	}
}
