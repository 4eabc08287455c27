// Package scoring turns qualitative item descriptors into target coordinates
// on the unit plane.
//
// Each item carries six descriptors. A score table maps every enumerated
// descriptor value to a contribution on the X axis (state control, negative =
// strong state) and the Y axis (equity vs growth, positive = equity). A
// weight preset scales the per-dimension contributions independently per
// axis; swapping presets is how callers re-weight the same data into a
// different layout.
package scoring

import "github.com/quadmap/quadmap/pkg/plane"

// The six descriptor dimensions, in canonical order.
const (
	DimEconomyView  = "economy_view"  // classes, individuals, or structures
	DimHumanView    = "human_view"    // model of the economic actor
	DimWorldView    = "world_view"    // certainty vs complexity of the world
	DimDomainFocus  = "domain_focus"  // production, trade, consumption, distribution
	DimChangeDriver = "change_driver" // what moves the economy
	DimPolicyStance = "policy_stance" // preferred policy posture
)

// Dimensions lists all descriptor dimensions in canonical order.
var Dimensions = []string{
	DimEconomyView,
	DimHumanView,
	DimWorldView,
	DimDomainFocus,
	DimChangeDriver,
	DimPolicyStance,
}

// Score is a single descriptor value's contribution to both axes.
type Score struct {
	X, Y float64
}

// Table maps dimension → descriptor value → score. Values absent from the
// table contribute zero to both axes; that is a deliberate degrade-gracefully
// policy, not a failure.
type Table map[string]map[string]Score

// DefaultTable is the standard descriptor scoring table. Single-axis
// dimensions contribute only to the axis they inform; mixed dimensions carry
// components on both. All entries lie in [-1,1]².
var DefaultTable = Table{
	DimEconomyView: {
		"social_classes": {X: -0.8},
		"individuals":    {X: 0.8},
		"structures":     {X: -0.5},
		"undefined":      {},
	},
	DimHumanView: {
		"rational_egoist":     {X: 0.7, Y: -0.6},
		"class_conditioned":   {X: -0.8, Y: 0.7},
		"bounded_rationality": {X: 0.2, Y: 0.3},
		"undefined":           {},
	},
	DimWorldView: {
		"certain_predictable": {X: 0.6},
		"complex_uncertain":   {X: -0.6},
		"ambiguous":           {},
	},
	DimDomainFocus: {
		"production":   {Y: -0.4},
		"trade":        {Y: 0.2},
		"consumption":  {Y: -0.3},
		"distribution": {Y: 0.8},
	},
	DimChangeDriver: {
		"capital_accumulation": {X: 0.5, Y: -0.5},
		"individual_choice":    {X: 0.7, Y: -0.4},
		"class_struggle":       {X: -0.9, Y: 0.8},
		"innovation":           {X: 0.3, Y: -0.2},
		"institutions":         {X: -0.3, Y: 0.4},
	},
	DimPolicyStance: {
		"free_market":        {X: 0.9},
		"state_intervention": {X: -0.7},
		"redistribution":     {X: -0.9},
		"mixed":              {},
	},
}

// Lookup returns the score for a descriptor value, and whether the value is
// known to the table. Unknown dimensions or values yield a zero score.
func (t Table) Lookup(dimension, value string) (Score, bool) {
	dim, ok := t[dimension]
	if !ok {
		return Score{}, false
	}
	s, ok := dim[value]
	return s, ok
}

// Values returns the allowed descriptor values for a dimension, useful for
// validation and documentation. Returns nil for unknown dimensions.
func (t Table) Values(dimension string) []string {
	dim, ok := t[dimension]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(dim))
	for v := range dim {
		out = append(out, v)
	}
	return out
}

// clip keeps a raw accumulated coordinate inside the unit plane.
func clip(p plane.Point) plane.Point {
	return plane.Point{X: plane.ClipUnit(p.X), Y: plane.ClipUnit(p.Y)}
}
