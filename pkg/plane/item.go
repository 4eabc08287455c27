package plane

// SizeCategory classifies an item's visual footprint. The category drives the
// safety radius used by the collision force; the mapping is configurable via
// RadiusTable.
type SizeCategory string

// Size categories, smallest to largest.
const (
	SizeSmall  SizeCategory = "small"
	SizeMedium SizeCategory = "medium"
	SizeLarge  SizeCategory = "large"
)

// RadiusTable maps size categories to visual radii in plot units.
type RadiusTable map[SizeCategory]float64

// DefaultRadii is the standard size→radius mapping. Values are in plot units
// on the [-1,1] plane; 0.075 corresponds to the overlap threshold the
// diagnostics historically used (pair distance 0.15).
var DefaultRadii = RadiusTable{
	SizeSmall:  0.06,
	SizeMedium: 0.075,
	SizeLarge:  0.09,
}

// Radius returns the radius for category c, falling back to the medium
// radius for unknown categories.
func (t RadiusTable) Radius(c SizeCategory) float64 {
	if r, ok := t[c]; ok {
		return r
	}
	return t[SizeMedium]
}

// Item is a labeled element positioned on the plane.
//
// Target is where the scoring pipeline wants the item; Pos and Vel are the
// solver's simulated state. Pinned items are never moved by the solver.
type Item struct {
	ID          string            `json:"id" bson:"id"`
	Name        string            `json:"name" bson:"name"`
	Size        SizeCategory      `json:"size,omitempty" bson:"size,omitempty"`
	Descriptors map[string]string `json:"descriptors,omitempty" bson:"descriptors,omitempty"`

	Target Point `json:"target" bson:"target"`
	Pos    Point `json:"pos" bson:"pos"`
	Vel    Point `json:"-" bson:"-"`

	Pinned bool `json:"pinned,omitempty" bson:"pinned,omitempty"`
}

// Link is a directed relation between two items (the original system drew
// these as transition arrows). Endpoints are derived geometry: they are
// recomputed from the items' current simulated positions on every tick, never
// cached across ticks.
type Link struct {
	From       string `json:"from" bson:"from"`
	To         string `json:"to" bson:"to"`
	Label      string `json:"label,omitempty" bson:"label,omitempty"`
	Confidence string `json:"confidence,omitempty" bson:"confidence,omitempty"`
}

// Segment is the resolved geometry of a Link at a specific tick.
type Segment struct {
	From  string `json:"from"`
	To    string `json:"to"`
	A     Point  `json:"a"`
	B     Point  `json:"b"`
	Label string `json:"label,omitempty"`
}
