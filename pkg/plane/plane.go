// Package plane defines the geometric primitives and item model for the
// quadmap positioning engine.
//
// All coordinates live on the unit plane [-1,1]×[-1,1]. Items carry a target
// position (where the scoring engine wants them), a simulated position (where
// the layout solver currently has them), and a velocity used during settling.
//
// The package also defines the Document serialization format used for variant
// files and the document store.
package plane

import "math"

// Bounds describes the rectangular extent of the plot.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// Unit is the standard plot extent used throughout the engine.
var Unit = Bounds{MinX: -1, MaxX: 1, MinY: -1, MaxY: 1}

// Clamp returns p constrained to the bounds on both axes.
func (b Bounds) Clamp(p Point) Point {
	return Point{
		X: math.Max(b.MinX, math.Min(b.MaxX, p.X)),
		Y: math.Max(b.MinY, math.Min(b.MaxY, p.Y)),
	}
}

// Contains reports whether p lies inside the bounds (inclusive).
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Point is a position on the plot plane.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Add returns the component-wise sum of two points.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point { return Point{X: p.X * s, Y: p.Y * s} }

// Norm returns the Euclidean length of p treated as a vector.
func (p Point) Norm() float64 { return math.Hypot(p.X, p.Y) }

// Dist returns the Euclidean distance between two points.
func (p Point) Dist(q Point) float64 { return p.Sub(q).Norm() }

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// ClipUnit clips a scalar to [-1,1].
func ClipUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

// Sanitize replaces non-finite coordinates with fallback values and clamps
// the result to the unit plane. Non-finite values must never reach a
// downstream consumer.
func Sanitize(p, fallback Point) Point {
	out := p
	if math.IsNaN(out.X) || math.IsInf(out.X, 0) {
		out.X = fallback.X
	}
	if math.IsNaN(out.Y) || math.IsInf(out.Y, 0) {
		out.Y = fallback.Y
	}
	return Unit.Clamp(out)
}
