package solver

import (
	"sort"

	"github.com/quadmap/quadmap/pkg/plane"
)

// Overlap describes one item pair whose current distance is below the safety
// radius. Overlaps are transient diagnostics recomputed from positions on
// demand; they are never persisted.
type Overlap struct {
	A        string  `json:"a"`
	B        string  `json:"b"`
	Distance float64 `json:"distance"`
	// Threshold is the pair's safety radius (sum of the two item radii,
	// without the separation margin).
	Threshold float64 `json:"threshold"`
	// SharedDescriptors counts descriptor dimensions on which both items
	// hold the same value. Overlapping items that share many descriptors
	// are usually genuinely similar rather than badly tuned.
	SharedDescriptors int `json:"shared_descriptors"`
}

// Overlaps reports all item pairs currently closer than their safety radius,
// sorted by ascending distance (worst first, ties by id pair).
func Overlaps(items []plane.Item, radii plane.RadiusTable) []Overlap {
	if radii == nil {
		radii = plane.DefaultRadii
	}

	var out []Overlap
	for i := range items {
		for j := i + 1; j < len(items); j++ {
			threshold := radii.Radius(items[i].Size) + radii.Radius(items[j].Size)
			dist := items[i].Pos.Dist(items[j].Pos)
			if dist >= threshold {
				continue
			}
			out = append(out, Overlap{
				A:                 items[i].ID,
				B:                 items[j].ID,
				Distance:          dist,
				Threshold:         threshold,
				SharedDescriptors: sharedDescriptors(items[i], items[j]),
			})
		}
	}

	sort.Slice(out, func(a, b int) bool {
		if out[a].Distance != out[b].Distance {
			return out[a].Distance < out[b].Distance
		}
		if out[a].A != out[b].A {
			return out[a].A < out[b].A
		}
		return out[a].B < out[b].B
	})
	return out
}

func sharedDescriptors(a, b plane.Item) int {
	n := 0
	for dim, v := range a.Descriptors {
		if w, ok := b.Descriptors[dim]; ok && v == w {
			n++
		}
	}
	return n
}
