// Package normalize implements the per-axis calibration transforms applied to
// raw scored coordinates before they become solver targets.
//
// Each mode operates over the full item set's values on one axis and
// preserves the item-to-value correspondence: the i-th output always belongs
// to the i-th input, even when internal computation (percentile ranking)
// temporarily reorders values.
//
// Output spans exactly [-1,1] per axis for Percentile and MinMax with n>1;
// ZScore centers and clips; None passes values through untouched.
package normalize

import (
	"math"
	"sort"
	"strings"

	"github.com/quadmap/quadmap/pkg/errors"
	"github.com/quadmap/quadmap/pkg/plane"
)

// Mode selects the calibration transform.
type Mode string

// Supported normalization modes.
const (
	ModeNone       Mode = "none"
	ModeZScore     Mode = "zscore"
	ModePercentile Mode = "percentile"
	ModeMinMax     Mode = "minmax"
)

// Modes lists every supported mode in canonical order.
var Modes = []Mode{ModeNone, ModeZScore, ModePercentile, ModeMinMax}

// ParseMode converts a string to a Mode, case-insensitively.
// Unknown names are a configuration error: the caller must not proceed.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeNone:
		return ModeNone, nil
	case ModeZScore:
		return ModeZScore, nil
	case ModePercentile:
		return ModePercentile, nil
	case ModeMinMax:
		return ModeMinMax, nil
	}
	return "", errors.New(errors.ErrCodeInvalidNormalization, "unknown normalization mode: %q", s)
}

// Apply transforms one axis worth of values according to mode.
// The input slice is never mutated; the result has the same length and order.
func Apply(values []float64, mode Mode) []float64 {
	switch mode {
	case ModeZScore:
		return zscore(values)
	case ModePercentile:
		return percentile(values)
	case ModeMinMax:
		return minmax(values)
	default:
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
}

// zscore subtracts the population mean and divides by the population standard
// deviation, clipping the result to [-1,1]. A zero standard deviation maps
// every value to 0.
func zscore(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(values)))

	if std == 0 {
		return out
	}
	for i, v := range values {
		out[i] = plane.ClipUnit((v - mean) / std)
	}
	return out
}

// percentile assigns each value its fractional rank and rescales to [-1,1].
//
// Values are stable-sorted; ties keep their original input order so equal
// inputs receive distinct, deterministic ranks. With n=1 the result is 0.
func percentile(values []float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n <= 1 {
		return out
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})

	for rank, i := range idx {
		p := float64(rank) / float64(n-1)
		out[i] = 2*p - 1
	}
	return out
}

// minmax rescales values linearly so the minimum maps to -1 and the maximum
// to +1. A degenerate set (max==min) collapses to the range minimum, matching
// the unit value 0 for every element.
func minmax(values []float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	if hi == lo {
		for i := range out {
			out[i] = -1
		}
		return out
	}
	for i, v := range values {
		unit := (v - lo) / (hi - lo)
		out[i] = 2*unit - 1
	}
	return out
}
