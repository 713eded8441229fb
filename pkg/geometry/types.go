// Package geometry provides the pure coordinate transforms used by change
// rendering: rectangle → grid reference and rectangle → screen percentage.
//
// Every function in this package is total: out-of-range or degenerate
// rectangles (xmin > xmax, negative coordinates, values past the canvas) are
// clamped, never rejected, and nothing here panics for finite input.
//
// This package is also the single place that resolves the upstream bounds
// scale ambiguity: change bounds arrive in either [0,1] or [0,1000]
// normalized space depending on which upstream emitted them, with no scale
// tag on the wire.  Detection is by inspection (xmax <= 1 && ymax <= 1) and
// is presumptive, not authoritative.
package geometry

import "math"

// GridSpec describes the reference grid drawn over a sheet.
type GridSpec struct {
	// Cols is the number of lettered columns (A..).  Capped at 26.
	Cols int
	// Rows is the number of numbered rows (1..Rows).
	Rows int
}

// DefaultGrid is the 26-column, 99-row grid used by the dashboard.
var DefaultGrid = GridSpec{Cols: 26, Rows: 99}

// ScreenPosition is a marker position in canvas percentages.
type ScreenPosition struct {
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

// clamp limits v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampInt limits v to [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ordered returns (min, max) regardless of argument order, mapping NaN to
// the other argument so that a single bad coordinate cannot poison both
// corners.
func ordered(a, b float64) (float64, float64) {
	if math.IsNaN(a) {
		a = b
	}
	if math.IsNaN(b) {
		b = a
	}
	if a > b {
		return b, a
	}
	return a, b
}
