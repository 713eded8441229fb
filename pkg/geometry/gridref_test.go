package geometry

import (
	"testing"

	"github.com/planlens/PlanLens-Compare/pkg/types/common"
)

func rect(xmin, ymin, xmax, ymax float64) *common.Rect {
	return &common.Rect{XMin: xmin, YMin: ymin, XMax: xmax, YMax: ymax}
}

func TestBoundsToGridReference(t *testing.T) {
	cases := []struct {
		name   string
		bounds *common.Rect
		want   string
	}{
		{"nil bounds", nil, "N/A"},
		{"full canvas spans corner to corner", rect(0, 0, 1000, 1000), "A1-Z99"},
		{"zero-area rect at centroid is a single cell", rect(500, 500, 500, 500), "N50"},
		{"small rect within one cell", rect(160, 32, 165, 38), "E4"},
		{"rect spanning cells", rect(160, 32, 220, 70), "E4-F7"},
		{"negative coordinates clamp to A1", rect(-50, -50, -10, -10), "A1"},
		{"past-canvas coordinates clamp to Z99", rect(1200, 1100, 1500, 1400), "Z99"},
		{"inverted rect is reordered, not rejected", rect(220, 70, 160, 32), "E4-F7"},
		{"unit-scaled rect is lifted before mapping", rect(0.16, 0.032, 0.165, 0.038), "E4"},
		{"unit-scaled full canvas spans corner to corner", rect(0, 0, 1, 1), "A1-Z99"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BoundsToGridReference(tc.bounds); got != tc.want {
				t.Errorf("BoundsToGridReference(%v) = %q, want %q", tc.bounds, got, tc.want)
			}
		})
	}
}

func TestBoundsToGridReferenceCustomGrid(t *testing.T) {
	// A 10×10 grid: x=0.55 → column F, y=0.55 → row 6.
	got := BoundsToGridReferenceIn(rect(550, 550, 550, 550), GridSpec{Cols: 10, Rows: 10})
	if got != "F6" {
		t.Errorf("custom grid ref = %q, want F6", got)
	}

	// Grids wider than the alphabet are capped at 26 columns.
	got = BoundsToGridReferenceIn(rect(1000, 1000, 1000, 1000), GridSpec{Cols: 40, Rows: 99})
	if got != "Z99" {
		t.Errorf("capped grid ref = %q, want Z99", got)
	}
}

func TestNormalizeToGridScale(t *testing.T) {
	if got := NormalizeToGridScale(nil); got != nil {
		t.Errorf("nil bounds = %v, want nil", got)
	}

	// [0,1000]-scaled bounds pass through untouched.
	scaled := rect(160, 32, 220, 70)
	if got := NormalizeToGridScale(scaled); got != scaled {
		t.Errorf("scaled bounds were copied: %v", got)
	}

	// Unit bounds are lifted into a copy; the input stays as it was.
	unit := rect(0.16, 0.032, 0.22, 0.07)
	got := NormalizeToGridScale(unit)
	if want := rect(160, 32, 220, 70); *got != *want {
		t.Errorf("lifted = %v, want %v", got, want)
	}
	if unit.XMax != 0.22 {
		t.Error("input bounds were mutated")
	}
}

func TestGridReferenceBoundaryRows(t *testing.T) {
	// y exactly at the top edge of the canvas must stay row 99, not 100.
	if got := BoundsToGridReference(rect(0, 1000, 0, 1000)); got != "A99" {
		t.Errorf("top edge = %q, want A99", got)
	}
	// y=0 is row 1.
	if got := BoundsToGridReference(rect(999, 0, 999, 0)); got != "Z1" {
		t.Errorf("right edge = %q, want Z1", got)
	}
}
