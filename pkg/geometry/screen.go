package geometry

import (
	"math"

	"github.com/planlens/PlanLens-Compare/pkg/types/common"
)

const (
	// screenClampMin / screenClampMax keep markers inside the visible
	// canvas; anything nearer the edge gets clipped by the viewport chrome.
	screenClampMin = 5.0
	screenClampMax = 95.0

	// fallbackSpacingPct is the diagonal step between unlocated markers.
	fallbackSpacingPct = 12.0
)

// BoundsToScreenPosition converts bounds to a marker position in canvas
// percentages, clamped to [5,95] on both axes.
//
// The rectangle's scale is auto-detected: a rectangle whose max corner fits
// inside the unit square is taken as [0,1]-scaled, anything else as
// [0,1000]-scaled.  The heuristic is presumptive — upstream sources are
// inconsistent and carry no scale tag — but it is the compatibility
// behaviour the dashboard depends on.
//
// When bounds is absent the marker falls back to a deterministic diagonal
// layout seeded by index, so concurrently rendered unlocated markers never
// perfectly overlap.
func BoundsToScreenPosition(bounds *common.Rect, index int) ScreenPosition {
	if bounds == nil {
		return fallbackPosition(index)
	}

	c := bounds.Center()
	cx, cy := c.X, c.Y
	if math.IsNaN(cx) || math.IsInf(cx, 0) {
		cx = 0
	}
	if math.IsNaN(cy) || math.IsInf(cy, 0) {
		cy = 0
	}

	var leftPct, topPct float64
	if bounds.XMax <= 1 && bounds.YMax <= 1 {
		// Already unit-normalized.
		leftPct = cx * 100
		topPct = cy * 100
	} else {
		leftPct = cx / 10 // cx / 1000 * 100
		topPct = cy / 10
	}

	return ScreenPosition{
		Top:  clamp(topPct, screenClampMin, screenClampMax),
		Left: clamp(leftPct, screenClampMin, screenClampMax),
	}
}

// fallbackPosition walks markers down the diagonal, wrapping before the
// clamp band so successive indices stay distinct.
func fallbackPosition(index int) ScreenPosition {
	if index < 0 {
		index = -index
	}
	offset := math.Mod(float64(index)*fallbackSpacingPct, screenClampMax-screenClampMin)
	return ScreenPosition{
		Top:  screenClampMin + offset,
		Left: screenClampMin + offset,
	}
}
