package changeset

import (
	"github.com/planlens/PlanLens-Compare/pkg/geometry"
	"github.com/planlens/PlanLens-Compare/pkg/types/change"
)

// Positioned is a change record decorated with its display coordinates: the
// sheet grid reference for the list view and the marker position for the
// overlay canvas.  The embedded record's Bounds stay exactly as fetched.
type Positioned struct {
	change.Record

	GridRef  string                  `json:"grid_ref"`
	Position geometry.ScreenPosition `json:"position"`
}

// Position decorates each record with display coordinates.  The slice index
// seeds the fallback layout for records without bounds, so unlocated markers
// fan out down the diagonal instead of stacking.
func Position(recs []change.Record) []Positioned {
	out := make([]Positioned, len(recs))
	for i, r := range recs {
		out[i] = Positioned{
			Record:   r,
			GridRef:  geometry.BoundsToGridReference(r.Bounds),
			Position: geometry.BoundsToScreenPosition(r.Bounds, i),
		}
	}
	return out
}
