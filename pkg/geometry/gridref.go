package geometry

import (
	"fmt"
	"math"

	"github.com/planlens/PlanLens-Compare/pkg/types/common"
)

// gridRefScale is the normalized space grid references are computed in.
const gridRefScale = 1000.0

// NormalizeToGridScale lifts bounds into the [0,1000] space grid references
// are computed in, using the package's scale detection: a rectangle whose
// max corner fits inside the unit square is taken as [0,1]-scaled and
// multiplied up, anything else is passed through as already [0,1000]-scaled.
// Lifted bounds are returned as a copy; the input is never mutated.
func NormalizeToGridScale(b *common.Rect) *common.Rect {
	if b == nil {
		return nil
	}
	if b.XMax <= 1 && b.YMax <= 1 {
		return &common.Rect{
			XMin: b.XMin * gridRefScale,
			YMin: b.YMin * gridRefScale,
			XMax: b.XMax * gridRefScale,
			YMax: b.YMax * gridRefScale,
		}
	}
	return b
}

// BoundsToGridReference maps bounds onto the default 26×99 sheet grid.
// See BoundsToGridReferenceIn.
func BoundsToGridReference(bounds *common.Rect) string {
	return BoundsToGridReferenceIn(bounds, DefaultGrid)
}

// BoundsToGridReferenceIn maps bounds onto grid, returning a single cell
// reference ("E5") when the min and max corners collapse to the same cell
// and a range ("E5-F7") otherwise.  Absent bounds yield "N/A".  Either
// bounds scale is accepted; see NormalizeToGridScale.
//
// Corners are normalized to [0,1] and clamped, so rectangles that spill past
// the canvas land on the outermost cells rather than failing.
func BoundsToGridReferenceIn(bounds *common.Rect, grid GridSpec) string {
	if bounds == nil {
		return "N/A"
	}
	bounds = NormalizeToGridScale(bounds)

	cols := clampInt(grid.Cols, 1, 26)
	rows := grid.Rows
	if rows < 1 {
		rows = DefaultGrid.Rows
	}

	xlo, xhi := ordered(bounds.XMin, bounds.XMax)
	ylo, yhi := ordered(bounds.YMin, bounds.YMax)

	minCell := cellRef(xlo/gridRefScale, ylo/gridRefScale, cols, rows)
	maxCell := cellRef(xhi/gridRefScale, yhi/gridRefScale, cols, rows)

	if minCell == maxCell {
		return minCell
	}
	return minCell + "-" + maxCell
}

// cellRef maps one normalized corner to a "<letter><row>" cell.
func cellRef(nx, ny float64, cols, rows int) string {
	col := clampInt(int(math.Floor(clamp(nx, 0, 1)*float64(cols))), 0, cols-1)
	row := clampInt(int(math.Floor(clamp(ny, 0, 1)*float64(rows)))+1, 1, rows)
	return fmt.Sprintf("%c%d", 'A'+col, row)
}
