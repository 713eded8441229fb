package geometry

import (
	"math"
	"testing"

	"github.com/planlens/PlanLens-Compare/pkg/types/common"
)

func TestBoundsToScreenPositionScaleDetection(t *testing.T) {
	// [0,1000]-scaled rect: centroid (500, 250) → 50%, 25%.
	pos := BoundsToScreenPosition(rect(400, 200, 600, 300), 0)
	if pos.Left != 50 || pos.Top != 25 {
		t.Errorf("thousand-scale pos = %+v, want {25 50}", pos)
	}

	// [0,1]-scaled rect: centroid (0.5, 0.25) → identical percentages.
	pos = BoundsToScreenPosition(rect(0.4, 0.2, 0.6, 0.3), 0)
	if pos.Left != 50 || pos.Top != 25 {
		t.Errorf("unit-scale pos = %+v, want {25 50}", pos)
	}
}

func TestBoundsToScreenPositionClamp(t *testing.T) {
	cases := []struct {
		name   string
		bounds *common.Rect
	}{
		{"origin corner", rect(0, 0, 0, 0)},
		{"far corner", rect(1000, 1000, 1000, 1000)},
		{"past canvas", rect(5000, -3000, 9000, -2000)},
		{"inverted", rect(900, 900, 100, 100)},
		{"unit edge", rect(0.99, 0.001, 1.0, 0.002)},
		{"infinite", rect(math.Inf(1), 0, math.Inf(1), 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pos := BoundsToScreenPosition(tc.bounds, 0)
			if pos.Top < 5 || pos.Top > 95 || pos.Left < 5 || pos.Left > 95 {
				t.Errorf("position %+v escaped the [5,95] clamp band", pos)
			}
		})
	}
}

func TestFallbackLayoutIsDeterministicAndDistinct(t *testing.T) {
	a := BoundsToScreenPosition(nil, 0)
	b := BoundsToScreenPosition(nil, 1)
	c := BoundsToScreenPosition(nil, 2)

	if a == b || b == c || a == c {
		t.Errorf("adjacent unlocated markers overlap: %+v %+v %+v", a, b, c)
	}
	// Deterministic: same index, same position.
	if again := BoundsToScreenPosition(nil, 1); again != b {
		t.Errorf("fallback not deterministic: %+v vs %+v", again, b)
	}
	// Fallback positions respect the clamp band too.
	for i := 0; i < 64; i++ {
		pos := BoundsToScreenPosition(nil, i)
		if pos.Top < 5 || pos.Top > 95 || pos.Left < 5 || pos.Left > 95 {
			t.Fatalf("fallback index %d escaped clamp band: %+v", i, pos)
		}
	}
}
