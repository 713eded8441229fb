package common

import (
	"math"
	"testing"
)

func TestNewIDUnique(t *testing.T) {
	a, b := NewID(), NewID()
	if a == b {
		t.Fatalf("NewID returned duplicate: %s", a)
	}
	if len(a) != 36 {
		t.Errorf("NewID length = %d, want 36 (uuid v4)", len(a))
	}
}

func TestPointDist(t *testing.T) {
	p := Point{X: 0, Y: 0}
	q := Point{X: 3, Y: 4}
	if d := p.Dist(q); math.Abs(d-5) > 1e-12 {
		t.Errorf("Dist = %g, want 5", d)
	}
	if d := p.Dist(p); d != 0 {
		t.Errorf("Dist(self) = %g, want 0", d)
	}
}

func TestPointSub(t *testing.T) {
	got := Point{X: 5, Y: 7}.Sub(Point{X: 2, Y: 10})
	if got.X != 3 || got.Y != -3 {
		t.Errorf("Sub = %+v, want {3 -3}", got)
	}
}

func TestRectCenter(t *testing.T) {
	r := Rect{XMin: 100, YMin: 200, XMax: 300, YMax: 600}
	c := r.Center()
	if c.X != 200 || c.Y != 400 {
		t.Errorf("Center = %+v, want {200 400}", c)
	}

	// Degenerate (inverted) rect still yields a centroid, never panics.
	inv := Rect{XMin: 10, YMin: 10, XMax: 0, YMax: 0}
	c = inv.Center()
	if c.X != 5 || c.Y != 5 {
		t.Errorf("Center(inverted) = %+v, want {5 5}", c)
	}
}
