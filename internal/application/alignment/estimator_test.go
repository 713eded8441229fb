package alignment

import (
	"math"
	"testing"

	"github.com/planlens/PlanLens-Compare/pkg/errors"
	"github.com/planlens/PlanLens-Compare/pkg/types/common"
)

func newTestEstimator() *Estimator {
	return NewEstimator(Config{Epsilon: 1e-9, ResidualWarn: 25.0}, nil)
}

// applySimilarity is the forward transform the estimator must invert.
func applySimilarity(p common.Point, scale, deg float64, t common.Point) common.Point {
	rad := deg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	return common.Point{
		X: scale*(cos*p.X-sin*p.Y) + t.X,
		Y: scale*(sin*p.X+cos*p.Y) + t.Y,
	}
}

func almostEqual(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestEstimateRecoversKnownTransform(t *testing.T) {
	// scale 1.5, rotation 90°, translation (10, 20): the corners of a
	// well-spread triangle map to exactly computable targets.
	src := []common.Point{
		{X: 100, Y: 100},
		{X: 900, Y: 100},
		{X: 500, Y: 900},
	}
	dst := []common.Point{
		{X: -140, Y: 170},
		{X: -140, Y: 1370},
		{X: -1340, Y: 770},
	}

	res, err := newTestEstimator().Estimate(src, dst)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if !almostEqual(res.Scale, 1.5, 1e-9) {
		t.Errorf("Scale = %g, want 1.5", res.Scale)
	}
	if !almostEqual(res.RotationDeg, 90, 1e-9) {
		t.Errorf("RotationDeg = %g, want 90", res.RotationDeg)
	}
	if !almostEqual(res.Translation.X, 10, 1e-6) || !almostEqual(res.Translation.Y, 20, 1e-6) {
		t.Errorf("Translation = %+v, want (10, 20)", res.Translation)
	}
	if res.Residual > 1e-6 {
		t.Errorf("Residual = %g, want ~0 for an exact fit", res.Residual)
	}
	if res.LowConfidence {
		t.Error("exact fit flagged low-confidence")
	}
}

func TestEstimateRoundTrip(t *testing.T) {
	src := []common.Point{
		{X: 12.5, Y: 840},
		{X: 977, Y: 63},
		{X: 404, Y: 512},
	}
	cases := []struct {
		name  string
		scale float64
		deg   float64
		trans common.Point
	}{
		{"identity", 1, 0, common.Point{}},
		{"pure translation", 1, 0, common.Point{X: -33, Y: 7.5}},
		{"shrink and turn", 0.25, -137.5, common.Point{X: 1000, Y: -4}},
		{"near half turn", 2.75, 179.9, common.Point{X: 0.001, Y: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dst := make([]common.Point, len(src))
			for i, p := range src {
				dst[i] = applySimilarity(p, tc.scale, tc.deg, tc.trans)
			}
			res, err := newTestEstimator().Estimate(src, dst)
			if err != nil {
				t.Fatalf("Estimate: %v", err)
			}
			if !almostEqual(res.Scale, tc.scale, 1e-9*tc.scale) {
				t.Errorf("Scale = %g, want %g", res.Scale, tc.scale)
			}
			if !almostEqual(res.RotationDeg, tc.deg, 1e-7) {
				t.Errorf("RotationDeg = %g, want %g", res.RotationDeg, tc.deg)
			}
			for i, p := range src {
				got := res.Apply(p)
				if !almostEqual(got.X, dst[i].X, 1e-6) || !almostEqual(got.Y, dst[i].Y, 1e-6) {
					t.Errorf("Apply(src[%d]) = %+v, want %+v", i, got, dst[i])
				}
			}
		})
	}
}

func TestEstimateNoisyFitKeepsResidual(t *testing.T) {
	src := []common.Point{
		{X: 100, Y: 100},
		{X: 900, Y: 100},
		{X: 500, Y: 900},
	}
	// Targets perturbed off the exact transform; the fit must succeed and
	// report a nonzero residual rather than pretend the pick was clean.
	dst := []common.Point{
		{X: 112, Y: 95},
		{X: 905, Y: 108},
		{X: 494, Y: 889},
	}
	res, err := newTestEstimator().Estimate(src, dst)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if res.Residual <= 0 {
		t.Errorf("Residual = %g, want > 0 for a noisy pick", res.Residual)
	}
	if res.LowConfidence {
		t.Errorf("residual %g under threshold flagged low-confidence", res.Residual)
	}
}

func TestEstimateLowConfidenceFlag(t *testing.T) {
	e := NewEstimator(Config{Epsilon: 1e-9, ResidualWarn: 1.0}, nil)
	src := []common.Point{
		{X: 100, Y: 100},
		{X: 900, Y: 100},
		{X: 500, Y: 900},
	}
	dst := []common.Point{
		{X: 180, Y: 60},
		{X: 850, Y: 140},
		{X: 540, Y: 830},
	}
	res, err := e.Estimate(src, dst)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if !res.LowConfidence {
		t.Errorf("residual %g over threshold 1.0 not flagged", res.Residual)
	}
}

func TestEstimateDegenerateInputs(t *testing.T) {
	spread := []common.Point{
		{X: 0, Y: 0},
		{X: 100, Y: 0},
		{X: 50, Y: 100},
	}
	cases := []struct {
		name     string
		src, dst []common.Point
		wantCode errors.ErrorCode
	}{
		{
			"too few pairs",
			spread[:2], spread[:2],
			errors.ErrCodeTooFewPoints,
		},
		{
			"mismatched lengths",
			spread, spread[:2],
			errors.ErrCodeBadRequest,
		},
		{
			"coincident sources",
			[]common.Point{{X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5}},
			spread,
			errors.ErrCodeDegenerateInput,
		},
		{
			"collinear sources",
			[]common.Point{{X: 0, Y: 0}, {X: 50, Y: 50}, {X: 100, Y: 100}},
			spread,
			errors.ErrCodeDegenerateInput,
		},
		{
			"coincident targets",
			spread,
			[]common.Point{{X: 7, Y: 7}, {X: 7, Y: 7}, {X: 7, Y: 7}},
			errors.ErrCodeDegenerateInput,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestEstimator().Estimate(tc.src, tc.dst)
			if !errors.IsCode(err, tc.wantCode) {
				t.Errorf("got %v, want code %s", err, tc.wantCode)
			}
		})
	}
}

func TestEstimateNearCollinearRejectedNotGuessed(t *testing.T) {
	// Points within a hair of a line: the fit is numerically possible but
	// unconstrained perpendicular to the line, so it must be refused.
	src := []common.Point{
		{X: 0, Y: 0},
		{X: 500, Y: 500.0000001},
		{X: 1000, Y: 1000},
	}
	dst := []common.Point{
		{X: 10, Y: 10},
		{X: 510, Y: 510},
		{X: 1010, Y: 1010},
	}
	_, err := newTestEstimator().Estimate(src, dst)
	if !errors.IsDegenerate(err) {
		t.Errorf("near-collinear sources: got %v, want degenerate-input", err)
	}
}
