// Package alignment computes the best-fit similarity transform (uniform
// scale, rotation, translation — no shear, no reflection) mapping three
// operator-picked source points onto three target points, by least-squares
// Procrustes estimation.  The result is an advisory preview; the remote
// service re-derives the authoritative transform on submission.
package alignment

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/planlens/PlanLens-Compare/internal/infrastructure/monitoring/logging"
	"github.com/planlens/PlanLens-Compare/pkg/errors"
	"github.com/planlens/PlanLens-Compare/pkg/types/common"
)

// Config holds the estimator tunables, populated from
// internal/config.AlignmentConfig.
type Config struct {
	// Epsilon is the minimum summed squared radius of the centroid-relative
	// source points.  Below it the sources are (nearly) coincident and the
	// scale is undefined.
	Epsilon float64

	// ResidualWarn is the RMS residual above which a result is flagged
	// low-confidence.  The result is still returned — the operator decides
	// whether to re-pick points.
	ResidualWarn float64
}

// Result is the estimated similarity transform plus its fit quality.
type Result struct {
	// Scale is the uniform scale factor, always positive.
	Scale float64 `json:"scale"`

	// RotationDeg is in (-180, 180].
	RotationDeg float64 `json:"rotation_deg"`

	// Translation maps the scaled-and-rotated source space onto the target
	// space.
	Translation common.Point `json:"translation"`

	// Residual is the root-mean-square distance between the transformed
	// source points and the target points.  Near zero for a clean pick.
	Residual float64 `json:"residual"`

	// LowConfidence is set when Residual exceeds the configured threshold.
	LowConfidence bool `json:"low_confidence"`
}

// Apply transforms p through the estimated similarity.
func (r *Result) Apply(p common.Point) common.Point {
	rad := r.RotationDeg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	return common.Point{
		X: r.Scale*(cos*p.X-sin*p.Y) + r.Translation.X,
		Y: r.Scale*(sin*p.X+cos*p.Y) + r.Translation.Y,
	}
}

// Estimator is stateless apart from its tunables; Estimate is pure and safe
// for concurrent use.
type Estimator struct {
	cfg    Config
	logger logging.Logger
}

// NewEstimator constructs an Estimator.  Zero tunables fall back to
// conservative values so a hand-rolled Estimator in tests behaves.
func NewEstimator(cfg Config, log logging.Logger) *Estimator {
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = 1e-9
	}
	if cfg.ResidualWarn <= 0 {
		cfg.ResidualWarn = 25.0
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Estimator{cfg: cfg, logger: log}
}

// Estimate fits the similarity transform mapping src onto dst.
//
// The closed form: translate both point sets to their centroids, take the
// scale from the ratio of RMS radii, and take the rotation from the 2×2
// cross-covariance H = Tc·Scᵀ, whose trace and skew give the angle that
// minimizes Σ|t' − s·R·s'|²:
//
//	θ = atan2(H21 − H12, H11 + H22)
//
// Degenerate source sets (fewer than three pairs, coincident points,
// collinear points, or a non-finite fitted scale) return DegenerateInput;
// there is no other failure mode.
func (e *Estimator) Estimate(src, dst []common.Point) (*Result, error) {
	if len(src) < 3 || len(dst) < 3 {
		return nil, errors.New(errors.ErrCodeTooFewPoints,
			"similarity estimation needs three point pairs")
	}
	if len(src) != len(dst) {
		return nil, errors.InvalidParam("source and target point counts differ")
	}
	n := len(src)

	cs := centroid(src)
	ct := centroid(dst)

	// Centroid-relative coordinates as 2×n matrices.
	sc := mat.NewDense(2, n, nil)
	tc := mat.NewDense(2, n, nil)
	var sumSqS, sumSqT float64
	for i := 0; i < n; i++ {
		sx, sy := src[i].X-cs.X, src[i].Y-cs.Y
		tx, ty := dst[i].X-ct.X, dst[i].Y-ct.Y
		sc.Set(0, i, sx)
		sc.Set(1, i, sy)
		tc.Set(0, i, tx)
		tc.Set(1, i, ty)
		sumSqS += sx*sx + sy*sy
		sumSqT += tx*tx + ty*ty
	}

	if sumSqS < e.cfg.Epsilon {
		return nil, errors.DegenerateInput("source points are nearly coincident")
	}
	if collinear(src, sumSqS) {
		return nil, errors.DegenerateInput("source points are collinear")
	}

	scale := math.Sqrt(sumSqT / sumSqS)
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 {
		return nil, errors.DegenerateInput("fitted scale is not finite").
			WithDetail("target points may be coincident")
	}

	// Cross-covariance H = Tc · Scᵀ.
	var h mat.Dense
	h.Mul(tc, sc.T())
	theta := math.Atan2(h.At(1, 0)-h.At(0, 1), h.At(0, 0)+h.At(1, 1))

	cos, sin := math.Cos(theta), math.Sin(theta)
	res := &Result{
		Scale:       scale,
		RotationDeg: theta * 180 / math.Pi,
		Translation: common.Point{
			X: ct.X - scale*(cos*cs.X-sin*cs.Y),
			Y: ct.Y - scale*(sin*cs.X+cos*cs.Y),
		},
	}

	var sumSqErr float64
	for i := 0; i < n; i++ {
		mapped := res.Apply(src[i])
		sumSqErr += sqDist(mapped, dst[i])
	}
	res.Residual = math.Sqrt(sumSqErr / float64(n))
	res.LowConfidence = res.Residual > e.cfg.ResidualWarn

	if res.LowConfidence {
		e.logger.Warn("low-confidence registration",
			logging.Float64("residual", res.Residual),
			logging.Float64("threshold", e.cfg.ResidualWarn))
	}

	return res, nil
}

// collinear reports whether the first three points span (nearly) zero area
// relative to their spread.  A similarity transform fitted to a collinear
// pick looks plausible but is unconstrained perpendicular to the line, so
// it is rejected rather than returned as silent garbage.
func collinear(pts []common.Point, sumSq float64) bool {
	ax, ay := pts[1].X-pts[0].X, pts[1].Y-pts[0].Y
	bx, by := pts[2].X-pts[0].X, pts[2].Y-pts[0].Y
	area2 := math.Abs(ax*by - ay*bx)
	return area2 < 1e-9*sumSq+1e-12
}

func centroid(pts []common.Point) common.Point {
	var c common.Point
	for _, p := range pts {
		c.X += p.X
		c.Y += p.Y
	}
	c.X /= float64(len(pts))
	c.Y /= float64(len(pts))
	return c
}

func sqDist(a, b common.Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}
