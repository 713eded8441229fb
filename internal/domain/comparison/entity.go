// Package comparison holds the domain rules for overlay comparisons: the
// closed status lattice, the remote-status mapping, and the validation of
// operator-supplied alignment point pairs.
package comparison

import (
	"strconv"
	"strings"

	"github.com/planlens/PlanLens-Compare/pkg/errors"
	"github.com/planlens/PlanLens-Compare/pkg/types/common"
	"github.com/planlens/PlanLens-Compare/pkg/types/comparison"
)

// RequiredPointPairs is the number of correspondences a manual registration
// needs: three pairs determine a similarity transform with one residual
// degree of freedom to judge quality by.
const RequiredPointPairs = 3

// coincidentEps is the squared distance below which two picked points are
// considered the same location.  Point space is [0,1000].
const coincidentEps = 1e-6

// MapRemoteStatus maps a raw remote status string into the closed status
// lattice.  The remote service is loosely typed; every string it has been
// observed to emit is matched explicitly here so the poller's transition
// table stays total.  Unknown strings map to StatusProcessing (the safe
// non-terminal) with ok=false so the caller can log them.
func MapRemoteStatus(raw string) (status comparison.Status, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending", "queued", "created", "accepted":
		return comparison.StatusPending, true
	case "processing", "running", "in_progress", "analyzing", "rendering":
		return comparison.StatusProcessing, true
	case "completed", "complete", "done", "succeeded", "success":
		return comparison.StatusCompleted, true
	case "failed", "error", "cancelled", "canceled", "rejected":
		return comparison.StatusFailed, true
	default:
		return comparison.StatusProcessing, false
	}
}

// ValidateComparison checks the cross-field invariants of a comparison as
// observed from the remote service:
//
//   - the overlay artifact reference is set if and only if the comparison is
//     completed;
//   - the alignment score, when present, is in [0,1] and only accompanies a
//     completed comparison.
func ValidateComparison(c *comparison.Comparison) error {
	if c == nil {
		return errors.InvalidParam("comparison is nil")
	}
	completed := c.Status == comparison.StatusCompleted
	if completed && c.OverlayArtifactRef == "" {
		return errors.New(errors.ErrCodeComparisonIncomplete,
			"completed comparison is missing its overlay artifact")
	}
	if !completed && c.OverlayArtifactRef != "" {
		return errors.New(errors.ErrCodeComparisonIncomplete,
			"overlay artifact present on a non-completed comparison")
	}
	if c.AlignmentScore != nil {
		if !completed {
			return errors.New(errors.ErrCodeComparisonIncomplete,
				"alignment score present on a non-completed comparison")
		}
		if s := *c.AlignmentScore; s < 0 || s > 1 {
			return errors.Validation("alignment score outside [0,1]")
		}
	}
	return nil
}

// ValidatePointPairs checks an operator's registration picks: exactly three
// pairs, indices 1..3, and no two source (or two target) points coincident.
// Collinearity is not checked here — that is the estimator's epsilon test —
// but coincident picks are rejected before any math runs.
func ValidatePointPairs(pairs []comparison.PointPair) error {
	if len(pairs) != RequiredPointPairs {
		return errors.New(errors.ErrCodeTooFewPoints,
			"exactly three point pairs are required").
			WithDetail(countDetail(len(pairs)))
	}

	seen := map[int]bool{}
	for _, p := range pairs {
		if p.Index < 1 || p.Index > RequiredPointPairs {
			return errors.InvalidParam("point pair index out of range 1..3")
		}
		if seen[p.Index] {
			return errors.InvalidParam("duplicate point pair index")
		}
		seen[p.Index] = true
	}

	for i := 0; i < len(pairs); i++ {
		for j := i + 1; j < len(pairs); j++ {
			if sqDist(pairs[i].Source, pairs[j].Source) < coincidentEps {
				return errors.New(errors.ErrCodeCoincidentPoints,
					"two source points occupy the same location")
			}
			if sqDist(pairs[i].Target, pairs[j].Target) < coincidentEps {
				return errors.New(errors.ErrCodeCoincidentPoints,
					"two target points occupy the same location")
			}
		}
	}
	return nil
}

// SplitPointPairs orders pairs by index and returns the source and target
// point slices ready for estimation or submission.  Callers must have run
// ValidatePointPairs first.
func SplitPointPairs(pairs []comparison.PointPair) (src, dst []common.Point) {
	ordered := make([]comparison.PointPair, len(pairs))
	copy(ordered, pairs)
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			if ordered[j].Index < ordered[i].Index {
				ordered[i], ordered[j] = ordered[j], ordered[i]
			}
		}
	}
	src = make([]common.Point, 0, len(ordered))
	dst = make([]common.Point, 0, len(ordered))
	for _, p := range ordered {
		src = append(src, p.Source)
		dst = append(dst, p.Target)
	}
	return src, dst
}

func sqDist(a, b common.Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

func countDetail(n int) string {
	if n == 1 {
		return "1 pair supplied"
	}
	return strconv.Itoa(n) + " pairs supplied"
}
