// Package change holds the domain rules for change records: string
// canonicalization at the ingest boundary and the remote-store port.
//
// Bounds are deliberately not touched here.  Upstream sources disagree about
// the normalized scale ([0,1] vs [0,1000]) and pkg/geometry is the single
// place that resolves the ambiguity; anything this package did to bounds
// would double-convert.
package change

import (
	"strings"

	"github.com/planlens/PlanLens-Compare/pkg/types/change"
)

// CanonicalKind maps a raw upstream kind string into the closed Kind enum.
// "added" and "removed" (any casing, surrounding space tolerated) map to
// their kinds; anything else — including empty — is passed through as
// Modified, which is what the AI summary endpoint emits for reworked
// elements under a handful of spellings.
func CanonicalKind(raw string) change.Kind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "added", "add", "new":
		return change.KindAdded
	case "removed", "remove", "deleted":
		return change.KindRemoved
	default:
		return change.KindModified
	}
}

// CanonicalStatus maps a raw upstream status string into the closed Status
// enum.  Unknown strings map to Open so a record never disappears from the
// review queue because of an unrecognized workflow label.
func CanonicalStatus(raw string) change.Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "in_review", "in review", "review", "reviewing":
		return change.StatusInReview
	case "pricing", "priced", "estimating":
		return change.StatusPricing
	case "closed", "resolved", "done", "complete":
		return change.StatusClosed
	default:
		return change.StatusOpen
	}
}

// Canonicalize returns a copy of rec with kind and status mapped through
// the canonical enums and the origin stamped.  Everything else — including
// bounds and the raw cost/schedule strings — is carried through untouched.
func Canonicalize(rec change.Record, origin change.Origin) change.Record {
	rec.Kind = CanonicalKind(string(rec.Kind))
	rec.Status = CanonicalStatus(string(rec.Status))
	rec.Origin = origin
	return rec
}
