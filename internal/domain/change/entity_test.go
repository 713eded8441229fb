package change

import (
	"testing"

	"github.com/planlens/PlanLens-Compare/pkg/types/change"
	"github.com/planlens/PlanLens-Compare/pkg/types/common"
)

func TestCanonicalKind(t *testing.T) {
	cases := []struct {
		raw  string
		want change.Kind
	}{
		{"added", change.KindAdded},
		{"Added", change.KindAdded},
		{" NEW ", change.KindAdded},
		{"removed", change.KindRemoved},
		{"deleted", change.KindRemoved},
		{"modified", change.KindModified},
		{"changed", change.KindModified},
		{"relocated", change.KindModified},
		{"", change.KindModified},
	}
	for _, tc := range cases {
		if got := CanonicalKind(tc.raw); got != tc.want {
			t.Errorf("CanonicalKind(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestCanonicalStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want change.Status
	}{
		{"open", change.StatusOpen},
		{"in_review", change.StatusInReview},
		{"In Review", change.StatusInReview},
		{"pricing", change.StatusPricing},
		{"closed", change.StatusClosed},
		{"Resolved", change.StatusClosed},
		{"someday", change.StatusOpen},
		{"", change.StatusOpen},
	}
	for _, tc := range cases {
		if got := CanonicalStatus(tc.raw); got != tc.want {
			t.Errorf("CanonicalStatus(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestCanonicalizeLeavesBoundsAndCostAlone(t *testing.T) {
	bounds := &common.Rect{XMin: 0.1, YMin: 0.2, XMax: 0.3, YMax: 0.4}
	rec := change.Record{
		ID:           "chg_1",
		Kind:         change.Kind("ADDED"),
		Status:       change.Status("Review"),
		CostEstimate: "$15,000 - $20,000",
		Bounds:       bounds,
	}

	got := Canonicalize(rec, change.OriginAIAnalysis)

	if got.Kind != change.KindAdded || got.Status != change.StatusInReview {
		t.Errorf("canonicalization wrong: kind=%s status=%s", got.Kind, got.Status)
	}
	if got.Origin != change.OriginAIAnalysis {
		t.Errorf("origin not stamped: %s", got.Origin)
	}
	if got.Bounds != bounds {
		t.Error("bounds pointer was replaced; aggregation must never rescale bounds")
	}
	if got.CostEstimate != "$15,000 - $20,000" {
		t.Error("cost string was normalized; it must stay raw")
	}
}
