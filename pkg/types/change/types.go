// Package change holds the wire types for detected and manually logged
// drawing differences.
package change

import (
	"github.com/planlens/PlanLens-Compare/pkg/types/common"
)

// Kind classifies what happened to an element between the two drawings.
type Kind string

const (
	KindAdded    Kind = "added"
	KindRemoved  Kind = "removed"
	KindModified Kind = "modified"
)

// Status is the review workflow state of a change record.
type Status string

const (
	StatusOpen     Status = "open"
	StatusInReview Status = "in_review"
	StatusPricing  Status = "pricing"
	StatusClosed   Status = "closed"
)

// Origin records which upstream produced a change record.  AI-analysis
// records supersede persisted records wholesale during aggregation.
type Origin string

const (
	OriginAIAnalysis   Origin = "ai_analysis"
	OriginPersistedAPI Origin = "persisted_api"
)

// Record is one detected or manually entered difference.
//
// CostEstimate and ScheduleImpact are deliberately kept as the raw strings
// the upstream emitted ("$15,000 - $20,000", "+2 Days"); they are parsed on
// demand and never normalized in storage.
type Record struct {
	ID           common.ID `json:"id"`
	ComparisonID common.ID `json:"comparison_id"`

	Kind        Kind   `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Trade       string `json:"trade,omitempty"`
	Discipline  string `json:"discipline,omitempty"`

	CostEstimate   string `json:"cost_estimate,omitempty"`
	ScheduleImpact string `json:"schedule_impact,omitempty"`

	Status   Status        `json:"status"`
	Assignee common.UserID `json:"assignee,omitempty"`

	// Bounds is in a normalized space whose scale is either [0,1] or
	// [0,1000] depending on origin; it is carried untransformed and only
	// pkg/geometry resolves the ambiguity.
	Bounds *common.Rect `json:"bounds,omitempty"`

	Origin Origin `json:"origin"`

	common.Timestamped
}

// Update carries a partial mutation of a change record to the remote
// service.  Nil fields are left untouched.  Every mutation is followed by a
// re-fetch; local records are never patched in place.
type Update struct {
	Status       *Status        `json:"status,omitempty"`
	Assignee     *common.UserID `json:"assignee,omitempty"`
	CostEstimate *string        `json:"cost_estimate,omitempty"`
	Title        *string        `json:"title,omitempty"`
	Description  *string        `json:"description,omitempty"`
}

// CreateRequest carries a manually entered change record to the remote
// service.
type CreateRequest struct {
	ComparisonID common.ID    `json:"comparison_id"`
	Kind         Kind         `json:"kind"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Trade        string       `json:"trade,omitempty"`
	Discipline   string       `json:"discipline,omitempty"`
	CostEstimate string       `json:"cost_estimate,omitempty"`
	Bounds       *common.Rect `json:"bounds,omitempty"`
}
