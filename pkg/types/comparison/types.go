// Package comparison holds the wire types for comparisons and the
// asynchronous jobs that produce them.
package comparison

import (
	"github.com/planlens/PlanLens-Compare/pkg/types/common"
)

// Status is the closed lifecycle lattice shared by comparisons and jobs.
// Remote status strings are mapped into this enum at the polling boundary;
// raw strings never reach state-machine logic.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether s is a state the remote service will never leave.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// JobKind identifies which remote pipeline a job runs through.  Each kind
// carries its own polling budget (see internal/config).
type JobKind string

const (
	JobDrawingIngestion     JobKind = "drawing_ingestion"
	JobComparisonGeneration JobKind = "comparison_generation"
	JobChangeAnalysis       JobKind = "change_analysis"
)

// Comparison identifies one overlay computation between two drawing regions.
type Comparison struct {
	ID             common.ID `json:"id"`
	ProjectID      common.ProjectID `json:"project_id,omitempty"`
	Status         Status    `json:"status"`
	SourceBlockRef string    `json:"source_block_ref"`
	TargetBlockRef string    `json:"target_block_ref"`

	// OverlayArtifactRef is the URL of the rendered overlay image.  Set if
	// and only if Status is StatusCompleted.
	OverlayArtifactRef string `json:"overlay_artifact_ref,omitempty"`

	// AlignmentScore is in [0,1]; present only when completed.
	AlignmentScore *float64 `json:"alignment_score,omitempty"`

	common.Timestamped
}

// SubmitRequest is the job-submission payload sent to the remote service.
type SubmitRequest struct {
	SourceBlockRef string `json:"source_block_ref"`
	TargetBlockRef string `json:"target_block_ref"`
}

// SubmitResponse is the job handle returned by the remote service.
type SubmitResponse struct {
	JobID         common.ID `json:"job_id"`
	InitialStatus string    `json:"initial_status"`
}

// JobStatusResponse is one polled observation of a remote job.  Status is
// the raw remote string; the poller maps it into the closed lattice.
type JobStatusResponse struct {
	JobID       common.ID `json:"job_id"`
	Status      string    `json:"status"`
	ArtifactRef string    `json:"artifact_ref,omitempty"`
	Score       *float64  `json:"score,omitempty"`
	ProgressPct *float64  `json:"progress_pct,omitempty"`
}

// PointPair is one of the exactly three correspondences required for a
// manual registration.  Coordinates are in normalized [0,1000] space.
type PointPair struct {
	Index  int          `json:"index"` // 1..3
	Source common.Point `json:"source"`
	Target common.Point `json:"target"`
}

// AlignmentSubmission carries an operator's point picks to the remote
// service, which re-derives and confirms the transform; the locally
// estimated preview is advisory only.
type AlignmentSubmission struct {
	ComparisonID common.ID      `json:"comparison_id"`
	SourcePoints []common.Point `json:"source_points"`
	TargetPoints []common.Point `json:"target_points"`
}

// AlignmentConfirmation is the remote service's response to an alignment
// submission.
type AlignmentConfirmation struct {
	Scale       float64 `json:"scale"`
	RotationDeg float64 `json:"rotation_deg"`
}
