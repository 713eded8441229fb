package comparison

import (
	"context"

	"github.com/planlens/PlanLens-Compare/pkg/types/common"
	"github.com/planlens/PlanLens-Compare/pkg/types/comparison"
)

// RemoteService is the boundary to the remote comparison / rendering
// service.  All persistence and heavy computation live behind it; this
// service only submits work and observes results.  Implemented by
// internal/infrastructure/remote.
type RemoteService interface {
	// Submit starts a comparison-generation job for two drawing regions.
	Submit(ctx context.Context, req comparison.SubmitRequest) (*comparison.SubmitResponse, error)

	// FetchStatus reads the current raw status of a job.  The returned
	// status string is unmapped; callers go through MapRemoteStatus.
	FetchStatus(ctx context.Context, jobID common.ID) (*comparison.JobStatusResponse, error)

	// FetchComparison reads the full comparison entity.
	FetchComparison(ctx context.Context, id common.ID) (*comparison.Comparison, error)

	// SubmitAlignment sends operator point picks; the remote service
	// re-derives and confirms the transform, then re-renders the overlay.
	SubmitAlignment(ctx context.Context, sub comparison.AlignmentSubmission) (*comparison.AlignmentConfirmation, error)

	// StartAnalysis starts an AI change-detection job for a completed
	// comparison.
	StartAnalysis(ctx context.Context, comparisonID common.ID) (*comparison.SubmitResponse, error)

	// StartIngestion starts a drawing-ingestion job for an uploaded
	// drawing reference.
	StartIngestion(ctx context.Context, drawingRef string) (*comparison.SubmitResponse, error)
}
