// Package comparison orchestrates the comparison lifecycle end to end:
// submission to the remote service, bounded polling, artifact retrieval,
// manual realignment, and change analysis.
package comparison

import (
	"context"
	"time"

	"github.com/planlens/PlanLens-Compare/internal/application/alignment"
	"github.com/planlens/PlanLens-Compare/internal/application/changeset"
	"github.com/planlens/PlanLens-Compare/internal/application/polling"
	domaincmp "github.com/planlens/PlanLens-Compare/internal/domain/comparison"
	"github.com/planlens/PlanLens-Compare/internal/infrastructure/monitoring/logging"
	"github.com/planlens/PlanLens-Compare/pkg/errors"
	"github.com/planlens/PlanLens-Compare/pkg/types/common"
	"github.com/planlens/PlanLens-Compare/pkg/types/comparison"
)

// StatusEvent is published on the event bus at comparison lifecycle edges so
// other dashboard instances can refresh without polling this service.
type StatusEvent struct {
	ComparisonID common.ID          `json:"comparison_id,omitempty"`
	JobID        common.ID          `json:"job_id"`
	Kind         comparison.JobKind `json:"kind"`
	Phase        polling.Phase      `json:"phase"`
	At           time.Time          `json:"at"`
}

// StatusPublisher pushes lifecycle events to the bus.  Implemented by
// internal/infrastructure/messaging/kafka; nil disables publishing.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, ev StatusEvent) error
}

// RealignResult bundles everything a realignment produces: the local
// advisory preview, the remote service's authoritative confirmation, and the
// re-fetched comparison with the re-rendered overlay.
type RealignResult struct {
	Preview   *alignment.Result                `json:"preview"`
	Confirmed comparison.AlignmentConfirmation `json:"confirmed"`
	Updated   *comparison.Comparison           `json:"updated"`
}

// Orchestrator is the comparison application service.
type Orchestrator struct {
	remote    domaincmp.RemoteService
	poller    *polling.Poller
	estimator *alignment.Estimator
	changes   *changeset.Service
	publisher StatusPublisher
	logger    logging.Logger
}

// NewOrchestrator constructs an Orchestrator.  publisher may be nil.
func NewOrchestrator(
	remote domaincmp.RemoteService,
	poller *polling.Poller,
	estimator *alignment.Estimator,
	changes *changeset.Service,
	publisher StatusPublisher,
	log logging.Logger,
) *Orchestrator {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Orchestrator{
		remote:    remote,
		poller:    poller,
		estimator: estimator,
		changes:   changes,
		publisher: publisher,
		logger:    log.Named("comparison"),
	}
}

// Submit starts a comparison-generation job without waiting for it.  Callers
// follow up with Await or poll Get themselves.
func (o *Orchestrator) Submit(ctx context.Context, req comparison.SubmitRequest) (*comparison.SubmitResponse, error) {
	if req.SourceBlockRef == "" || req.TargetBlockRef == "" {
		return nil, errors.InvalidParam("both source and target block refs are required")
	}
	resp, err := o.remote.Submit(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSubmitFailed, "submitting comparison")
	}
	o.logger.Info("comparison submitted",
		logging.String("job_id", string(resp.JobID)),
		logging.String("source", req.SourceBlockRef),
		logging.String("target", req.TargetBlockRef))
	o.publish(ctx, StatusEvent{
		JobID: resp.JobID,
		Kind:  comparison.JobComparisonGeneration,
		Phase: polling.PhaseSubmitted,
	})
	return resp, nil
}

// Generate runs the full happy path: submit, await the render, and return
// the completed comparison with its overlay artifact and alignment score.
func (o *Orchestrator) Generate(ctx context.Context, req comparison.SubmitRequest) (*comparison.Comparison, error) {
	resp, err := o.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := o.poller.Await(ctx, comparison.JobComparisonGeneration, resp.JobID)
	if err != nil {
		o.publishOutcome(ctx, resp.JobID, comparison.JobComparisonGeneration, err)
		return nil, err
	}
	o.publish(ctx, StatusEvent{
		JobID: res.JobID,
		Kind:  comparison.JobComparisonGeneration,
		Phase: polling.PhaseCompleted,
	})
	// Generation jobs use the comparison ID as their job handle.
	return o.Get(ctx, res.JobID)
}

// Get fetches and validates a comparison.
func (o *Orchestrator) Get(ctx context.Context, id common.ID) (*comparison.Comparison, error) {
	cmp, err := o.remote.FetchComparison(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.New(errors.ErrCodeComparisonNotFound, "comparison not found").
				WithDetail(string(id))
		}
		return nil, errors.Wrap(err, errors.ErrCodeRemoteService, "fetching comparison")
	}
	if err := domaincmp.ValidateComparison(cmp); err != nil {
		// A malformed upstream entity is surfaced, not silently repaired.
		return nil, err
	}
	return cmp, nil
}

// Realign validates the operator's three point pairs, computes the local
// preview transform, and submits the picks for authoritative confirmation
// and re-render.  A degenerate pick fails before anything reaches the
// remote service.
func (o *Orchestrator) Realign(ctx context.Context, comparisonID common.ID, pairs []comparison.PointPair) (*RealignResult, error) {
	if err := domaincmp.ValidatePointPairs(pairs); err != nil {
		return nil, err
	}
	src, dst := domaincmp.SplitPointPairs(pairs)

	preview, err := o.estimator.Estimate(src, dst)
	if err != nil {
		return nil, err
	}
	if preview.LowConfidence {
		o.logger.Warn("submitting low-confidence registration",
			logging.String("comparison_id", string(comparisonID)),
			logging.Float64("residual", preview.Residual))
	}

	confirmed, err := o.remote.SubmitAlignment(ctx, comparison.AlignmentSubmission{
		ComparisonID: comparisonID,
		SourcePoints: src,
		TargetPoints: dst,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRemoteService, "submitting alignment")
	}

	updated, err := o.Get(ctx, comparisonID)
	if err != nil {
		return nil, err
	}
	return &RealignResult{Preview: preview, Confirmed: *confirmed, Updated: updated}, nil
}

// Analyze starts AI change detection on a completed comparison, awaits it,
// and returns the fresh filtered change view.  Analysis of an incomplete
// comparison is refused: there is no overlay to detect changes against yet.
func (o *Orchestrator) Analyze(ctx context.Context, comparisonID common.ID, filter changeset.Filter) ([]changeset.Positioned, error) {
	cmp, err := o.Get(ctx, comparisonID)
	if err != nil {
		return nil, err
	}
	if cmp.Status != comparison.StatusCompleted {
		return nil, errors.New(errors.ErrCodeComparisonIncomplete,
			"change analysis requires a completed comparison").
			WithDetail(string(comparisonID))
	}

	resp, err := o.remote.StartAnalysis(ctx, comparisonID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSubmitFailed, "starting change analysis")
	}
	if _, err := o.poller.Await(ctx, comparison.JobChangeAnalysis, resp.JobID); err != nil {
		o.publishOutcome(ctx, resp.JobID, comparison.JobChangeAnalysis, err)
		return nil, err
	}
	o.publish(ctx, StatusEvent{
		ComparisonID: comparisonID,
		JobID:        resp.JobID,
		Kind:         comparison.JobChangeAnalysis,
		Phase:        polling.PhaseCompleted,
	})
	return o.changes.List(ctx, comparisonID, filter)
}

// Ingest starts a drawing-ingestion job and awaits its completion.
func (o *Orchestrator) Ingest(ctx context.Context, drawingRef string) (*polling.Result, error) {
	if drawingRef == "" {
		return nil, errors.InvalidParam("drawing ref is required")
	}
	resp, err := o.remote.StartIngestion(ctx, drawingRef)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSubmitFailed, "starting drawing ingestion")
	}
	res, err := o.poller.Await(ctx, comparison.JobDrawingIngestion, resp.JobID)
	if err != nil {
		o.publishOutcome(ctx, resp.JobID, comparison.JobDrawingIngestion, err)
		return nil, err
	}
	return res, nil
}

func (o *Orchestrator) publish(ctx context.Context, ev StatusEvent) {
	if o.publisher == nil {
		return
	}
	ev.At = time.Now().UTC()
	if err := o.publisher.PublishStatus(ctx, ev); err != nil {
		// The bus is advisory; losing an event never fails the operation.
		o.logger.Warn("status event publish failed",
			logging.String("job_id", string(ev.JobID)), logging.Err(err))
	}
}

func (o *Orchestrator) publishOutcome(ctx context.Context, jobID common.ID, kind comparison.JobKind, err error) {
	phase := polling.PhaseFailed
	switch {
	case errors.IsCode(err, errors.ErrCodeJobTimedOut):
		phase = polling.PhaseTimedOut
	case errors.IsCode(err, errors.ErrCodePollingUnreachable):
		phase = polling.PhaseUnreachable
	case errors.IsCode(err, errors.ErrCodeJobCancelled):
		phase = polling.PhaseCancelled
	}
	o.publish(ctx, StatusEvent{JobID: jobID, Kind: kind, Phase: phase})
}
