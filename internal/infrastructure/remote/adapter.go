// Package remote adapts the comparison-service SDK (pkg/client) to the
// domain ports.  SDK transport errors are translated into coded AppErrors
// here so nothing above this layer ever sees an *client.APIError.
package remote

import (
	"context"
	"fmt"

	"github.com/planlens/PlanLens-Compare/internal/config"
	"github.com/planlens/PlanLens-Compare/internal/infrastructure/monitoring/logging"
	"github.com/planlens/PlanLens-Compare/pkg/client"
	"github.com/planlens/PlanLens-Compare/pkg/errors"
	"github.com/planlens/PlanLens-Compare/pkg/types/change"
	"github.com/planlens/PlanLens-Compare/pkg/types/common"
	"github.com/planlens/PlanLens-Compare/pkg/types/comparison"
)

// Adapter implements both the comparison.RemoteService and the
// change.RemoteStore ports over one SDK client.
type Adapter struct {
	sdk    *client.Client
	logger logging.Logger
}

// sdkLogger bridges the SDK's printf-style logger onto structured logging.
type sdkLogger struct {
	logger logging.Logger
}

func (l sdkLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug("sdk", logging.String("msg", fmt.Sprintf(format, args...)))
}

func (l sdkLogger) Infof(format string, args ...interface{}) {
	l.logger.Info("sdk", logging.String("msg", fmt.Sprintf(format, args...)))
}

func (l sdkLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error("sdk", logging.String("msg", fmt.Sprintf(format, args...)))
}

// New constructs an Adapter from the remote-service configuration.
func New(cfg config.RemoteConfig, log logging.Logger) (*Adapter, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	log = log.Named("remote")

	sdk, err := client.NewClient(cfg.BaseURL, cfg.APIKey,
		client.WithRetryMax(cfg.MaxRetries),
		client.WithRequestTimeout(cfg.Timeout),
		client.WithLogger(sdkLogger{logger: log}),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRemoteService, "building remote client")
	}
	return &Adapter{sdk: sdk, logger: log}, nil
}

// NewWithClient wraps an existing SDK client; used by tests.
func NewWithClient(sdk *client.Client, log logging.Logger) *Adapter {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Adapter{sdk: sdk, logger: log.Named("remote")}
}

// ─────────────────────────────────────────────────────────────────────────────
// comparison.RemoteService
// ─────────────────────────────────────────────────────────────────────────────

func (a *Adapter) Submit(ctx context.Context, req comparison.SubmitRequest) (*comparison.SubmitResponse, error) {
	resp, err := a.sdk.Comparisons().Submit(ctx, req)
	if err != nil {
		return nil, mapError(err, "submitting comparison")
	}
	return resp, nil
}

func (a *Adapter) FetchStatus(ctx context.Context, jobID common.ID) (*comparison.JobStatusResponse, error) {
	resp, err := a.sdk.Comparisons().GetJobStatus(ctx, jobID)
	if err != nil {
		return nil, mapError(err, "fetching job status")
	}
	return resp, nil
}

func (a *Adapter) FetchComparison(ctx context.Context, id common.ID) (*comparison.Comparison, error) {
	resp, err := a.sdk.Comparisons().Get(ctx, id)
	if err != nil {
		return nil, mapError(err, "fetching comparison")
	}
	return resp, nil
}

func (a *Adapter) SubmitAlignment(ctx context.Context, sub comparison.AlignmentSubmission) (*comparison.AlignmentConfirmation, error) {
	resp, err := a.sdk.Comparisons().SubmitAlignment(ctx, sub)
	if err != nil {
		return nil, mapError(err, "submitting alignment")
	}
	return resp, nil
}

func (a *Adapter) StartAnalysis(ctx context.Context, comparisonID common.ID) (*comparison.SubmitResponse, error) {
	resp, err := a.sdk.Comparisons().StartAnalysis(ctx, comparisonID)
	if err != nil {
		return nil, mapError(err, "starting analysis")
	}
	return resp, nil
}

func (a *Adapter) StartIngestion(ctx context.Context, drawingRef string) (*comparison.SubmitResponse, error) {
	resp, err := a.sdk.Drawings().StartIngestion(ctx, drawingRef)
	if err != nil {
		return nil, mapError(err, "starting ingestion")
	}
	return resp, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// change.RemoteStore
// ─────────────────────────────────────────────────────────────────────────────

func (a *Adapter) FetchAnalysis(ctx context.Context, comparisonID common.ID) ([]change.Record, error) {
	recs, err := a.sdk.Changes().ListAnalysis(ctx, comparisonID)
	if err != nil {
		// A 404 here means the analysis endpoint has no summary yet; the
		// aggregator treats that as an empty result, not a failure.
		if apiErr, ok := err.(*client.APIError); ok && apiErr.IsNotFound() {
			return nil, nil
		}
		return nil, mapError(err, "listing analysis changes")
	}
	return recs, nil
}

func (a *Adapter) FetchPersisted(ctx context.Context, comparisonID common.ID) ([]change.Record, error) {
	recs, err := a.sdk.Changes().ListPersisted(ctx, comparisonID)
	if err != nil {
		return nil, mapError(err, "listing persisted changes")
	}
	return recs, nil
}

func (a *Adapter) Update(ctx context.Context, changeID common.ID, upd change.Update) (*change.Record, error) {
	rec, err := a.sdk.Changes().Update(ctx, changeID, upd)
	if err != nil {
		return nil, mapError(err, "updating change")
	}
	return rec, nil
}

func (a *Adapter) Create(ctx context.Context, req change.CreateRequest) (*change.Record, error) {
	rec, err := a.sdk.Changes().Create(ctx, req)
	if err != nil {
		return nil, mapError(err, "creating change")
	}
	return rec, nil
}

// mapError translates SDK errors into coded AppErrors.
func mapError(err error, op string) error {
	apiErr, ok := err.(*client.APIError)
	if !ok {
		return errors.Wrap(err, errors.ErrCodeRemoteService, op)
	}
	switch {
	case apiErr.IsNotFound():
		return errors.Wrap(err, errors.ErrCodeNotFound, op)
	case apiErr.IsUnauthorized():
		return errors.Wrap(err, errors.ErrCodeUnauthorized, op)
	case apiErr.IsRateLimited():
		return errors.Wrap(err, errors.ErrCodeTooManyRequests, op)
	default:
		return errors.Wrap(err, errors.ErrCodeRemoteService, op)
	}
}
