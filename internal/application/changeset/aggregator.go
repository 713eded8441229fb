// Package changeset merges, filters, and positions change records from the
// two upstream sources: the AI analysis summary and the persisted change log.
package changeset

import (
	"context"

	domainchange "github.com/planlens/PlanLens-Compare/internal/domain/change"
	"github.com/planlens/PlanLens-Compare/internal/infrastructure/monitoring/logging"
	"github.com/planlens/PlanLens-Compare/pkg/errors"
	"github.com/planlens/PlanLens-Compare/pkg/types/change"
	"github.com/planlens/PlanLens-Compare/pkg/types/common"
)

// Aggregator produces the canonical change snapshot for a comparison.
//
// Source precedence is wholesale, not per-record: when the AI analysis
// returns anything at all, the persisted log is not even consulted for the
// snapshot — mixing the two would show duplicate records for every element
// both sources know about.  The persisted log is the fallback for
// comparisons analyzed before the AI pipeline existed, and the write target
// for manual edits.
type Aggregator struct {
	store  domainchange.RemoteStore
	logger logging.Logger
}

// NewAggregator constructs an Aggregator.
func NewAggregator(store domainchange.RemoteStore, log logging.Logger) *Aggregator {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Aggregator{store: store, logger: log.Named("changeset")}
}

// Snapshot fetches and canonicalizes the change records for comparisonID.
// Record order is the upstream order; filtering never reorders, so clearing
// a filter restores exactly this sequence.
func (a *Aggregator) Snapshot(ctx context.Context, comparisonID common.ID) ([]change.Record, error) {
	analysis, err := a.store.FetchAnalysis(ctx, comparisonID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRemoteService,
			"fetching analysis changes").WithDetail(string(comparisonID))
	}
	if len(analysis) > 0 {
		return canonicalizeAll(analysis, change.OriginAIAnalysis), nil
	}

	a.logger.Debug("no analysis records, falling back to persisted log",
		logging.String("comparison_id", string(comparisonID)))

	persisted, err := a.store.FetchPersisted(ctx, comparisonID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRemoteService,
			"fetching persisted changes").WithDetail(string(comparisonID))
	}
	return canonicalizeAll(persisted, change.OriginPersistedAPI), nil
}

func canonicalizeAll(recs []change.Record, origin change.Origin) []change.Record {
	out := make([]change.Record, len(recs))
	for i, r := range recs {
		out[i] = domainchange.Canonicalize(r, origin)
	}
	return out
}
