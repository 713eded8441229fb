package change

import (
	"context"

	"github.com/planlens/PlanLens-Compare/pkg/types/change"
	"github.com/planlens/PlanLens-Compare/pkg/types/common"
)

// RemoteStore is the boundary to the remote service's change endpoints.
// Implemented by internal/infrastructure/remote.
type RemoteStore interface {
	// FetchAnalysis reads the AI analysis summary for a comparison.  An
	// empty slice means no analysis has run (or it found nothing); the
	// aggregator falls back to persisted records in that case.
	FetchAnalysis(ctx context.Context, comparisonID common.ID) ([]change.Record, error)

	// FetchPersisted reads the manually curated change records.
	FetchPersisted(ctx context.Context, comparisonID common.ID) ([]change.Record, error)

	// Update applies a partial mutation remotely and returns the updated
	// record.  Callers must follow every update with a fresh fetch and
	// re-aggregation rather than patching local state.
	Update(ctx context.Context, changeID common.ID, upd change.Update) (*change.Record, error)

	// Create stores a manually entered change record.
	Create(ctx context.Context, req change.CreateRequest) (*change.Record, error)
}
