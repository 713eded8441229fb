package changeset

import (
	"context"
	"encoding/json"

	domainchange "github.com/planlens/PlanLens-Compare/internal/domain/change"
	"github.com/planlens/PlanLens-Compare/internal/infrastructure/monitoring/logging"
	"github.com/planlens/PlanLens-Compare/pkg/errors"
	"github.com/planlens/PlanLens-Compare/pkg/types/change"
	"github.com/planlens/PlanLens-Compare/pkg/types/common"
)

// SnapshotCache caches serialized filtered views.  Implemented by
// internal/infrastructure/cache/redis; a nil cache disables caching.
type SnapshotCache interface {
	// GetOrSet returns the cached bytes for key, or runs load, stores the
	// result under key, and returns it.
	GetOrSet(ctx context.Context, key string, load func(ctx context.Context) ([]byte, error)) ([]byte, error)

	// Invalidate drops every cached view for a comparison.
	Invalidate(ctx context.Context, comparisonID common.ID) error
}

// Service is the change-record application service: snapshot listing with
// filters and display coordinates, plus the edit operations.  Every edit
// goes through the remote service and is followed by cache invalidation, so
// the next listing re-fetches rather than patching local state.
type Service struct {
	agg    *Aggregator
	store  domainchange.RemoteStore
	cache  SnapshotCache
	logger logging.Logger
}

// NewService constructs a Service.  cache may be nil.
func NewService(agg *Aggregator, store domainchange.RemoteStore, cache SnapshotCache, log logging.Logger) *Service {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Service{agg: agg, store: store, cache: cache, logger: log.Named("changeset")}
}

// List returns the filtered, positioned change view for a comparison.
// Filtered views are cached per (comparison, filter) pair.
func (s *Service) List(ctx context.Context, comparisonID common.ID, filter Filter) ([]Positioned, error) {
	if s.cache == nil {
		return s.build(ctx, comparisonID, filter)
	}

	key := string(comparisonID) + ":" + filter.Hash()
	raw, err := s.cache.GetOrSet(ctx, key, func(ctx context.Context) ([]byte, error) {
		view, err := s.build(ctx, comparisonID, filter)
		if err != nil {
			return nil, err
		}
		return json.Marshal(view)
	})
	if err != nil {
		return nil, err
	}

	var view []Positioned
	if err := json.Unmarshal(raw, &view); err != nil {
		// A corrupt cache entry must not take the listing down.
		s.logger.Warn("discarding undecodable cached view",
			logging.String("key", key), logging.Err(err))
		return s.build(ctx, comparisonID, filter)
	}
	return view, nil
}

func (s *Service) build(ctx context.Context, comparisonID common.ID, filter Filter) ([]Positioned, error) {
	snapshot, err := s.agg.Snapshot(ctx, comparisonID)
	if err != nil {
		return nil, err
	}
	return Position(filter.Apply(snapshot)), nil
}

// Update applies a partial edit remotely, then invalidates the cached views
// so the next List reflects it.
func (s *Service) Update(ctx context.Context, comparisonID, changeID common.ID, upd change.Update) (*change.Record, error) {
	rec, err := s.store.Update(ctx, changeID, upd)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeChangeUpdateFailed,
			"updating change record").WithDetail(string(changeID))
	}
	s.invalidate(ctx, comparisonID)
	return rec, nil
}

// Create stores a manually entered change record, then invalidates the
// cached views.
func (s *Service) Create(ctx context.Context, req change.CreateRequest) (*change.Record, error) {
	rec, err := s.store.Create(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRemoteService, "creating change record")
	}
	s.invalidate(ctx, req.ComparisonID)
	return rec, nil
}

func (s *Service) invalidate(ctx context.Context, comparisonID common.ID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, comparisonID); err != nil {
		// Stale views age out by TTL; log and move on.
		s.logger.Warn("cache invalidation failed",
			logging.String("comparison_id", string(comparisonID)), logging.Err(err))
	}
}
