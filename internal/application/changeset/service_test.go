package changeset

import (
	"context"
	"testing"

	"github.com/planlens/PlanLens-Compare/pkg/types/change"
	"github.com/planlens/PlanLens-Compare/pkg/types/common"
)

// memCache is a map-backed SnapshotCache.
type memCache struct {
	entries     map[string][]byte
	invalidated []common.ID
	loads       int
}

func newMemCache() *memCache { return &memCache{entries: map[string][]byte{}} }

func (c *memCache) GetOrSet(ctx context.Context, key string, load func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if b, ok := c.entries[key]; ok {
		return b, nil
	}
	c.loads++
	b, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.entries[key] = b
	return b, nil
}

func (c *memCache) Invalidate(_ context.Context, comparisonID common.ID) error {
	c.invalidated = append(c.invalidated, comparisonID)
	c.entries = map[string][]byte{}
	return nil
}

func boundsRec(id string, bounds *common.Rect) change.Record {
	r := rec(id, "added", "open")
	r.Bounds = bounds
	return r
}

func TestListPositionsRecords(t *testing.T) {
	store := &fakeStore{analysis: []change.Record{
		boundsRec("1", &common.Rect{XMin: 480, YMin: 490, XMax: 520, YMax: 510}),
		boundsRec("2", nil),
	}}
	svc := NewService(NewAggregator(store, nil), store, nil, nil)

	view, err := svc.List(context.Background(), "cmp_1", Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(view) != 2 {
		t.Fatalf("len = %d", len(view))
	}
	if view[0].GridRef != "M49-N51" {
		t.Errorf("GridRef = %q, want M49-N51", view[0].GridRef)
	}
	if view[1].GridRef != "N/A" {
		t.Errorf("unlocated GridRef = %q, want N/A", view[1].GridRef)
	}
	if view[1].Position.Top < 5 || view[1].Position.Top > 95 {
		t.Errorf("fallback position out of band: %+v", view[1].Position)
	}
}

func TestListUnitScaleBoundsGetGridRef(t *testing.T) {
	store := &fakeStore{analysis: []change.Record{
		boundsRec("1", &common.Rect{XMin: 0.49, YMin: 0.49, XMax: 0.51, YMax: 0.51}),
	}}
	svc := NewService(NewAggregator(store, nil), store, nil, nil)

	view, err := svc.List(context.Background(), "cmp_1", Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if view[0].GridRef == "A1" || view[0].GridRef == "N/A" {
		t.Errorf("unit-scale bounds collapsed to %q; scale detection missing", view[0].GridRef)
	}
	// The record itself must still carry the raw unit-scale bounds.
	if view[0].Bounds.XMax != 0.51 {
		t.Errorf("record bounds were rescaled: %+v", view[0].Bounds)
	}
}

func TestListUsesCachePerFilter(t *testing.T) {
	store := &fakeStore{analysis: []change.Record{rec("1", "added", "open")}}
	cache := newMemCache()
	svc := NewService(NewAggregator(store, nil), store, cache, nil)

	ctx := context.Background()
	if _, err := svc.List(ctx, "cmp_1", Filter{}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, err := svc.List(ctx, "cmp_1", Filter{}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if cache.loads != 1 {
		t.Errorf("loads = %d, want 1 (second identical listing must hit cache)", cache.loads)
	}

	f := Filter{Statuses: []change.Status{change.StatusOpen}}
	if _, err := svc.List(ctx, "cmp_1", f); err != nil {
		t.Fatalf("List: %v", err)
	}
	if cache.loads != 2 {
		t.Errorf("loads = %d, want 2 (different filter must miss)", cache.loads)
	}
}

func TestUpdateInvalidatesCache(t *testing.T) {
	store := &fakeStore{analysis: []change.Record{rec("1", "added", "open")}}
	cache := newMemCache()
	svc := NewService(NewAggregator(store, nil), store, cache, nil)

	ctx := context.Background()
	if _, err := svc.List(ctx, "cmp_1", Filter{}); err != nil {
		t.Fatalf("List: %v", err)
	}

	st := change.StatusClosed
	if _, err := svc.Update(ctx, "cmp_1", "1", change.Update{Status: &st}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != "cmp_1" {
		t.Errorf("invalidations = %v", cache.invalidated)
	}
	if len(store.updated) != 1 || store.updated[0] != "1" {
		t.Errorf("remote updates = %v", store.updated)
	}

	// The next listing must re-fetch rather than serve the stale view.
	if _, err := svc.List(ctx, "cmp_1", Filter{}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if cache.loads != 2 {
		t.Errorf("loads = %d, want 2 after invalidation", cache.loads)
	}
}

func TestCreateInvalidatesCache(t *testing.T) {
	store := &fakeStore{}
	cache := newMemCache()
	svc := NewService(NewAggregator(store, nil), store, cache, nil)

	created, err := svc.Create(context.Background(), change.CreateRequest{
		ComparisonID: "cmp_1",
		Kind:         change.KindAdded,
		Title:        "Added receptacle at grid E5",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Error("created record has no ID")
	}
	if len(cache.invalidated) != 1 {
		t.Errorf("invalidations = %v", cache.invalidated)
	}
}
