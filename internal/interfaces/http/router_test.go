package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planlens/PlanLens-Compare/internal/application/alignment"
	"github.com/planlens/PlanLens-Compare/internal/application/changeset"
	appcmp "github.com/planlens/PlanLens-Compare/internal/application/comparison"
	"github.com/planlens/PlanLens-Compare/internal/application/polling"
	"github.com/planlens/PlanLens-Compare/internal/config"
	"github.com/planlens/PlanLens-Compare/internal/interfaces/http/handlers"
	"github.com/planlens/PlanLens-Compare/internal/interfaces/http/middleware"
	"github.com/planlens/PlanLens-Compare/pkg/errors"
	"github.com/planlens/PlanLens-Compare/pkg/types/change"
	"github.com/planlens/PlanLens-Compare/pkg/types/common"
	"github.com/planlens/PlanLens-Compare/pkg/types/comparison"
)

const testAPIKey = "pk_test_router"

// fakeRemote scripts both remote ports with fixed data.
type fakeRemote struct {
	comparisons map[common.ID]*comparison.Comparison
	statuses    map[common.ID][]comparison.JobStatusResponse
	statusCalls map[common.ID]int
	persisted   []change.Record
	analysis    []change.Record
	submitted   []comparison.SubmitRequest
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		comparisons: map[common.ID]*comparison.Comparison{},
		statuses:    map[common.ID][]comparison.JobStatusResponse{},
		statusCalls: map[common.ID]int{},
	}
}

func (f *fakeRemote) Submit(_ context.Context, req comparison.SubmitRequest) (*comparison.SubmitResponse, error) {
	f.submitted = append(f.submitted, req)
	return &comparison.SubmitResponse{JobID: "cmp_1", InitialStatus: "pending"}, nil
}

func (f *fakeRemote) FetchStatus(_ context.Context, jobID common.ID) (*comparison.JobStatusResponse, error) {
	seq := f.statuses[jobID]
	i := f.statusCalls[jobID]
	if i >= len(seq) {
		i = len(seq) - 1
	}
	f.statusCalls[jobID]++
	resp := seq[i]
	return &resp, nil
}

func (f *fakeRemote) FetchComparison(_ context.Context, id common.ID) (*comparison.Comparison, error) {
	cmp, ok := f.comparisons[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeComparisonNotFound, "no such comparison")
	}
	return cmp, nil
}

func (f *fakeRemote) SubmitAlignment(_ context.Context, _ comparison.AlignmentSubmission) (*comparison.AlignmentConfirmation, error) {
	return &comparison.AlignmentConfirmation{Scale: 1, RotationDeg: 0}, nil
}

func (f *fakeRemote) StartAnalysis(_ context.Context, _ common.ID) (*comparison.SubmitResponse, error) {
	return &comparison.SubmitResponse{JobID: "job_an", InitialStatus: "pending"}, nil
}

func (f *fakeRemote) StartIngestion(_ context.Context, _ string) (*comparison.SubmitResponse, error) {
	return &comparison.SubmitResponse{JobID: "job_ing", InitialStatus: "pending"}, nil
}

func (f *fakeRemote) FetchAnalysis(_ context.Context, _ common.ID) ([]change.Record, error) {
	return f.analysis, nil
}

func (f *fakeRemote) FetchPersisted(_ context.Context, _ common.ID) ([]change.Record, error) {
	return f.persisted, nil
}

func (f *fakeRemote) Update(_ context.Context, id common.ID, upd change.Update) (*change.Record, error) {
	rec := &change.Record{ID: id, Title: "updated"}
	if upd.Status != nil {
		rec.Status = *upd.Status
	}
	return rec, nil
}

func (f *fakeRemote) Create(_ context.Context, req change.CreateRequest) (*change.Record, error) {
	return &change.Record{ID: "chg_new", ComparisonID: req.ComparisonID, Title: req.Title}, nil
}

func newTestRouter(t *testing.T, remote *fakeRemote, queue handlers.RequestQueue) http.Handler {
	t.Helper()

	budget := config.JobBudget{PollInterval: time.Millisecond, MaxAttempts: 20}
	poller, err := polling.NewPoller(config.PollingConfig{
		ComparisonGeneration:        budget,
		ChangeAnalysis:              budget,
		DrawingIngestion:            budget,
		MaxConsecutiveFetchFailures: 3,
	}, remote, nil)
	require.NoError(t, err)

	est := alignment.NewEstimator(alignment.Config{}, nil)
	changes := changeset.NewService(changeset.NewAggregator(remote, nil), remote, nil, nil)
	orch := appcmp.NewOrchestrator(remote, poller, est, changes, nil, nil)

	return NewRouter(RouterConfig{
		ComparisonHandler: handlers.NewComparisonHandler(orch, queue, nil),
		ChangeHandler:     handlers.NewChangeHandler(changes, nil),
		HealthHandler:     handlers.NewHealthHandler("test", nil),
		AuthMiddleware: middleware.NewAuthMiddleware(middleware.AuthConfig{
			Keys: []string{testAPIKey},
		}, nil),
	})
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-API-Key", testAPIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthzIsPublic(t *testing.T) {
	router := newTestRouter(t, newFakeRemote(), nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[handlers.LivenessResponse](t, rec)
	assert.Equal(t, "alive", body.Status)
}

func TestAPIRequiresKey(t *testing.T) {
	router := newTestRouter(t, newFakeRemote(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/comparisons/cmp_1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitComparison(t *testing.T) {
	router := newTestRouter(t, newFakeRemote(), nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/comparisons",
		comparison.SubmitRequest{SourceBlockRef: "dwg_a#A1", TargetBlockRef: "dwg_b#A1"})

	require.Equal(t, http.StatusAccepted, rec.Code)
	resp := decodeBody[comparison.SubmitResponse](t, rec)
	assert.EqualValues(t, "cmp_1", resp.JobID)
}

func TestSubmitRejectsMissingRefs(t *testing.T) {
	router := newTestRouter(t, newFakeRemote(), nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/comparisons",
		comparison.SubmitRequest{SourceBlockRef: "dwg_a#A1"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[handlers.ErrorBody](t, rec)
	assert.Equal(t, errors.ErrCodeBadRequest.String(), body.Error.Code)
}

func TestGenerateWaitsForCompletion(t *testing.T) {
	remote := newFakeRemote()
	remote.statuses["cmp_1"] = []comparison.JobStatusResponse{
		{JobID: "cmp_1", Status: "processing"},
		{JobID: "cmp_1", Status: "completed", ArtifactRef: "https://cdn/overlay.png"},
	}
	remote.comparisons["cmp_1"] = &comparison.Comparison{
		ID: "cmp_1", Status: comparison.StatusCompleted,
		SourceBlockRef: "a", TargetBlockRef: "b",
		OverlayArtifactRef: "https://cdn/overlay.png",
	}
	router := newTestRouter(t, remote, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/comparisons/generate",
		comparison.SubmitRequest{SourceBlockRef: "a", TargetBlockRef: "b"})

	require.Equal(t, http.StatusOK, rec.Code)
	cmp := decodeBody[comparison.Comparison](t, rec)
	assert.Equal(t, comparison.StatusCompleted, cmp.Status)
	assert.Equal(t, "https://cdn/overlay.png", cmp.OverlayArtifactRef)
}

func TestGetUnknownComparisonIs404(t *testing.T) {
	router := newTestRouter(t, newFakeRemote(), nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/comparisons/cmp_missing", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody[handlers.ErrorBody](t, rec)
	assert.Equal(t, errors.ErrCodeComparisonNotFound.String(), body.Error.Code)
}

func TestRealignRejectsDegeneratePicks(t *testing.T) {
	router := newTestRouter(t, newFakeRemote(), nil)

	// Two coincident source picks.
	pairs := []comparison.PointPair{
		{Index: 1, Source: common.Point{X: 100, Y: 100}, Target: common.Point{X: 110, Y: 100}},
		{Index: 2, Source: common.Point{X: 100, Y: 100}, Target: common.Point{X: 510, Y: 100}},
		{Index: 3, Source: common.Point{X: 500, Y: 900}, Target: common.Point{X: 310, Y: 900}},
	}
	rec := doRequest(t, router, http.MethodPost, "/api/v1/comparisons/cmp_1/alignment",
		handlers.RealignRequest{Pairs: pairs})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[handlers.ErrorBody](t, rec)
	assert.Equal(t, errors.ErrCodeCoincidentPoints.String(), body.Error.Code)
}

func TestListChangesAppliesFilter(t *testing.T) {
	remote := newFakeRemote()
	remote.persisted = []change.Record{
		{ID: "chg_1", ComparisonID: "cmp_1", Title: "Wall moved", Trade: "Structural", Status: change.StatusOpen},
		{ID: "chg_2", ComparisonID: "cmp_1", Title: "Duct rerouted", Trade: "Mechanical", Status: change.StatusClosed},
	}
	router := newTestRouter(t, remote, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/comparisons/cmp_1/changes?trade=structural", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[handlers.ChangeListResponse](t, rec)
	require.Equal(t, 1, body.Count)
	assert.EqualValues(t, "chg_1", body.Changes[0].ID)
}

func TestListChangesStatusFilterMatchesDisplayCasing(t *testing.T) {
	remote := newFakeRemote()
	remote.persisted = []change.Record{
		{ID: "chg_1", ComparisonID: "cmp_1", Title: "Wall moved", Status: change.Status("In Review")},
		{ID: "chg_2", ComparisonID: "cmp_1", Title: "Duct rerouted", Status: change.Status("closed")},
	}
	router := newTestRouter(t, remote, nil)

	// The UI sends display casing; records are stored canonicalized.
	rec := doRequest(t, router, http.MethodGet, "/api/v1/comparisons/cmp_1/changes?status=In%20Review", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[handlers.ChangeListResponse](t, rec)
	require.Equal(t, 1, body.Count)
	assert.EqualValues(t, "chg_1", body.Changes[0].ID)
	assert.Equal(t, change.StatusInReview, body.Changes[0].Status)
}

func TestListChangesRejectsBadCostBound(t *testing.T) {
	router := newTestRouter(t, newFakeRemote(), nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/comparisons/cmp_1/changes?cost_min=abc", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateChange(t *testing.T) {
	router := newTestRouter(t, newFakeRemote(), nil)

	status := change.StatusClosed
	rec := doRequest(t, router, http.MethodPatch, "/api/v1/comparisons/cmp_1/changes/chg_1",
		change.Update{Status: &status})

	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody[change.Record](t, rec)
	assert.Equal(t, change.StatusClosed, updated.Status)
}

func TestCreateChangeRequiresTitle(t *testing.T) {
	router := newTestRouter(t, newFakeRemote(), nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/changes",
		change.CreateRequest{ComparisonID: "cmp_1"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateChange(t *testing.T) {
	router := newTestRouter(t, newFakeRemote(), nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/changes",
		change.CreateRequest{ComparisonID: "cmp_1", Kind: change.KindAdded, Title: "Added door"})

	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[change.Record](t, rec)
	assert.EqualValues(t, "chg_new", created.ID)
}

func TestIngestDrawing(t *testing.T) {
	remote := newFakeRemote()
	remote.statuses["job_ing"] = []comparison.JobStatusResponse{
		{JobID: "job_ing", Status: "completed", ArtifactRef: "sheets://dwg_a"},
	}
	router := newTestRouter(t, remote, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/drawings/ingest",
		handlers.IngestRequest{DrawingRef: "dwg_a"})

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeBody[polling.Result](t, rec)
	assert.Equal(t, "sheets://dwg_a", result.ArtifactRef)
}

// fakeQueue records queued comparison requests.
type fakeQueue struct {
	enqueued [][2]string
	err      error
}

func (q *fakeQueue) Enqueue(_ context.Context, source, target string) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, [2]string{source, target})
	return nil
}

func TestSubmitQueuedHandsOffToWorker(t *testing.T) {
	remote := newFakeRemote()
	queue := &fakeQueue{}
	router := newTestRouter(t, remote, queue)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/comparisons?queue=true",
		comparison.SubmitRequest{SourceBlockRef: "dwg_a#A1", TargetBlockRef: "dwg_b#A1"})

	require.Equal(t, http.StatusAccepted, rec.Code)
	resp := decodeBody[handlers.QueuedResponse](t, rec)
	assert.True(t, resp.Queued)

	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, [2]string{"dwg_a#A1", "dwg_b#A1"}, queue.enqueued[0])
	assert.Empty(t, remote.submitted, "queued submits must not reach the remote service inline")
}

func TestSubmitQueuedRejectsMissingRefs(t *testing.T) {
	queue := &fakeQueue{}
	router := newTestRouter(t, newFakeRemote(), queue)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/comparisons?queue=true",
		comparison.SubmitRequest{SourceBlockRef: "dwg_a#A1"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, queue.enqueued)
}
