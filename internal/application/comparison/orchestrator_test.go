package comparison

import (
	"context"
	"testing"
	"time"

	"github.com/planlens/PlanLens-Compare/internal/application/alignment"
	"github.com/planlens/PlanLens-Compare/internal/application/changeset"
	"github.com/planlens/PlanLens-Compare/internal/application/polling"
	"github.com/planlens/PlanLens-Compare/internal/config"
	"github.com/planlens/PlanLens-Compare/pkg/errors"
	"github.com/planlens/PlanLens-Compare/pkg/types/change"
	"github.com/planlens/PlanLens-Compare/pkg/types/common"
	"github.com/planlens/PlanLens-Compare/pkg/types/comparison"
)

// fakeRemote scripts the full RemoteService surface.
type fakeRemote struct {
	comparisons map[common.ID]*comparison.Comparison
	statuses    map[common.ID][]comparison.JobStatusResponse
	statusCalls map[common.ID]int

	analysis  []change.Record
	persisted []change.Record

	submitted   []comparison.SubmitRequest
	alignments  []comparison.AlignmentSubmission
	ingested    []string
	analysisIDs []common.ID
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
		return nil, errors.NotFound("no such comparison")
	}
	return cmp, nil
}

func (f *fakeRemote) SubmitAlignment(_ context.Context, sub comparison.AlignmentSubmission) (*comparison.AlignmentConfirmation, error) {
	f.alignments = append(f.alignments, sub)
	return &comparison.AlignmentConfirmation{Scale: 1.5, RotationDeg: 90}, nil
}

func (f *fakeRemote) StartAnalysis(_ context.Context, id common.ID) (*comparison.SubmitResponse, error) {
	f.analysisIDs = append(f.analysisIDs, id)
	return &comparison.SubmitResponse{JobID: "job_an", InitialStatus: "pending"}, nil
}

func (f *fakeRemote) StartIngestion(_ context.Context, ref string) (*comparison.SubmitResponse, error) {
	f.ingested = append(f.ingested, ref)
	return &comparison.SubmitResponse{JobID: "job_ing", InitialStatus: "pending"}, nil
}

func (f *fakeRemote) FetchAnalysis(_ context.Context, _ common.ID) ([]change.Record, error) {
	return f.analysis, nil
}

func (f *fakeRemote) FetchPersisted(_ context.Context, _ common.ID) ([]change.Record, error) {
	return f.persisted, nil
}

func (f *fakeRemote) Update(_ context.Context, id common.ID, _ change.Update) (*change.Record, error) {
	return &change.Record{ID: id}, nil
}

func (f *fakeRemote) Create(_ context.Context, req change.CreateRequest) (*change.Record, error) {
	return &change.Record{ID: "chg_new", Title: req.Title}, nil
}

type capturingPublisher struct {
	events []StatusEvent
}

func (p *capturingPublisher) PublishStatus(_ context.Context, ev StatusEvent) error {
	p.events = append(p.events, ev)
	return nil
}

func testPollerCfg() config.PollingConfig {
	b := config.JobBudget{PollInterval: time.Millisecond, MaxAttempts: 20}
	return config.PollingConfig{
		ComparisonGeneration:        b,
		ChangeAnalysis:              b,
		DrawingIngestion:            b,
		MaxConsecutiveFetchFailures: 3,
	}
}

func newOrchestrator(t *testing.T, remote *fakeRemote, pub StatusPublisher) *Orchestrator {
	t.Helper()
	poller, err := polling.NewPoller(testPollerCfg(), remote, nil)
	if err != nil {
		t.Fatalf("NewPoller: %v", err)
	}
	est := alignment.NewEstimator(alignment.Config{}, nil)
	changes := changeset.NewService(changeset.NewAggregator(remote, nil), remote, nil, nil)
	return NewOrchestrator(remote, poller, est, changes, pub, nil)
}

func score(v float64) *float64 { return &v }

func TestGenerateHappyPath(t *testing.T) {
	remote := newFakeRemote()
	remote.statuses["cmp_1"] = []comparison.JobStatusResponse{
		{Status: "processing"},
		{Status: "completed", ArtifactRef: "https://cdn/overlay.png"},
	}
	remote.comparisons["cmp_1"] = &comparison.Comparison{
		ID:                 "cmp_1",
		Status:             comparison.StatusCompleted,
		OverlayArtifactRef: "https://cdn/overlay.png",
		AlignmentScore:     score(0.92),
	}
	pub := &capturingPublisher{}
	o := newOrchestrator(t, remote, pub)

	cmp, err := o.Generate(context.Background(), comparison.SubmitRequest{
		SourceBlockRef: "blk_a", TargetBlockRef: "blk_b",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if cmp.OverlayArtifactRef != "https://cdn/overlay.png" {
		t.Errorf("artifact = %q", cmp.OverlayArtifactRef)
	}
	if len(pub.events) != 2 ||
		pub.events[0].Phase != polling.PhaseSubmitted ||
		pub.events[1].Phase != polling.PhaseCompleted {
		t.Errorf("events = %+v", pub.events)
	}
}

func TestSubmitRejectsMissingRefs(t *testing.T) {
	o := newOrchestrator(t, newFakeRemote(), nil)
	_, err := o.Submit(context.Background(), comparison.SubmitRequest{SourceBlockRef: "blk_a"})
	if !errors.IsCode(err, errors.ErrCodeBadRequest) {
		t.Fatalf("got %v, want bad request", err)
	}
}

func TestGenerateSurfacesJobFailure(t *testing.T) {
	remote := newFakeRemote()
	remote.statuses["cmp_1"] = []comparison.JobStatusResponse{{Status: "failed"}}
	pub := &capturingPublisher{}
	o := newOrchestrator(t, remote, pub)

	_, err := o.Generate(context.Background(), comparison.SubmitRequest{
		SourceBlockRef: "blk_a", TargetBlockRef: "blk_b",
	})
	if !errors.IsCode(err, errors.ErrCodeJobFailed) {
		t.Fatalf("got %v, want JOB_001", err)
	}
	last := pub.events[len(pub.events)-1]
	if last.Phase != polling.PhaseFailed {
		t.Errorf("final event phase = %s", last.Phase)
	}
}

func TestGetMapsNotFound(t *testing.T) {
	o := newOrchestrator(t, newFakeRemote(), nil)
	_, err := o.Get(context.Background(), "cmp_missing")
	if !errors.IsCode(err, errors.ErrCodeComparisonNotFound) {
		t.Fatalf("got %v, want CMP_001", err)
	}
}

func alignedPairs() []comparison.PointPair {
	return []comparison.PointPair{
		{Index: 1, Source: common.Point{X: 100, Y: 100}, Target: common.Point{X: -140, Y: 170}},
		{Index: 2, Source: common.Point{X: 900, Y: 100}, Target: common.Point{X: -140, Y: 1370}},
		{Index: 3, Source: common.Point{X: 500, Y: 900}, Target: common.Point{X: -1340, Y: 770}},
	}
}

func TestRealignHappyPath(t *testing.T) {
	remote := newFakeRemote()
	remote.comparisons["cmp_1"] = &comparison.Comparison{
		ID:                 "cmp_1",
		Status:             comparison.StatusCompleted,
		OverlayArtifactRef: "https://cdn/re-rendered.png",
		AlignmentScore:     score(0.97),
	}
	o := newOrchestrator(t, remote, nil)

	res, err := o.Realign(context.Background(), "cmp_1", alignedPairs())
	if err != nil {
		t.Fatalf("Realign: %v", err)
	}
	if res.Preview.Scale < 1.49 || res.Preview.Scale > 1.51 {
		t.Errorf("preview scale = %g", res.Preview.Scale)
	}
	if res.Confirmed.RotationDeg != 90 {
		t.Errorf("confirmed rotation = %g", res.Confirmed.RotationDeg)
	}
	if len(remote.alignments) != 1 {
		t.Fatalf("alignments submitted = %d", len(remote.alignments))
	}
	if len(remote.alignments[0].SourcePoints) != 3 {
		t.Errorf("source points = %d", len(remote.alignments[0].SourcePoints))
	}
}

func TestRealignDegeneratePickNeverReachesRemote(t *testing.T) {
	remote := newFakeRemote()
	o := newOrchestrator(t, remote, nil)

	pairs := alignedPairs()
	pairs[1].Source = pairs[0].Source // coincident pick
	_, err := o.Realign(context.Background(), "cmp_1", pairs)
	if !errors.IsCode(err, errors.ErrCodeCoincidentPoints) {
		t.Fatalf("got %v, want ALN_003", err)
	}
	if len(remote.alignments) != 0 {
		t.Error("degenerate pick was submitted remotely")
	}
}

func TestAnalyzeRequiresCompletedComparison(t *testing.T) {
	remote := newFakeRemote()
	remote.comparisons["cmp_1"] = &comparison.Comparison{
		ID: "cmp_1", Status: comparison.StatusProcessing,
	}
	o := newOrchestrator(t, remote, nil)

	_, err := o.Analyze(context.Background(), "cmp_1", changeset.Filter{})
	if !errors.IsCode(err, errors.ErrCodeComparisonIncomplete) {
		t.Fatalf("got %v, want CMP_003", err)
	}
	if len(remote.analysisIDs) != 0 {
		t.Error("analysis started on an incomplete comparison")
	}
}

func TestAnalyzeReturnsPositionedChanges(t *testing.T) {
	remote := newFakeRemote()
	remote.comparisons["cmp_1"] = &comparison.Comparison{
		ID:                 "cmp_1",
		Status:             comparison.StatusCompleted,
		OverlayArtifactRef: "https://cdn/o.png",
	}
	remote.statuses["job_an"] = []comparison.JobStatusResponse{
		{Status: "processing"},
		{Status: "completed", ArtifactRef: "https://cdn/analysis.json"},
	}
	remote.analysis = []change.Record{
		{ID: "chg_1", Kind: "added", Status: "open", Title: "New panel"},
	}
	o := newOrchestrator(t, remote, nil)

	view, err := o.Analyze(context.Background(), "cmp_1", changeset.Filter{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(view) != 1 || view[0].ID != "chg_1" {
		t.Fatalf("view = %+v", view)
	}
	if view[0].Origin != change.OriginAIAnalysis {
		t.Errorf("origin = %s", view[0].Origin)
	}
	if view[0].GridRef != "N/A" {
		t.Errorf("unlocated record GridRef = %q", view[0].GridRef)
	}
}

func TestIngestAwaitsCompletion(t *testing.T) {
	remote := newFakeRemote()
	remote.statuses["job_ing"] = []comparison.JobStatusResponse{
		{Status: "queued"},
		{Status: "completed", ArtifactRef: "drawing_123"},
	}
	o := newOrchestrator(t, remote, nil)

	res, err := o.Ingest(context.Background(), "upload/rev-b.pdf")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.ArtifactRef != "drawing_123" {
		t.Errorf("artifact = %q", res.ArtifactRef)
	}
	if len(remote.ingested) != 1 || remote.ingested[0] != "upload/rev-b.pdf" {
		t.Errorf("ingested = %v", remote.ingested)
	}
}
