package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/planlens/PlanLens-Compare/pkg/types/change"
	"github.com/planlens/PlanLens-Compare/pkg/types/comparison"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, "key", WithRetryMax(0))
	if err != nil {
		t.Fatal(err)
	}
	return c, srv
}

func TestComparisonsSubmit(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/comparisons" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var req comparison.SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.SourceBlockRef != "blk_a" {
			t.Errorf("source = %q", req.SourceBlockRef)
		}
		json.NewEncoder(w).Encode(APIResponse[comparison.SubmitResponse]{
			Data: comparison.SubmitResponse{JobID: "cmp_9", InitialStatus: "pending"},
		})
	})

	resp, err := c.Comparisons().Submit(context.Background(), comparison.SubmitRequest{
		SourceBlockRef: "blk_a", TargetBlockRef: "blk_b",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if resp.JobID != "cmp_9" {
		t.Errorf("JobID = %s", resp.JobID)
	}
}

func TestComparisonsGetJobStatus(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/jobs/job_1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(APIResponse[comparison.JobStatusResponse]{
			Data: comparison.JobStatusResponse{JobID: "job_1", Status: "processing"},
		})
	})

	st, err := c.Comparisons().GetJobStatus(context.Background(), "job_1")
	if err != nil {
		t.Fatalf("GetJobStatus: %v", err)
	}
	if st.Status != "processing" {
		t.Errorf("Status = %q", st.Status)
	}
}

func TestComparisonsSubmitAlignmentPath(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/comparisons/cmp_1/alignment" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(APIResponse[comparison.AlignmentConfirmation]{
			Data: comparison.AlignmentConfirmation{Scale: 1.5, RotationDeg: 90},
		})
	})

	conf, err := c.Comparisons().SubmitAlignment(context.Background(), comparison.AlignmentSubmission{
		ComparisonID: "cmp_1",
	})
	if err != nil {
		t.Fatalf("SubmitAlignment: %v", err)
	}
	if conf.Scale != 1.5 || conf.RotationDeg != 90 {
		t.Errorf("conf = %+v", conf)
	}
}

func TestChangesUpdateUsesPatch(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/v1/changes/chg_1" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(APIResponse[change.Record]{
			Data: change.Record{ID: "chg_1", Status: change.StatusClosed},
		})
	})

	st := change.StatusClosed
	rec, err := c.Changes().Update(context.Background(), "chg_1", change.Update{Status: &st})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.Status != change.StatusClosed {
		t.Errorf("Status = %s", rec.Status)
	}
}

func TestDrawingsStartIngestion(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/drawings/ingest" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["drawing_ref"] != "upload/rev-b.pdf" {
			t.Errorf("drawing_ref = %q", req["drawing_ref"])
		}
		json.NewEncoder(w).Encode(APIResponse[comparison.SubmitResponse]{
			Data: comparison.SubmitResponse{JobID: "job_ing"},
		})
	})

	resp, err := c.Drawings().StartIngestion(context.Background(), "upload/rev-b.pdf")
	if err != nil {
		t.Fatalf("StartIngestion: %v", err)
	}
	if resp.JobID != "job_ing" {
		t.Errorf("JobID = %s", resp.JobID)
	}
}
