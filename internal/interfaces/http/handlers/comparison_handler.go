package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	appcmp "github.com/planlens/PlanLens-Compare/internal/application/comparison"
	"github.com/planlens/PlanLens-Compare/internal/infrastructure/monitoring/logging"
	"github.com/planlens/PlanLens-Compare/pkg/errors"
	"github.com/planlens/PlanLens-Compare/pkg/types/common"
	"github.com/planlens/PlanLens-Compare/pkg/types/comparison"
)

// RequestQueue hands a comparison request off to the background worker.
// Implemented by the kafka producer; nil disables the queued submit mode.
type RequestQueue interface {
	Enqueue(ctx context.Context, sourceBlockRef, targetBlockRef string) error
}

// ComparisonHandler serves comparison lifecycle endpoints.
type ComparisonHandler struct {
	orch   *appcmp.Orchestrator
	queue  RequestQueue
	logger logging.Logger
}

// NewComparisonHandler creates a ComparisonHandler.  queue may be nil.
func NewComparisonHandler(orch *appcmp.Orchestrator, queue RequestQueue, logger logging.Logger) *ComparisonHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ComparisonHandler{orch: orch, queue: queue, logger: logger.Named("comparison_handler")}
}

// QueuedResponse acknowledges a request handed to the worker.  There is no
// job handle yet; the caller follows the status topic.
type QueuedResponse struct {
	Queued bool `json:"queued"`
}

// Submit handles POST /comparisons.  Fire-and-forget: the job handle comes
// back immediately and the caller tracks it through the status events or a
// later Get.  With ?queue=true the request is handed to the background
// worker instead of being submitted inline.
func (h *ComparisonHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req comparison.SubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	if r.URL.Query().Get("queue") == "true" && h.queue != nil {
		if req.SourceBlockRef == "" || req.TargetBlockRef == "" {
			writeAppError(w, errors.InvalidParam("both source and target block refs are required"))
			return
		}
		if err := h.queue.Enqueue(r.Context(), req.SourceBlockRef, req.TargetBlockRef); err != nil {
			writeAppError(w, err)
			return
		}
		h.logger.Info("comparison request queued",
			logging.String("source", req.SourceBlockRef),
			logging.String("target", req.TargetBlockRef))
		writeJSON(w, http.StatusAccepted, QueuedResponse{Queued: true})
		return
	}

	resp, err := h.orch.Submit(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

// Generate handles POST /comparisons/generate.  Submits and then blocks
// until the overlay is rendered or the polling budget runs out, so the
// response carries the finished comparison.
func (h *ComparisonHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req comparison.SubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	cmp, err := h.orch.Generate(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

// Get handles GET /comparisons/{comparisonID}.
func (h *ComparisonHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := common.ID(chi.URLParam(r, "comparisonID"))
	if id == "" {
		writeAppError(w, errors.InvalidParam("comparison ID is required"))
		return
	}

	cmp, err := h.orch.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

// RealignRequest carries the operator's three point picks.
type RealignRequest struct {
	Pairs []comparison.PointPair `json:"pairs"`
}

// Realign handles POST /comparisons/{comparisonID}/alignment.
func (h *ComparisonHandler) Realign(w http.ResponseWriter, r *http.Request) {
	id := common.ID(chi.URLParam(r, "comparisonID"))
	if id == "" {
		writeAppError(w, errors.InvalidParam("comparison ID is required"))
		return
	}

	var req RealignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	result, err := h.orch.Realign(r.Context(), id, req.Pairs)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Analyze handles POST /comparisons/{comparisonID}/analysis.  Runs AI
// change detection on a completed comparison and returns the resulting
// change snapshot, filtered by the same query parameters as the list
// endpoint.
func (h *ComparisonHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	id := common.ID(chi.URLParam(r, "comparisonID"))
	if id == "" {
		writeAppError(w, errors.InvalidParam("comparison ID is required"))
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		writeAppError(w, err)
		return
	}

	changes, err := h.orch.Analyze(r.Context(), id, filter)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ChangeListResponse{Changes: changes, Count: len(changes)})
}

// IngestRequest names the drawing to run sheet extraction on.
type IngestRequest struct {
	DrawingRef string `json:"drawing_ref"`
}

// Ingest handles POST /drawings/ingest.  Blocks until extraction finishes.
func (h *ComparisonHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	if req.DrawingRef == "" {
		writeAppError(w, errors.InvalidParam("drawing_ref is required"))
		return
	}

	result, err := h.orch.Ingest(r.Context(), req.DrawingRef)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
