package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/planlens/PlanLens-Compare/internal/application/changeset"
	domainchange "github.com/planlens/PlanLens-Compare/internal/domain/change"
	"github.com/planlens/PlanLens-Compare/internal/infrastructure/monitoring/logging"
	"github.com/planlens/PlanLens-Compare/pkg/errors"
	"github.com/planlens/PlanLens-Compare/pkg/types/change"
	"github.com/planlens/PlanLens-Compare/pkg/types/common"
)

// ChangeHandler serves change-record endpoints.
type ChangeHandler struct {
	changes *changeset.Service
	logger  logging.Logger
}

// NewChangeHandler creates a ChangeHandler.
func NewChangeHandler(changes *changeset.Service, logger logging.Logger) *ChangeHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ChangeHandler{changes: changes, logger: logger.Named("change_handler")}
}

// ChangeListResponse is the list/analysis response body.
type ChangeListResponse struct {
	Changes []changeset.Positioned `json:"changes"`
	Count   int                    `json:"count"`
}

// List handles GET /comparisons/{comparisonID}/changes.
//
// Filter query parameters: status, trade, discipline (comma-separated,
// disjunctive within a field, conjunctive across fields) and cost_min /
// cost_max numeric bounds.
func (h *ChangeHandler) List(w http.ResponseWriter, r *http.Request) {
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

	recs, err := h.changes.List(r.Context(), id, filter)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ChangeListResponse{Changes: recs, Count: len(recs)})
}

// Update handles PATCH /comparisons/{comparisonID}/changes/{changeID}.
func (h *ChangeHandler) Update(w http.ResponseWriter, r *http.Request) {
	comparisonID := common.ID(chi.URLParam(r, "comparisonID"))
	changeID := common.ID(chi.URLParam(r, "changeID"))
	if comparisonID == "" || changeID == "" {
		writeAppError(w, errors.InvalidParam("comparison ID and change ID are required"))
		return
	}

	var upd change.Update
	if err := decodeJSON(r, &upd); err != nil {
		writeAppError(w, err)
		return
	}

	rec, err := h.changes.Update(r.Context(), comparisonID, changeID, upd)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Create handles POST /changes: a manually logged change record.
func (h *ChangeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req change.CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}
	if req.ComparisonID == "" {
		writeAppError(w, errors.InvalidParam("comparison_id is required"))
		return
	}
	if req.Title == "" {
		writeAppError(w, errors.InvalidParam("title is required"))
		return
	}

	rec, err := h.changes.Create(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// parseFilter builds a changeset filter from list query parameters.
func parseFilter(r *http.Request) (changeset.Filter, error) {
	q := r.URL.Query()
	var f changeset.Filter

	// Records are canonicalized at the ingest boundary, so the query values
	// go through the same mapping: "In Review" and "in_review" filter alike.
	for _, s := range splitCSV(q.Get("status")) {
		f.Statuses = append(f.Statuses, domainchange.CanonicalStatus(s))
	}
	f.Trades = splitCSV(q.Get("trade"))
	f.Disciplines = splitCSV(q.Get("discipline"))

	var err error
	if f.CostMin, err = parseFloatParam(q.Get("cost_min"), "cost_min"); err != nil {
		return changeset.Filter{}, err
	}
	if f.CostMax, err = parseFloatParam(q.Get("cost_max"), "cost_max"); err != nil {
		return changeset.Filter{}, err
	}
	return f, nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFloatParam(s, name string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.InvalidParam(name + " must be a number")
	}
	return &v, nil
}
