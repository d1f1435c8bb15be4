package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/prefight/internal/adapters/storage/featurestore"
)

// RunsDependencies reads stored runs.
type RunsDependencies interface {
	Runs(ctx context.Context) ([]featurestore.Run, error)
	Values(ctx context.Context, runID, column string) ([]featurestore.ColumnValue, error)
}

// RunsHandler serves stored feature runs.
type RunsHandler struct {
	deps RunsDependencies
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(deps RunsDependencies) *RunsHandler {
	return &RunsHandler{deps: deps}
}

// HandleGetRuns handles GET /v1/runs.
func (h *RunsHandler) HandleGetRuns(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_runs"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	runs, err := h.deps.Runs(r.Context())
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	if runs == nil {
		runs = []featurestore.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// HandleGetValues handles GET /v1/runs/{id}/values?column=NAME.
func (h *RunsHandler) HandleGetValues(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_run_values"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
	runID, tail, ok := strings.Cut(rest, "/")
	if !ok || runID == "" || tail != "values" {
		http.NotFound(w, r)
		return
	}
	column := r.URL.Query().Get("column")
	if column == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	vals, err := h.deps.Values(r.Context(), runID, column)
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	if len(vals) == 0 {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, vals)
}
