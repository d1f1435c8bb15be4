package api

import (
	"errors"
	"net/http"

	"github.com/okian/prefight/internal/adapters/export"
	"github.com/okian/prefight/internal/adapters/ingest"
	service "github.com/okian/prefight/internal/app"
	"github.com/okian/prefight/internal/domain/entity"
	"github.com/okian/prefight/internal/domain/features"
)

// FeaturesHandler handles feature build requests.
type FeaturesHandler struct {
	deps FeatureDependencies
}

// NewFeaturesHandler creates a new features handler.
func NewFeaturesHandler(deps FeatureDependencies) *FeaturesHandler {
	return &FeaturesHandler{deps: deps}
}

type featuresResponse struct {
	RunID         string           `json:"run_id"`
	Persist       string           `json:"persist"`
	Mode          string           `json:"mode"`
	Schema        []string         `json:"schema"`
	Rows          []features.Row   `json:"rows"`
	Entities      []entity.Summary `json:"entities"`
	UnknownFields map[string]int   `json:"unknown_fields,omitempty"`
}

// HandlePostFeatures handles POST /v1/features. The body is a JSON array or
// JSON lines of match records in chronological order. ?format=csv returns
// the feature matrix as CSV.
func (h *FeaturesHandler) HandlePostFeatures(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_features"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "csv" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	records, rep, err := h.deps.Decode(r.Context(), r.Body)
	switch {
	case errors.Is(err, service.ErrTooManyRecords):
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrTooLarge, err))
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	b, err := h.deps.Build(r.Context(), records, "http")
	if err != nil {
		switch {
		case isValidationError(err):
			writeError(w, http.StatusUnprocessableEntity, "invalid_input", WrapKind(op, ErrInvalidInput, err))
		case errors.Is(err, service.ErrTooManyRecords):
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrTooLarge, err))
		default:
			writeUpstreamError(w, op, err)
		}
		return
	}

	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("X-Run-Id", b.RunID)
		w.WriteHeader(http.StatusOK)
		_ = export.WriteCSV(w, b.Result)
		return
	}
	writeJSON(w, http.StatusOK, newFeaturesResponse(b, rep))
}

func newFeaturesResponse(b *service.Build, rep ingest.Report) featuresResponse {
	return featuresResponse{
		RunID:         b.RunID,
		Persist:       b.Persist,
		Mode:          b.Result.Mode,
		Schema:        b.Result.Schema,
		Rows:          b.Result.Rows,
		Entities:      b.Result.Entities,
		UnknownFields: rep.Unknown,
	}
}

func isValidationError(err error) bool {
	var recErr *features.RecordError
	return errors.As(err, &recErr) ||
		errors.Is(err, features.ErrOutOfOrder) ||
		errors.Is(err, features.ErrDuplicateRecord) ||
		errors.Is(err, features.ErrInvalidRecord)
}
