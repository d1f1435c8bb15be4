// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/prefight/internal/adapters/ingest"
	"github.com/okian/prefight/internal/adapters/repository"
	"github.com/okian/prefight/internal/adapters/storage/featurestore"
	service "github.com/okian/prefight/internal/app"
	"github.com/okian/prefight/internal/domain/model"
	"github.com/okian/prefight/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	FeatureDependencies
	RatingsDependencies
	RunsDependencies
}

// FeatureDependencies builds features from posted records.
type FeatureDependencies interface {
	Decode(ctx context.Context, r io.Reader) ([]model.MatchRecord, ingest.Report, error)
	Build(ctx context.Context, records []model.MatchRecord, source string) (*service.Build, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	featuresHandler *FeaturesHandler
	ratingsHandler  *RatingsHandler
	runsHandler     *RunsHandler
	metricsHandler  http.Handler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		featuresHandler: NewFeaturesHandler(deps),
		ratingsHandler:  NewRatingsHandler(deps, maxLeaderboardLimit),
		runsHandler:     NewRunsHandler(deps),
		metricsHandler:  MetricsHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.metricsHandler)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/v1/features", MetricsMiddleware(s.featuresHandler.HandlePostFeatures, "features"))
	mux.HandleFunc("/v1/ratings", MetricsMiddleware(s.ratingsHandler.HandleGetRatings, "ratings"))
	mux.HandleFunc("/v1/ratings/", MetricsMiddleware(s.ratingsHandler.HandleGetRating, "rating"))
	mux.HandleFunc("/v1/runs", MetricsMiddleware(s.runsHandler.HandleGetRuns, "runs"))
	mux.HandleFunc("/v1/runs/", MetricsMiddleware(s.runsHandler.HandleGetValues, "run_values"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) ||
		errors.Is(err, featurestore.ErrRunNotFound) ||
		errors.Is(err, ErrNotFound)
}

// writeUpstreamError maps service errors onto status codes.
func writeUpstreamError(w http.ResponseWriter, op string, err error) {
	switch {
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, service.ErrPersistenceDisabled):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	case errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
