// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/motionparty/internal/adapters/repository"
	service "github.com/okian/motionparty/internal/app"
	"github.com/okian/motionparty/internal/config"
	"github.com/okian/motionparty/internal/domain/round"
)

const defaultHighScoreLimit = 10

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	View(ctx context.Context) (service.View, error)
	Catalog(ctx context.Context) (service.Catalog, error)
	TopN(ctx context.Context, n int) ([]Entry, error)

	StartRound(ctx context.Context) error
	Reset(ctx context.Context) error
	Select(ctx context.Context, mode, name string) error
}

// Entry mirrors the read shape returned by high score queries.
type Entry = repository.Entry

// Server wires HTTP routes for the game API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	gameHandler       *GameHandler
	highScoresHandler *HighScoresHandler
}

// NewServer creates a new API server with all handlers. maxLimit caps
// GET /highscores?limit.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		gameHandler:       NewGameHandler(deps),
		highScoresHandler: NewHighScoresHandler(deps, maxLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/status", MetricsMiddleware(s.gameHandler.HandleStatus, "status"))
	mux.HandleFunc("/library", MetricsMiddleware(s.gameHandler.HandleLibrary, "library"))
	mux.HandleFunc("/round/start", MetricsMiddleware(s.gameHandler.HandleStart, "round_start"))
	mux.HandleFunc("/round/reset", MetricsMiddleware(s.gameHandler.HandleReset, "round_reset"))
	mux.HandleFunc("/round/select", MetricsMiddleware(s.gameHandler.HandleSelect, "round_select"))
	mux.HandleFunc("/highscores", MetricsMiddleware(s.highScoresHandler.HandleGetHighScores, "highscores"))
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

// writeServiceError maps service sentinels to status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_started", err)
	case errors.Is(err, round.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err)
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
