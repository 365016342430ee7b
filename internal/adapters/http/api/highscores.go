package api

import (
	"fmt"
	"net/http"
	"strconv"
)

// HighScoresHandler handles high score requests.
type HighScoresHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewHighScoresHandler creates a new high score handler.
func NewHighScoresHandler(deps Dependencies, maxLimit int) *HighScoresHandler {
	if maxLimit < 1 {
		maxLimit = defaultHighScoreLimit
	}
	return &HighScoresHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetHighScores handles GET /highscores?limit=N requests.
func (h *HighScoresHandler) HandleGetHighScores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := min(defaultHighScoreLimit, h.maxLimit)
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest))
			return
		}
		if v > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", fmt.Errorf("%w: limit above %d", ErrBadRequest, h.maxLimit))
			return
		}
		n = v
	}
	entries, err := h.deps.TopN(r.Context(), n)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
