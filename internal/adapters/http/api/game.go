package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// GameHandler serves round state and round commands.
type GameHandler struct {
	deps Dependencies
}

// NewGameHandler creates a new game handler.
func NewGameHandler(deps Dependencies) *GameHandler {
	return &GameHandler{deps: deps}
}

type ackResponse struct {
	Status string `json:"status"`
}

type selectRequest struct {
	Mode string `json:"mode"`
	Name string `json:"name"`
}

// HandleStatus handles GET /status requests.
func (h *GameHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	v, err := h.deps.View(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleLibrary handles GET /library requests.
func (h *GameHandler) HandleLibrary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	c, err := h.deps.Catalog(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleStart handles POST /round/start requests.
func (h *GameHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.StartRound(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "countdown"})
}

// HandleReset handles POST /round/reset requests.
func (h *GameHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.Reset(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "menu"})
}

// HandleSelect handles POST /round/select requests.
func (h *GameHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeServiceError(w, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Mode) == "" {
		writeServiceError(w, fmt.Errorf("%w: missing mode", ErrBadRequest))
		return
	}
	if err := h.deps.Select(r.Context(), req.Mode, req.Name); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "selected"})
}
