// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"marque/internal/domain/model"
)

// PlayerDependencies defines the interface for player profile reads.
type PlayerDependencies interface {
	PlayerByID(ctx context.Context, id uint64) (*model.Player, []model.PlayerOrganization, error)
	PlayerByName(ctx context.Context, name string) (*model.Player, []model.PlayerOrganization, error)
}

// PlayersHandler handles player profile requests.
type PlayersHandler struct {
	deps PlayerDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayerDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

// playerResponse is a player profile with its org memberships.
type playerResponse struct {
	*model.Player
	Organizations []model.PlayerOrganization `json:"organizations"`
}

// HandleGetPlayer handles GET /api/v1/pirates/{id} requests.
func (h *PlayersHandler) HandleGetPlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_player"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /api/v1/pirates/
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/pirates/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	id, err := strconv.ParseUint(path, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	player, links, err := h.deps.PlayerByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, playerResponse{Player: player, Organizations: links})
}

// HandleGetPlayerByName handles GET /api/v1/pirates/by-name?name=H requests.
func (h *PlayersHandler) HandleGetPlayerByName(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_player_by_name"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	player, links, err := h.deps.PlayerByName(r.Context(), name)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, playerResponse{Player: player, Organizations: links})
}
