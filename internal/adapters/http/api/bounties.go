// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"marque/internal/domain/model"
)

// BountyDependencies defines the interface for bounty list operations.
type BountyDependencies interface {
	Bounties(ctx context.Context, limit int) ([]model.BountyEntry, error)
}

// BountiesHandler handles bounty list requests.
type BountiesHandler struct {
	deps BountyDependencies
}

// NewBountiesHandler creates a new bounties handler.
func NewBountiesHandler(deps BountyDependencies) *BountiesHandler {
	return &BountiesHandler{deps: deps}
}

// HandleGetBounties handles GET /api/v1/bounties?limit=N requests.
func (h *BountiesHandler) HandleGetBounties(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_bounties"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// limit is optional; the service applies its default and cap.
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}
	entries, err := h.deps.Bounties(r.Context(), limit)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
