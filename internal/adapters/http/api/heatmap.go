// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// HeatmapDependencies defines the interface for heatmap aggregation.
type HeatmapDependencies interface {
	Heatmap(ctx context.Context) ([]Hotspot, error)
}

// HeatmapHandler handles heatmap requests.
type HeatmapHandler struct {
	deps HeatmapDependencies
}

// NewHeatmapHandler creates a new heatmap handler.
func NewHeatmapHandler(deps HeatmapDependencies) *HeatmapHandler {
	return &HeatmapHandler{deps: deps}
}

type heatmapResponse struct {
	Hotspots []Hotspot `json:"hotspots"`
}

// HandleGetHeatmap handles GET /api/v1/heatmap requests.
func (h *HeatmapHandler) HandleGetHeatmap(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_heatmap"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	hotspots, err := h.deps.Heatmap(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if hotspots == nil {
		hotspots = []Hotspot{}
	}
	writeJSON(w, http.StatusOK, heatmapResponse{Hotspots: hotspots})
}
