// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"marque/internal/adapters/repository"
	service "marque/internal/app"
	"marque/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Ingest persists an event submission and returns the stored event.
	Ingest(ctx context.Context, sub model.EventSubmission) (*model.Event, error)

	// Confirm marks an event confirmed.
	Confirm(ctx context.Context, eventID uint64) (*model.Event, error)

	// Read operations expose tracker data.
	Bounties(ctx context.Context, limit int) ([]model.BountyEntry, error)
	PlayerByID(ctx context.Context, id uint64) (*model.Player, []model.PlayerOrganization, error)
	PlayerByName(ctx context.Context, name string) (*model.Player, []model.PlayerOrganization, error)
	Roster(ctx context.Context) ([]string, error)
	Heatmap(ctx context.Context) ([]Hotspot, error)
}

// Hotspot mirrors the read shape returned by heatmap aggregation.
type Hotspot = service.Hotspot

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	eventsHandler   *EventsHandler
	bountiesHandler *BountiesHandler
	playersHandler  *PlayersHandler
	rosterHandler   *RosterHandler
	heatmapHandler  *HeatmapHandler

	clientKey string
	adminKey  string
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithClientKey sets the API key required on write endpoints. Empty
// disables the check.
func WithClientKey(key string) ServerOption {
	return func(s *Server) {
		s.clientKey = key
	}
}

// WithAdminKey sets the API key required on admin endpoints. Empty
// disables the check.
func WithAdminKey(key string) ServerOption {
	return func(s *Server) {
		s.adminKey = key
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		eventsHandler:   NewEventsHandler(deps),
		bountiesHandler: NewBountiesHandler(deps),
		playersHandler:  NewPlayersHandler(deps),
		rosterHandler:   NewRosterHandler(deps),
		heatmapHandler:  NewHeatmapHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/v1/events", MetricsMiddleware(APIKeyMiddleware(s.eventsHandler.HandlePostEvent, s.clientKey, clientKeyHeader), "events"))
	mux.HandleFunc("/api/v1/events/", MetricsMiddleware(APIKeyMiddleware(s.eventsHandler.HandleConfirmEvent, s.adminKey, adminKeyHeader), "events_confirm"))
	mux.HandleFunc("/api/v1/bounties", MetricsMiddleware(s.bountiesHandler.HandleGetBounties, "bounties"))
	mux.HandleFunc("/api/v1/pirates/by-name", MetricsMiddleware(s.playersHandler.HandleGetPlayerByName, "pirates_by_name"))
	mux.HandleFunc("/api/v1/pirates/", MetricsMiddleware(s.playersHandler.HandleGetPlayer, "pirates"))
	mux.HandleFunc("/api/v1/roster", MetricsMiddleware(s.rosterHandler.HandleGetRoster, "roster"))
	mux.HandleFunc("/api/v1/heatmap", MetricsMiddleware(s.heatmapHandler.HandleGetHeatmap, "heatmap"))
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

// writeServiceError translates upstream sentinel errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrInvalidLimit), errors.Is(err, service.ErrInvalidEvent):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
