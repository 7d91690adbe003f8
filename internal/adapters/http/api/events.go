// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"marque/internal/domain/model"
)

// EventDependencies defines the interface for event processing dependencies.
type EventDependencies interface {
	Ingest(ctx context.Context, sub model.EventSubmission) (*model.Event, error)
	Confirm(ctx context.Context, eventID uint64) (*model.Event, error)
}

// EventsHandler handles event requests.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// eventRequest mirrors the JSON body for POST /api/v1/events.
type eventRequest = model.EventSubmission

func validateEventRequest(req eventRequest) error {
	switch {
	case strings.TrimSpace(req.AttackerName) == "":
		return errors.New("missing attacker_name")
	case strings.TrimSpace(req.VictimName) == "":
		return errors.New("missing victim_name")
	case strings.TrimSpace(req.DamageType) == "":
		return errors.New("missing damage_type")
	case strings.TrimSpace(req.Timestamp) == "":
		return errors.New("missing timestamp")
	case req.Coords == nil:
		return errors.New("missing coords")
	}
	return nil
}

// HandlePostEvent handles POST /api/v1/events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validateEventRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	ev, err := h.deps.Ingest(r.Context(), req)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// HandleConfirmEvent handles POST /api/v1/events/{id}/confirm requests.
func (h *EventsHandler) HandleConfirmEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.confirm_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	// Extract path parameters after /api/v1/events/
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/events/")
	idStr, action, ok := strings.Cut(path, "/")
	if !ok || action != "confirm" {
		http.NotFound(w, r)
		return
	}
	eventID, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	ev, err := h.deps.Confirm(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}
