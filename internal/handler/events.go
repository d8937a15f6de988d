package handler

import (
	"log/slog"
	"net/http"

	"quix/internal/domain/models"
	"quix/internal/domain/services"
	"quix/internal/httputil"
)

// EventsHandler accepts action batches
type EventsHandler struct {
	bus    services.EventBus
	logger *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(bus services.EventBus, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		bus:    bus,
		logger: logger,
	}
}

// EmitRequest is the body of POST /api/events
type EmitRequest struct {
	Actions []models.Action `json:"actions"`
}

// Emit applies a batch as the authenticated actor and returns the
// committed BatchApplied. Any actorId in the body is overwritten.
func (h *EventsHandler) Emit(w http.ResponseWriter, r *http.Request) {
	var req EmitRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondProblem(w, err)
		return
	}

	actorID := httputil.Actor(r.Context())
	for i := range req.Actions {
		req.Actions[i].ActorID = actorID
	}

	applied, err := h.bus.Emit(r.Context(), actorID, req.Actions)
	if err != nil {
		httputil.RespondProblem(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, applied)
}
