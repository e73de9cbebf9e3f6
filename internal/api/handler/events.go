package handler

import (
	"net/http"

	"github.com/mcoot/eloladder/internal/api/apierr"
	"github.com/mcoot/eloladder/internal/api/middleware"
	"github.com/mcoot/eloladder/internal/api/sse"
	"github.com/mcoot/eloladder/internal/services/ladder"
)

// EventsHandler streams challenge events to the caller
type EventsHandler struct {
	engine     *ladder.Engine
	hubManager *sse.HubManager
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(engine *ladder.Engine, hubManager *sse.HubManager) *EventsHandler {
	return &EventsHandler{
		engine:     engine,
		hubManager: hubManager,
	}
}

// Stream handles GET /api/v1/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.MustGetPlayerID(r.Context())

	// Only registered players can be challenged
	if _, err := h.engine.Inspect(r.Context(), callerID, ""); err != nil {
		apierr.WriteError(w, err)
		return
	}

	sse.ServeSSE(w, r, h.hubManager, callerID)
}
