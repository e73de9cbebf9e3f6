package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/eloladder/internal/api/apierr"
	"github.com/mcoot/eloladder/internal/api/middleware"
	"github.com/mcoot/eloladder/internal/api/request"
	"github.com/mcoot/eloladder/internal/api/response"
	"github.com/mcoot/eloladder/internal/model"
	"github.com/mcoot/eloladder/internal/services/ladder"
)

// PlayerHandler handles player-related endpoints
type PlayerHandler struct {
	engine *ladder.Engine
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(engine *ladder.Engine) *PlayerHandler {
	return &PlayerHandler{
		engine: engine,
	}
}

// Register handles POST /api/v1/players
func (h *PlayerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := request.Decode(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	callerID := middleware.MustGetPlayerID(r.Context())
	standing, err := h.engine.Register(r.Context(), callerID, req.DisplayName)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.StandingFromLadder(*standing))
}

// GetMe handles GET /api/v1/players/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.MustGetPlayerID(r.Context())
	standing, err := h.engine.Inspect(r.Context(), callerID, "")
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.StandingFromLadder(*standing))
}

// Get handles GET /api/v1/players/{id}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.MustGetPlayerID(r.Context())
	targetID := model.PlayerID(mux.Vars(r)["id"])

	standing, err := h.engine.Inspect(r.Context(), callerID, targetID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.StandingFromLadder(*standing))
}
