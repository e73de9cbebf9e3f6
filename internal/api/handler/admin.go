package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/eloladder/internal/api/apierr"
	"github.com/mcoot/eloladder/internal/api/request"
	"github.com/mcoot/eloladder/internal/api/response"
	"github.com/mcoot/eloladder/internal/model"
	"github.com/mcoot/eloladder/internal/services/ladder"
)

// AdminHandler handles administrative endpoints
type AdminHandler struct {
	engine *ladder.Engine
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(engine *ladder.Engine) *AdminHandler {
	return &AdminHandler{
		engine: engine,
	}
}

// SetRating handles PUT /api/v1/admin/players/{id}/rating
func (h *AdminHandler) SetRating(w http.ResponseWriter, r *http.Request) {
	var req request.SetRatingRequest
	if err := request.Decode(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}
	if req.Rating == nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("rating is required"))
		return
	}

	targetID := model.PlayerID(mux.Vars(r)["id"])
	standing, err := h.engine.SetRating(r.Context(), targetID, *req.Rating)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.StandingFromLadder(*standing))
}

// CancelChallenge handles DELETE /api/v1/admin/challenges/{id}
func (h *AdminHandler) CancelChallenge(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("challenge id must be an integer"))
		return
	}

	if err := h.engine.CancelChallenge(r.Context(), model.ChallengeID(id)); err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.NoContent(w)
}
