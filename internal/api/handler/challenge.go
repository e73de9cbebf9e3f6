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

// ChallengeHandler handles challenge endpoints
type ChallengeHandler struct {
	engine *ladder.Engine
}

// NewChallengeHandler creates a new challenge handler
func NewChallengeHandler(engine *ladder.Engine) *ChallengeHandler {
	return &ChallengeHandler{
		engine: engine,
	}
}

// Create handles POST /api/v1/challenges.
// Responds 201 for a new proposal and 200 when it confirmed the opponent's.
func (h *ChallengeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.ChallengeRequest
	if err := request.Decode(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	if req.OpponentID == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("opponent_id is required"))
		return
	}

	outcome, err := model.ParseOutcome(req.Outcome)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	callerID := middleware.MustGetPlayerID(r.Context())
	result, err := h.engine.Challenge(r.Context(), callerID, model.PlayerID(req.OpponentID), outcome)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if result.Kind == ladder.ResultProposed {
		status = http.StatusCreated
	}
	response.JSON(w, status, response.ChallengeResultFromLadder(result))
}

// Confirm handles POST /api/v1/challenges/{opponent_id}/confirm
func (h *ChallengeHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.MustGetPlayerID(r.Context())
	opponentID := model.PlayerID(mux.Vars(r)["opponent_id"])

	result, err := h.engine.Confirm(r.Context(), callerID, opponentID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ChallengeResultFromLadder(result))
}

// List handles GET /api/v1/challenges
func (h *ChallengeHandler) List(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.MustGetPlayerID(r.Context())

	pending, err := h.engine.Pending(r.Context(), callerID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PendingListFromLadder(pending))
}

// Withdraw handles DELETE /api/v1/challenges/{opponent_id}
func (h *ChallengeHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.MustGetPlayerID(r.Context())
	opponentID := model.PlayerID(mux.Vars(r)["opponent_id"])

	if err := h.engine.Withdraw(r.Context(), callerID, opponentID); err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.NoContent(w)
}
