package response

import (
	"time"

	"github.com/mcoot/eloladder/internal/model"
	"github.com/mcoot/eloladder/internal/services/elo"
	"github.com/mcoot/eloladder/internal/services/ladder"
)

// Standing represents a player's rating in API responses.
// Rating is exact; DisplayRating is rounded for presentation.
type Standing struct {
	PlayerID      string  `json:"player_id"`
	DisplayName   string  `json:"display_name"`
	Rating        float64 `json:"rating"`
	DisplayRating int64   `json:"display_rating"`
}

// StandingFromLadder converts a ladder.Standing
func StandingFromLadder(s ladder.Standing) Standing {
	return Standing{
		PlayerID:      string(s.PlayerID),
		DisplayName:   s.Name,
		Rating:        s.Rating,
		DisplayRating: elo.Round(s.Rating),
	}
}

// ChallengeResult is the response for reporting or confirming a result
type ChallengeResult struct {
	Result          string   `json:"result"`
	ChallengeID     int64    `json:"challenge_id"`
	Outcome         string   `json:"outcome"`
	Challenger      Standing `json:"challenger"`
	Opponent        Standing `json:"opponent"`
	ChallengerDelta float64  `json:"challenger_delta"`
	OpponentDelta   float64  `json:"opponent_delta"`
	Winner          string   `json:"winner"`
	Loser           string   `json:"loser"`
}

// ChallengeResultFromLadder converts a ladder.ChallengeResult
func ChallengeResultFromLadder(r *ladder.ChallengeResult) ChallengeResult {
	return ChallengeResult{
		Result:          string(r.Kind),
		ChallengeID:     int64(r.ChallengeID),
		Outcome:         string(r.Outcome),
		Challenger:      StandingFromLadder(r.Challenger),
		Opponent:        StandingFromLadder(r.Opponent),
		ChallengerDelta: r.ChallengerDelta,
		OpponentDelta:   r.OpponentDelta,
		Winner:          string(r.Winner().PlayerID),
		Loser:           string(r.Loser().PlayerID),
	}
}

// PendingChallenge represents an unconfirmed challenge
type PendingChallenge struct {
	ID              int64     `json:"id"`
	ChallengerID    string    `json:"challenger_id"`
	OpponentID      string    `json:"opponent_id"`
	Outcome         string    `json:"outcome"`
	ChallengerDelta float64   `json:"challenger_delta"`
	OpponentDelta   float64   `json:"opponent_delta"`
	CreatedAt       time.Time `json:"created_at"`
}

// PendingChallengeFromModel converts a model.PendingChallenge
func PendingChallengeFromModel(c model.PendingChallenge) PendingChallenge {
	return PendingChallenge{
		ID:              int64(c.ID),
		ChallengerID:    string(c.ChallengerID),
		OpponentID:      string(c.OpponentID),
		Outcome:         string(c.Outcome),
		ChallengerDelta: c.ChallengerDelta,
		OpponentDelta:   c.OpponentDelta,
		CreatedAt:       c.CreatedAt,
	}
}

// PendingList is the response for listing the caller's challenges
type PendingList struct {
	Outgoing []PendingChallenge `json:"outgoing"`
	Incoming []PendingChallenge `json:"incoming"`
}

// PendingListFromLadder converts a ladder.PendingList
func PendingListFromLadder(l *ladder.PendingList) PendingList {
	resp := PendingList{
		Outgoing: make([]PendingChallenge, 0, len(l.Outgoing)),
		Incoming: make([]PendingChallenge, 0, len(l.Incoming)),
	}
	for _, c := range l.Outgoing {
		resp.Outgoing = append(resp.Outgoing, PendingChallengeFromModel(c))
	}
	for _, c := range l.Incoming {
		resp.Incoming = append(resp.Incoming, PendingChallengeFromModel(c))
	}
	return resp
}

// Health is the response for the health endpoint
type Health struct {
	Status string `json:"status"`
}

// Event is the data of a server-sent challenge event
type Event struct {
	Kind      string           `json:"kind"`
	Challenge PendingChallenge `json:"challenge"`
	Result    *ChallengeResult `json:"result,omitempty"`
}

// EventFromLadder converts a ladder.Event
func EventFromLadder(e ladder.Event) Event {
	resp := Event{
		Kind:      string(e.Kind),
		Challenge: PendingChallengeFromModel(e.Challenge),
	}
	if e.Result != nil {
		result := ChallengeResultFromLadder(e.Result)
		resp.Result = &result
	}
	return resp
}
