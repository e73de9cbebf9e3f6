package ladder

import "github.com/mcoot/eloladder/internal/model"

// Standing is a player's name and current rating
type Standing struct {
	PlayerID model.PlayerID
	Name     string
	Rating   float64
}

func standingOf(p *model.Player) Standing {
	return Standing{PlayerID: p.ID, Name: p.DisplayName, Rating: p.Rating}
}

// ResultKind distinguishes a new proposal from a confirmed result
type ResultKind string

const (
	ResultProposed ResultKind = "proposed"
	ResultAccepted ResultKind = "accepted"
)

// ChallengeResult describes what a Challenge or Confirm call did.
// Roles follow the stored challenge: Challenger is whoever proposed it,
// which for an accepted result is the caller's opponent.
type ChallengeResult struct {
	Kind        ResultKind
	ChallengeID model.ChallengeID
	Outcome     model.Outcome

	// Ratings after the result for ResultAccepted, current ratings for ResultProposed
	Challenger Standing
	Opponent   Standing

	ChallengerDelta float64
	OpponentDelta   float64
}

// Winner returns the side that won under the recorded outcome
func (r *ChallengeResult) Winner() Standing {
	if r.Outcome == model.OutcomeChallengerWon {
		return r.Challenger
	}
	return r.Opponent
}

// Loser returns the side that lost under the recorded outcome
func (r *ChallengeResult) Loser() Standing {
	if r.Outcome == model.OutcomeChallengerWon {
		return r.Opponent
	}
	return r.Challenger
}

// PendingList is a player's open challenges split by direction
type PendingList struct {
	Outgoing []model.PendingChallenge // proposed by the player
	Incoming []model.PendingChallenge // awaiting the player's confirmation
}
