package model

import (
	"strings"
	"time"
)

// ChallengeID is assigned by the store when a challenge is created
type ChallengeID int64

// Outcome is the result of a challenge as declared by its challenger
type Outcome string

const (
	OutcomeChallengerWon  Outcome = "challenger_won"
	OutcomeChallengerLost Outcome = "challenger_lost"
)

// Valid reports whether o is a known outcome
func (o Outcome) Valid() bool {
	return o == OutcomeChallengerWon || o == OutcomeChallengerLost
}

// Reverse returns the same result seen from the other side
func (o Outcome) Reverse() Outcome {
	if o == OutcomeChallengerWon {
		return OutcomeChallengerLost
	}
	return OutcomeChallengerWon
}

// ParseOutcome accepts the user-facing spellings win/lose (and w/l, won/lost, loss)
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "win", "w", "won", string(OutcomeChallengerWon):
		return OutcomeChallengerWon, nil
	case "lose", "l", "lost", "loss", string(OutcomeChallengerLost):
		return OutcomeChallengerLost, nil
	default:
		return "", ErrInvalidOutcome
	}
}

// PendingChallenge is a proposed result awaiting confirmation by the opponent.
// Deltas are fixed when the challenge is proposed and applied unchanged.
type PendingChallenge struct {
	ID              ChallengeID `json:"id"`
	ChallengerID    PlayerID    `json:"challenger_id"`
	OpponentID      PlayerID    `json:"opponent_id"`
	Outcome         Outcome     `json:"outcome"`
	ChallengerDelta float64     `json:"challenger_delta"`
	OpponentDelta   float64     `json:"opponent_delta"`
	CreatedAt       time.Time   `json:"created_at"`
}

// Involves reports whether the player is either side of the challenge
func (c *PendingChallenge) Involves(id PlayerID) bool {
	return c.ChallengerID == id || c.OpponentID == id
}

// PairKey is the canonical unordered key for two players
type PairKey struct {
	Low  PlayerID
	High PlayerID
}

// NewPairKey orders the two ids so that (a, b) and (b, a) produce the same key
func NewPairKey(a, b PlayerID) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{Low: a, High: b}
}

// Resolution is the outcome of committing a confirmed challenge
type Resolution struct {
	Challenge  PendingChallenge
	Challenger Player // with the delta applied
	Opponent   Player // with the delta applied
}
