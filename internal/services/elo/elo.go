// Package elo computes pairwise Elo expected scores and rating deltas.
package elo

import (
	"math"
	"strconv"
)

// Config holds the constants of the rating formula
type Config struct {
	// Scale is the logistic divisor applied to the rating difference
	Scale float64
	// KFactor bounds how far a single result moves a rating
	KFactor float64
}

// DefaultConfig returns the classic ladder constants
func DefaultConfig() Config {
	return Config{
		Scale:   400,
		KFactor: 32,
	}
}

// Deltas are the rating adjustments for both sides of a single result
type Deltas struct {
	Caller   float64
	Opponent float64
}

// ExpectedScore returns the probability that a player rated rating beats one
// rated opponentRating (0.5 = equal chances)
func (c Config) ExpectedScore(rating, opponentRating float64) float64 {
	return 1 / (1 + math.Pow(10, (opponentRating-rating)/c.Scale))
}

// Compute returns the deltas for a result declared from the caller's side
func (c Config) Compute(callerRating, opponentRating float64, callerWon bool) Deltas {
	expectedCaller := c.ExpectedScore(callerRating, opponentRating)
	expectedOpponent := c.ExpectedScore(opponentRating, callerRating)

	actual := 0.0
	if callerWon {
		actual = 1
	}

	return Deltas{
		Caller:   c.KFactor * (actual - expectedCaller),
		Opponent: c.KFactor * ((1 - actual) - expectedOpponent),
	}
}

// Round rounds half away from zero
func Round(f float64) int64 {
	return int64(math.Round(f))
}

// FormatDelta renders a delta with an explicit sign, e.g. "+16" or "-7"
func FormatDelta(d float64) string {
	r := Round(d)
	if r > 0 {
		return "+" + strconv.FormatInt(r, 10)
	}
	return strconv.FormatInt(r, 10)
}

// FormatRating renders a rating for display
func FormatRating(r float64) string {
	return strconv.FormatInt(Round(r), 10)
}
