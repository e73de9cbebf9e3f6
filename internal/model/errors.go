package model

import "errors"

// Storage-level errors shared by every backend
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerExists   = errors.New("player already exists")

	// Challenge errors
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrChallengeExists   = errors.New("a challenge between these players already exists")
	ErrInvalidOutcome    = errors.New("outcome must be win or lose")
)
