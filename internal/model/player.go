package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID string

// Player holds the rating of a single identity
type Player struct {
	ID          PlayerID  `json:"id"`
	DisplayName string    `json:"display_name"` // set once at registration
	Rating      float64   `json:"rating"`       // exact value, rounded only for display
	CreatedAt   time.Time `json:"created_at"`
}
