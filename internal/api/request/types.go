package request

// RegisterRequest is the request body for registering the caller
type RegisterRequest struct {
	DisplayName string `json:"display_name"`
}

// ChallengeRequest is the request body for reporting a result.
// Outcome is from the caller's side: "win" or "lose".
type ChallengeRequest struct {
	OpponentID string `json:"opponent_id"`
	Outcome    string `json:"outcome"`
}

// SetRatingRequest is the request body for overwriting a rating
type SetRatingRequest struct {
	Rating *float64 `json:"rating"`
}
