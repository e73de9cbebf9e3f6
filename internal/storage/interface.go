package storage

import (
	"context"
	"errors"

	"github.com/mcoot/eloladder/internal/model"
)

// ErrCommitIncomplete is returned by ResolveChallenge when both ratings were
// written but the challenge record could not be removed. The returned
// resolution is still valid.
var ErrCommitIncomplete = errors.New("ratings applied but challenge record not removed")

// Storage defines the interface for data persistence
type Storage interface {
	// Player operations
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	CreatePlayer(ctx context.Context, player *model.Player) error
	SetPlayerRating(ctx context.Context, id model.PlayerID, rating float64) error

	// Challenge operations
	FindChallenge(ctx context.Context, challengerID, opponentID model.PlayerID) (*model.PendingChallenge, error)
	CreateChallenge(ctx context.Context, challenge *model.PendingChallenge) (model.ChallengeID, error)
	DeleteChallenge(ctx context.Context, id model.ChallengeID) error
	ListChallengesForPlayer(ctx context.Context, id model.PlayerID) ([]*model.PendingChallenge, error)

	// ResolveChallenge removes the challenge and adds its deltas to both
	// players as one unit. Returns model.ErrChallengeNotFound if another
	// caller already resolved it.
	ResolveChallenge(ctx context.Context, id model.ChallengeID) (*model.Resolution, error)

	Close() error
}
