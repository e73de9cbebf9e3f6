package redis

import (
	"fmt"

	"github.com/mcoot/eloladder/internal/model"
)

// Key prefix for all ladder data
const keyPrefix = "ladder"

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// challengeKey returns the Redis key for a PendingChallenge
func challengeKey(id model.ChallengeID) string {
	return fmt.Sprintf("%s:challenge:%d", keyPrefix, id)
}

// challengeSeqKey returns the counter used to assign challenge ids
func challengeSeqKey() string {
	return fmt.Sprintf("%s:seq:challenge", keyPrefix)
}

// pairIndexKey returns the key holding the challenge id for an unordered pair
func pairIndexKey(a, b model.PlayerID) string {
	pk := model.NewPairKey(a, b)
	return fmt.Sprintf("%s:idx:pair:%s:%s", keyPrefix, pk.Low, pk.High)
}

// playerChallengesIndexKey returns the SET of challenge ids involving a player
func playerChallengesIndexKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:idx:player_challenges:%s", keyPrefix, id)
}
