package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/eloladder/internal/model"
	"github.com/mcoot/eloladder/internal/storage"
)

// maxTxRetries bounds optimistic retries when a WATCHed key changes under us
const maxTxRetries = 16

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// getter is satisfied by both the client and a WATCH transaction
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Player operations

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return getPlayer(ctx, s.client, id)
}

func (s *Storage) CreatePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	created, err := s.client.SetNX(ctx, playerKey(player.ID), data, 0).Result()
	if err != nil {
		return err
	}
	if !created {
		return model.ErrPlayerExists
	}
	return nil
}

func (s *Storage) SetPlayerRating(ctx context.Context, id model.PlayerID, rating float64) error {
	key := playerKey(id)
	return s.withRetry(ctx, func(tx *redis.Tx) error {
		player, err := getPlayer(ctx, tx, id)
		if err != nil {
			return err
		}
		player.Rating = rating

		data, err := json.Marshal(player)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}, key)
}

// Challenge operations

func (s *Storage) FindChallenge(ctx context.Context, challengerID, opponentID model.PlayerID) (*model.PendingChallenge, error) {
	idStr, err := s.client.Get(ctx, pairIndexKey(challengerID, opponentID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrChallengeNotFound
		}
		return nil, err
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt pair index: %w", err)
	}

	c, err := getChallenge(ctx, s.client, model.ChallengeID(id))
	if err != nil {
		return nil, err
	}
	if c.ChallengerID != challengerID {
		return nil, model.ErrChallengeNotFound
	}
	return c, nil
}

func (s *Storage) CreateChallenge(ctx context.Context, challenge *model.PendingChallenge) (model.ChallengeID, error) {
	seq, err := s.client.Incr(ctx, challengeSeqKey()).Result()
	if err != nil {
		return 0, err
	}
	id := model.ChallengeID(seq)

	// The pair key is the uniqueness guard: first writer wins
	claimed, err := s.client.SetNX(ctx, pairIndexKey(challenge.ChallengerID, challenge.OpponentID), seq, s.cfg.ChallengeTTL).Result()
	if err != nil {
		return 0, err
	}
	if !claimed {
		return 0, model.ErrChallengeExists
	}

	c := *challenge
	c.ID = id
	data, err := json.Marshal(&c)
	if err != nil {
		return 0, err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, challengeKey(id), data, s.cfg.ChallengeTTL)
	pipe.SAdd(ctx, playerChallengesIndexKey(c.ChallengerID), seq)
	pipe.SAdd(ctx, playerChallengesIndexKey(c.OpponentID), seq)
	if _, err := pipe.Exec(ctx); err != nil {
		// Release the pair so the caller can retry
		_ = s.client.Del(ctx, pairIndexKey(c.ChallengerID, c.OpponentID)).Err()
		return 0, err
	}

	return id, nil
}

func (s *Storage) DeleteChallenge(ctx context.Context, id model.ChallengeID) error {
	c, err := getChallenge(ctx, s.client, id)
	if err != nil {
		if errors.Is(err, model.ErrChallengeNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	removeChallenge(ctx, pipe, c)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListChallengesForPlayer(ctx context.Context, id model.PlayerID) ([]*model.PendingChallenge, error) {
	ids, err := s.client.SMembers(ctx, playerChallengesIndexKey(id)).Result()
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return []*model.PendingChallenge{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, raw := range ids {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		keys = append(keys, challengeKey(model.ChallengeID(n)))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	challenges := make([]*model.PendingChallenge, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue // Challenge may have expired
		}
		str, ok := val.(string)
		if !ok {
			continue
		}
		var c model.PendingChallenge
		if err := json.Unmarshal([]byte(str), &c); err != nil {
			continue // Skip invalid data
		}
		challenges = append(challenges, &c)
	}

	sort.Slice(challenges, func(i, j int) bool { return challenges[i].ID < challenges[j].ID })
	return challenges, nil
}

func (s *Storage) ResolveChallenge(ctx context.Context, id model.ChallengeID) (*model.Resolution, error) {
	c, err := getChallenge(ctx, s.client, id)
	if err != nil {
		return nil, err
	}

	cKey := challengeKey(id)
	challengerKey := playerKey(c.ChallengerID)
	opponentKey := playerKey(c.OpponentID)

	var res *model.Resolution
	err = s.withRetry(ctx, func(tx *redis.Tx) error {
		// Re-read under WATCH: a concurrent resolver may have removed it
		current, err := getChallenge(ctx, tx, id)
		if err != nil {
			return err
		}
		challenger, err := getPlayer(ctx, tx, current.ChallengerID)
		if err != nil {
			return err
		}
		opponent, err := getPlayer(ctx, tx, current.OpponentID)
		if err != nil {
			return err
		}

		challenger.Rating += current.ChallengerDelta
		opponent.Rating += current.OpponentDelta

		challengerData, err := json.Marshal(challenger)
		if err != nil {
			return err
		}
		opponentData, err := json.Marshal(opponent)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, challengerKey, challengerData, 0)
			pipe.Set(ctx, opponentKey, opponentData, 0)
			removeChallenge(ctx, pipe, current)
			return nil
		})
		if err != nil {
			return err
		}

		res = &model.Resolution{
			Challenge:  *current,
			Challenger: *challenger,
			Opponent:   *opponent,
		}
		return nil
	}, cKey, challengerKey, opponentKey)
	if err != nil {
		return nil, err
	}

	return res, nil
}

// withRetry runs fn in a WATCH transaction, retrying when a watched key changed
func (s *Storage) withRetry(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for range maxTxRetries {
		err := s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("transaction on %v: %w", keys, redis.TxFailedErr)
}

// removeChallenge queues deletion of a challenge and its index entries
func removeChallenge(ctx context.Context, pipe redis.Pipeliner, c *model.PendingChallenge) {
	pipe.Del(ctx, challengeKey(c.ID))
	pipe.Del(ctx, pairIndexKey(c.ChallengerID, c.OpponentID))
	pipe.SRem(ctx, playerChallengesIndexKey(c.ChallengerID), int64(c.ID))
	pipe.SRem(ctx, playerChallengesIndexKey(c.OpponentID), int64(c.ID))
}

func getPlayer(ctx context.Context, c getter, id model.PlayerID) (*model.Player, error) {
	data, err := c.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func getChallenge(ctx context.Context, c getter, id model.ChallengeID) (*model.PendingChallenge, error) {
	data, err := c.Get(ctx, challengeKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrChallengeNotFound
		}
		return nil, err
	}

	var challenge model.PendingChallenge
	if err := json.Unmarshal(data, &challenge); err != nil {
		return nil, err
	}
	return &challenge, nil
}
