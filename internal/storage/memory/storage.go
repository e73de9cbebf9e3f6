package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/eloladder/internal/model"
	"github.com/mcoot/eloladder/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players    map[model.PlayerID]*model.Player
	challenges map[model.ChallengeID]*model.PendingChallenge
	pairIndex  map[model.PairKey]model.ChallengeID
	nextID     model.ChallengeID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:    make(map[model.PlayerID]*model.Player),
		challenges: make(map[model.ChallengeID]*model.PendingChallenge),
		pairIndex:  make(map[model.PairKey]model.ChallengeID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

func (s *Storage) CreatePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[player.ID]; ok {
		return model.ErrPlayerExists
	}
	p := *player
	s.players[player.ID] = &p
	return nil
}

func (s *Storage) SetPlayerRating(ctx context.Context, id model.PlayerID, rating float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, ok := s.players[id]
	if !ok {
		return model.ErrPlayerNotFound
	}
	player.Rating = rating
	return nil
}

// Challenge operations

func (s *Storage) FindChallenge(ctx context.Context, challengerID, opponentID model.PlayerID) (*model.PendingChallenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.pairIndex[model.NewPairKey(challengerID, opponentID)]
	if !ok {
		return nil, model.ErrChallengeNotFound
	}
	c := s.challenges[id]
	if c.ChallengerID != challengerID {
		return nil, model.ErrChallengeNotFound
	}
	found := *c
	return &found, nil
}

func (s *Storage) CreateChallenge(ctx context.Context, challenge *model.PendingChallenge) (model.ChallengeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.NewPairKey(challenge.ChallengerID, challenge.OpponentID)
	if _, ok := s.pairIndex[key]; ok {
		return 0, model.ErrChallengeExists
	}

	s.nextID++
	c := *challenge
	c.ID = s.nextID
	s.challenges[c.ID] = &c
	s.pairIndex[key] = c.ID
	return c.ID, nil
}

func (s *Storage) DeleteChallenge(ctx context.Context, id model.ChallengeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteChallengeLocked(id)
	return nil
}

func (s *Storage) ListChallengesForPlayer(ctx context.Context, id model.PlayerID) ([]*model.PendingChallenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.PendingChallenge
	for _, c := range s.challenges {
		if c.Involves(id) {
			found := *c
			result = append(result, &found)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Storage) ResolveChallenge(ctx context.Context, id model.ChallengeID) (*model.Resolution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.challenges[id]
	if !ok {
		return nil, model.ErrChallengeNotFound
	}
	challenger, ok := s.players[c.ChallengerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	opponent, ok := s.players[c.OpponentID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}

	challenger.Rating += c.ChallengerDelta
	opponent.Rating += c.OpponentDelta
	s.deleteChallengeLocked(id)

	return &model.Resolution{
		Challenge:  *c,
		Challenger: *challenger,
		Opponent:   *opponent,
	}, nil
}

// Close is a no-op for in-memory storage
func (s *Storage) Close() error {
	return nil
}

func (s *Storage) deleteChallengeLocked(id model.ChallengeID) {
	c, ok := s.challenges[id]
	if !ok {
		return
	}
	delete(s.pairIndex, model.NewPairKey(c.ChallengerID, c.OpponentID))
	delete(s.challenges, id)
}
