// Package storagetest holds the behaviour every storage backend must share.
// Backend packages embed Suite and supply a fresh store per test.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/eloladder/internal/model"
	"github.com/mcoot/eloladder/internal/storage"
)

// Suite runs the shared storage contract against Store
type Suite struct {
	suite.Suite
	Store storage.Storage
	Ctx   context.Context
}

func (s *Suite) createPlayer(id model.PlayerID, rating float64) {
	err := s.Store.CreatePlayer(s.Ctx, &model.Player{
		ID:          id,
		DisplayName: "Player " + string(id),
		Rating:      rating,
		CreatedAt:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
}

func (s *Suite) createChallenge(challenger, opponent model.PlayerID, cDelta, oDelta float64) model.ChallengeID {
	id, err := s.Store.CreateChallenge(s.Ctx, &model.PendingChallenge{
		ChallengerID:    challenger,
		OpponentID:      opponent,
		Outcome:         model.OutcomeChallengerWon,
		ChallengerDelta: cDelta,
		OpponentDelta:   oDelta,
		CreatedAt:       time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	return id
}

// Player tests

func (s *Suite) TestCreateAndGetPlayer() {
	s.createPlayer("alice", 400)

	player, err := s.Store.GetPlayer(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("alice"), player.ID)
	s.Equal("Player alice", player.DisplayName)
	s.InDelta(400.0, player.Rating, 1e-9)
}

func (s *Suite) TestGetPlayerNotFound() {
	_, err := s.Store.GetPlayer(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestCreatePlayerDuplicate() {
	s.createPlayer("alice", 400)

	err := s.Store.CreatePlayer(s.Ctx, &model.Player{ID: "alice", DisplayName: "Other", Rating: 999})
	s.ErrorIs(err, model.ErrPlayerExists)

	player, err := s.Store.GetPlayer(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal("Player alice", player.DisplayName)
	s.InDelta(400.0, player.Rating, 1e-9)
}

func (s *Suite) TestSetPlayerRating() {
	s.createPlayer("alice", 400)

	s.Require().NoError(s.Store.SetPlayerRating(s.Ctx, "alice", 412.75))

	player, err := s.Store.GetPlayer(s.Ctx, "alice")
	s.Require().NoError(err)
	s.InDelta(412.75, player.Rating, 1e-9)
}

func (s *Suite) TestSetPlayerRatingNotFound() {
	err := s.Store.SetPlayerRating(s.Ctx, "nobody", 100)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Challenge tests

func (s *Suite) TestCreateAndFindChallenge() {
	s.createPlayer("alice", 400)
	s.createPlayer("bob", 400)
	id := s.createChallenge("alice", "bob", 16, -16)

	c, err := s.Store.FindChallenge(s.Ctx, "alice", "bob")
	s.Require().NoError(err)
	s.Equal(id, c.ID)
	s.Equal(model.PlayerID("alice"), c.ChallengerID)
	s.Equal(model.PlayerID("bob"), c.OpponentID)
	s.Equal(model.OutcomeChallengerWon, c.Outcome)
	s.InDelta(16.0, c.ChallengerDelta, 1e-9)
	s.InDelta(-16.0, c.OpponentDelta, 1e-9)
}

func (s *Suite) TestFindChallengeIsDirected() {
	s.createPlayer("alice", 400)
	s.createPlayer("bob", 400)
	s.createChallenge("alice", "bob", 16, -16)

	_, err := s.Store.FindChallenge(s.Ctx, "bob", "alice")
	s.ErrorIs(err, model.ErrChallengeNotFound)
}

func (s *Suite) TestChallengeIDsIncrease() {
	s.createPlayer("alice", 400)
	s.createPlayer("bob", 400)
	s.createPlayer("carol", 400)

	first := s.createChallenge("alice", "bob", 16, -16)
	second := s.createChallenge("alice", "carol", 16, -16)
	s.Greater(second, first)
}

func (s *Suite) TestCreateChallengeRejectsSamePairEitherDirection() {
	s.createPlayer("alice", 400)
	s.createPlayer("bob", 400)
	s.createChallenge("alice", "bob", 16, -16)

	_, err := s.Store.CreateChallenge(s.Ctx, &model.PendingChallenge{ChallengerID: "alice", OpponentID: "bob", Outcome: model.OutcomeChallengerLost})
	s.ErrorIs(err, model.ErrChallengeExists)

	_, err = s.Store.CreateChallenge(s.Ctx, &model.PendingChallenge{ChallengerID: "bob", OpponentID: "alice", Outcome: model.OutcomeChallengerWon})
	s.ErrorIs(err, model.ErrChallengeExists)
}

func (s *Suite) TestDeleteChallenge() {
	s.createPlayer("alice", 400)
	s.createPlayer("bob", 400)
	id := s.createChallenge("alice", "bob", 16, -16)

	s.Require().NoError(s.Store.DeleteChallenge(s.Ctx, id))

	_, err := s.Store.FindChallenge(s.Ctx, "alice", "bob")
	s.ErrorIs(err, model.ErrChallengeNotFound)

	// The pair is free again
	s.createChallenge("bob", "alice", 16, -16)
}

func (s *Suite) TestDeleteChallengeIdempotent() {
	s.NoError(s.Store.DeleteChallenge(s.Ctx, 12345))
}

func (s *Suite) TestListChallengesForPlayer() {
	s.createPlayer("alice", 400)
	s.createPlayer("bob", 400)
	s.createPlayer("carol", 400)
	first := s.createChallenge("alice", "bob", 16, -16)
	second := s.createChallenge("carol", "alice", 16, -16)
	s.createChallenge("bob", "carol", 16, -16)

	list, err := s.Store.ListChallengesForPlayer(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(first, list[0].ID)
	s.Equal(second, list[1].ID)
}

func (s *Suite) TestListChallengesForPlayerEmpty() {
	list, err := s.Store.ListChallengesForPlayer(s.Ctx, "nobody")
	s.Require().NoError(err)
	s.Empty(list)
}

// Resolution tests

func (s *Suite) TestResolveChallengeAppliesDeltasAndRemoves() {
	s.createPlayer("alice", 400)
	s.createPlayer("bob", 400)
	id := s.createChallenge("alice", "bob", 16, -16)

	res, err := s.Store.ResolveChallenge(s.Ctx, id)
	s.Require().NoError(err)
	s.Equal(id, res.Challenge.ID)
	s.InDelta(416.0, res.Challenger.Rating, 1e-9)
	s.InDelta(384.0, res.Opponent.Rating, 1e-9)

	alice, err := s.Store.GetPlayer(s.Ctx, "alice")
	s.Require().NoError(err)
	s.InDelta(416.0, alice.Rating, 1e-9)
	bob, err := s.Store.GetPlayer(s.Ctx, "bob")
	s.Require().NoError(err)
	s.InDelta(384.0, bob.Rating, 1e-9)

	_, err = s.Store.FindChallenge(s.Ctx, "alice", "bob")
	s.ErrorIs(err, model.ErrChallengeNotFound)
}

func (s *Suite) TestResolveChallengeTwiceFails() {
	s.createPlayer("alice", 400)
	s.createPlayer("bob", 400)
	id := s.createChallenge("alice", "bob", 16, -16)

	_, err := s.Store.ResolveChallenge(s.Ctx, id)
	s.Require().NoError(err)

	_, err = s.Store.ResolveChallenge(s.Ctx, id)
	s.ErrorIs(err, model.ErrChallengeNotFound)

	alice, err := s.Store.GetPlayer(s.Ctx, "alice")
	s.Require().NoError(err)
	s.InDelta(416.0, alice.Rating, 1e-9)
}

func (s *Suite) TestResolveChallengeKeepsFractionalRatings() {
	s.createPlayer("alice", 400)
	s.createPlayer("bob", 450)
	id := s.createChallenge("alice", "bob", 18.1234567, -13.8765433)

	_, err := s.Store.ResolveChallenge(s.Ctx, id)
	s.Require().NoError(err)

	alice, err := s.Store.GetPlayer(s.Ctx, "alice")
	s.Require().NoError(err)
	s.InDelta(418.1234567, alice.Rating, 1e-9)
}

func (s *Suite) TestResolveChallengeConcurrentAppliesOnce() {
	s.createPlayer("alice", 400)
	s.createPlayer("bob", 400)
	id := s.createChallenge("alice", "bob", 16, -16)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		notFound  int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Store.ResolveChallenge(s.Ctx, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, model.ErrChallengeNotFound):
				notFound++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, successes)
	s.Equal(workers-1, notFound)

	alice, err := s.Store.GetPlayer(s.Ctx, "alice")
	s.Require().NoError(err)
	s.InDelta(416.0, alice.Rating, 1e-9)
}
