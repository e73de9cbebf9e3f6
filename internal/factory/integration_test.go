package factory

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/eloladder/internal/config"
	"github.com/mcoot/eloladder/internal/model"
	"github.com/mcoot/eloladder/internal/services/ladder"
	redisstorage "github.com/mcoot/eloladder/internal/storage/redis"
	"github.com/mcoot/eloladder/internal/testutil"
)

// IntegrationSuite runs the full challenge flow against a backend built by New
type IntegrationSuite struct {
	suite.Suite
	newConfig func() Config
	app       *App
	ctx       context.Context
}

func TestIntegrationMemory(t *testing.T) {
	suite.Run(t, &IntegrationSuite{newConfig: func() Config {
		return Config{StorageType: config.StorageTypeMemory}
	}})
}

func TestIntegrationSQLite(t *testing.T) {
	suite.Run(t, &IntegrationSuite{newConfig: func() Config {
		return Config{
			StorageType: config.StorageTypeSQLite,
			SQLitePath:  filepath.Join(t.TempDir(), "ladder.db"),
		}
	}})
}

func TestIntegrationRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	suite.Run(t, &IntegrationSuite{newConfig: func() Config {
		mr.FlushAll()
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = "redis://" + mr.Addr()
		return Config{StorageType: config.StorageTypeRedis, RedisConfig: &redisCfg}
	}})
}

func (s *IntegrationSuite) SetupTest() {
	cfg := s.newConfig()
	cfg.Logger = testutil.NopLogger()
	cfg.Identity.Secret = TestTokenSecret

	app, err := New(cfg)
	s.Require().NoError(err)
	s.app = app
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.NoError(s.app.Close())
}

func (s *IntegrationSuite) rating(id model.PlayerID) float64 {
	standing, err := s.app.Engine.Inspect(s.ctx, id, id)
	s.Require().NoError(err)
	return standing.Rating
}

// Test: Propose, confirm, and a second confirmation finds nothing
func (s *IntegrationSuite) TestChallengeFlow() {
	engine := s.app.Engine

	_, err := engine.Register(s.ctx, "x", "X")
	s.Require().NoError(err)

	_, err = engine.Challenge(s.ctx, "x", "y", model.OutcomeChallengerWon)
	s.ErrorIs(err, ladder.ErrOpponentNotFound)

	_, err = engine.Register(s.ctx, "y", "Y")
	s.Require().NoError(err)

	proposed, err := engine.Challenge(s.ctx, "x", "y", model.OutcomeChallengerWon)
	s.Require().NoError(err)
	s.Equal(ladder.ResultProposed, proposed.Kind)

	_, err = engine.Challenge(s.ctx, "x", "y", model.OutcomeChallengerWon)
	s.ErrorIs(err, ladder.ErrDuplicateChallenge)

	accepted, err := engine.Challenge(s.ctx, "y", "x", model.OutcomeChallengerLost)
	s.Require().NoError(err)
	s.Equal(ladder.ResultAccepted, accepted.Kind)
	s.Equal(proposed.ChallengeID, accepted.ChallengeID)

	s.InDelta(416.0, s.rating("x"), 1e-9)
	s.InDelta(384.0, s.rating("y"), 1e-9)

	_, err = engine.Confirm(s.ctx, "y", "x")
	s.ErrorIs(err, ladder.ErrNothingPending)

	pending, err := engine.Pending(s.ctx, "x")
	s.Require().NoError(err)
	s.Empty(pending.Outgoing)
	s.Empty(pending.Incoming)
}

// Test: Concurrent confirmations apply the result exactly once
func (s *IntegrationSuite) TestConcurrentConfirm() {
	engine := s.app.Engine
	for _, id := range []model.PlayerID{"a", "b"} {
		_, err := engine.Register(s.ctx, id, string(id))
		s.Require().NoError(err)
	}
	_, err := engine.Challenge(s.ctx, "a", "b", model.OutcomeChallengerLost)
	s.Require().NoError(err)

	const n = 6
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = engine.Confirm(s.ctx, "b", "a")
		}()
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
			continue
		}
		s.ErrorIs(err, ladder.ErrNothingPending)
	}
	s.Equal(1, accepted)
	s.InDelta(384.0, s.rating("a"), 1e-9)
	s.InDelta(416.0, s.rating("b"), 1e-9)
}

// Test: Tokens issued by the app resolve back to the player
func (s *IntegrationSuite) TestIdentityRoundTrip() {
	token, err := s.app.Identity.Issue("x")
	s.Require().NoError(err)

	id, err := s.app.Identity.Verify(token)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("x"), id)
}

func TestNewRejectsUnknownStorage(t *testing.T) {
	_, err := New(Config{StorageType: "postgres"})
	require.ErrorContains(t, err, "invalid StorageType")
}

func TestNewRequiresBackendSettings(t *testing.T) {
	_, err := New(Config{StorageType: config.StorageTypeRedis})
	require.Error(t, err)

	_, err = New(Config{StorageType: config.StorageTypeSQLite})
	require.Error(t, err)
}

func TestNewDefaultsLadderConfig(t *testing.T) {
	app, err := New(Config{})
	require.NoError(t, err)
	require.Equal(t, ladder.DefaultConfig(), app.Engine.Config())
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Type = config.StorageTypeSQLite
	cfg.Ladder.InitialRating = 1000
	cfg.Identity.TokenSecret = "s"

	fc := FromConfig(cfg, nil)
	require.Equal(t, config.StorageTypeSQLite, fc.StorageType)
	require.Equal(t, "ladder.db", fc.SQLitePath)
	require.InDelta(t, 1000.0, fc.Ladder.InitialRating, 1e-9)
	// Scale left at zero so the engine couples it to the initial rating
	require.Zero(t, fc.Ladder.Elo.Scale)
	require.Equal(t, "s", fc.Identity.Secret)

	app, err := New(Config{Ladder: fc.Ladder})
	require.NoError(t, err)
	require.InDelta(t, 1000.0, app.Engine.Config().Elo.Scale, 1e-9)
}
