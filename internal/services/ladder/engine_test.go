package ladder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/eloladder/internal/dependencies/mocks"
	"github.com/mcoot/eloladder/internal/model"
	"github.com/mcoot/eloladder/internal/services/elo"
	"github.com/mcoot/eloladder/internal/storage"
	"github.com/mcoot/eloladder/internal/storage/memory"
	"github.com/mcoot/eloladder/internal/testutil"
)

var errBackendDown = errors.New("connection refused")

// faultyStorage wraps the memory store and fails selected operations
type faultyStorage struct {
	*memory.Storage

	getPlayerErr       error
	createChallengeErr error
	findChallengeErr   error
	// resolveIncomplete applies the resolution but reports the record as not removed
	resolveIncomplete bool
	resolveErr        error
}

func (f *faultyStorage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	if f.getPlayerErr != nil {
		return nil, f.getPlayerErr
	}
	return f.Storage.GetPlayer(ctx, id)
}

func (f *faultyStorage) FindChallenge(ctx context.Context, challengerID, opponentID model.PlayerID) (*model.PendingChallenge, error) {
	if f.findChallengeErr != nil {
		return nil, f.findChallengeErr
	}
	return f.Storage.FindChallenge(ctx, challengerID, opponentID)
}

func (f *faultyStorage) CreateChallenge(ctx context.Context, c *model.PendingChallenge) (model.ChallengeID, error) {
	if f.createChallengeErr != nil {
		return 0, f.createChallengeErr
	}
	return f.Storage.CreateChallenge(ctx, c)
}

func (f *faultyStorage) ResolveChallenge(ctx context.Context, id model.ChallengeID) (*model.Resolution, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	res, err := f.Storage.ResolveChallenge(ctx, id)
	if err != nil || !f.resolveIncomplete {
		return res, err
	}
	// Put the record back to simulate a failed delete
	_, _ = f.Storage.CreateChallenge(ctx, &res.Challenge)
	return res, fmt.Errorf("delete challenge %d: %w", id, storage.ErrCommitIncomplete)
}

// recordingAlerter captures operator alerts
type recordingAlerter struct {
	mu     sync.Mutex
	alerts []string
}

func (a *recordingAlerter) Alert(ctx context.Context, msg string, attrs ...slog.Attr) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, msg)
}

func (a *recordingAlerter) messages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.alerts...)
}

type EngineSuite struct {
	suite.Suite
	storage *faultyStorage
	clock   *mocks.MockClock
	alerter *recordingAlerter
	engine  *Engine
	ctx     context.Context
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.storage = &faultyStorage{Storage: memory.New()}
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.alerter = &recordingAlerter{}
	s.engine = NewEngine(s.storage, DefaultConfig(), s.clock, s.alerter, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *EngineSuite) register(id model.PlayerID, name string) {
	_, err := s.engine.Register(s.ctx, id, name)
	s.Require().NoError(err)
}

func (s *EngineSuite) rating(id model.PlayerID) float64 {
	p, err := s.storage.Storage.GetPlayer(s.ctx, id)
	s.Require().NoError(err)
	return p.Rating
}

// Register tests

func (s *EngineSuite) TestRegisterCreatesPlayerWithInitialRating() {
	standing, err := s.engine.Register(s.ctx, "alice", "Alice")
	s.Require().NoError(err)

	s.Equal("Alice", standing.Name)
	s.InDelta(400.0, standing.Rating, 1e-9)

	player, err := s.storage.Storage.GetPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("Alice", player.DisplayName)
	s.Equal(s.clock.Now(), player.CreatedAt)
}

func (s *EngineSuite) TestRegisterTrimsName() {
	standing, err := s.engine.Register(s.ctx, "alice", "   Alice  \t")
	s.Require().NoError(err)
	s.Equal("Alice", standing.Name)
}

func (s *EngineSuite) TestRegisterNormalizesName() {
	// "e" followed by a combining acute accent composes to a single rune
	standing, err := s.engine.Register(s.ctx, "jose", "Jose\u0301")
	s.Require().NoError(err)
	s.Equal("Jos\u00e9", standing.Name)
}

func (s *EngineSuite) TestRegisterRejectsBlankName() {
	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := s.engine.Register(s.ctx, "alice", name)
		s.ErrorIs(err, ErrInvalidName, "name %q", name)
	}

	_, err := s.storage.Storage.GetPlayer(s.ctx, "alice")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *EngineSuite) TestRegisterTwiceKeepsOriginal() {
	s.register("alice", "Alice")
	s.Require().NoError(s.storage.SetPlayerRating(s.ctx, "alice", 450))

	_, err := s.engine.Register(s.ctx, "alice", "Someone Else")
	s.ErrorIs(err, ErrAlreadyRegistered)

	var already *AlreadyRegisteredError
	s.Require().ErrorAs(err, &already)
	s.Equal("Alice", already.Name)

	player, err := s.storage.Storage.GetPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("Alice", player.DisplayName)
	s.InDelta(450.0, player.Rating, 1e-9)
}

func (s *EngineSuite) TestRegisterStoreFailure() {
	s.storage.getPlayerErr = errBackendDown

	_, err := s.engine.Register(s.ctx, "alice", "Alice")
	s.ErrorIs(err, ErrStoreUnavailable)
	s.ErrorIs(err, errBackendDown)
}

func (s *EngineSuite) TestRegisterConcurrentSameIdentity() {
	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.engine.Register(s.ctx, "alice", "Alice")
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, ErrAlreadyRegistered)
	}
	s.Equal(1, succeeded)
}

// Inspect tests

func (s *EngineSuite) TestInspectSelf() {
	s.register("alice", "Alice")

	standing, err := s.engine.Inspect(s.ctx, "alice", "")
	s.Require().NoError(err)
	s.Equal("Alice", standing.Name)
	s.InDelta(400.0, standing.Rating, 1e-9)
}

func (s *EngineSuite) TestInspectTarget() {
	s.register("bob", "Bob")

	// The caller does not need to be registered to look someone up
	standing, err := s.engine.Inspect(s.ctx, "alice", "bob")
	s.Require().NoError(err)
	s.Equal("Bob", standing.Name)
	s.Equal(model.PlayerID("bob"), standing.PlayerID)
}

func (s *EngineSuite) TestInspectUnknownTarget() {
	s.register("alice", "Alice")

	_, err := s.engine.Inspect(s.ctx, "alice", "ghost")
	s.ErrorIs(err, ErrUserNotFound)

	var notFound *UserNotFoundError
	s.Require().ErrorAs(err, &notFound)
	s.Equal(model.PlayerID("ghost"), notFound.ID)
}

func (s *EngineSuite) TestInspectSelfNotRegistered() {
	_, err := s.engine.Inspect(s.ctx, "alice", "")
	s.ErrorIs(err, ErrCallerNotRegistered)
}

func (s *EngineSuite) TestInspectStoreFailure() {
	s.storage.getPlayerErr = errBackendDown

	_, err := s.engine.Inspect(s.ctx, "alice", "bob")
	s.ErrorIs(err, ErrStoreUnavailable)
}

// Challenge tests

func (s *EngineSuite) TestChallengeCallerNotRegistered() {
	s.register("bob", "Bob")

	_, err := s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.ErrorIs(err, ErrCallerNotRegistered)
}

func (s *EngineSuite) TestChallengeOpponentNotFound() {
	s.register("alice", "Alice")

	_, err := s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.ErrorIs(err, ErrOpponentNotFound)

	var notFound *OpponentNotFoundError
	s.Require().ErrorAs(err, &notFound)
	s.Equal(model.PlayerID("bob"), notFound.ID)
}

func (s *EngineSuite) TestChallengeSelf() {
	s.register("alice", "Alice")

	_, err := s.engine.Challenge(s.ctx, "alice", "alice", model.OutcomeChallengerWon)
	s.ErrorIs(err, ErrSelfChallenge)
}

func (s *EngineSuite) TestChallengeInvalidOutcome() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")

	_, err := s.engine.Challenge(s.ctx, "alice", "bob", model.Outcome("draw"))
	s.ErrorIs(err, model.ErrInvalidOutcome)
}

func (s *EngineSuite) TestChallengeProposes() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")

	result, err := s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.Require().NoError(err)

	s.Equal(ResultProposed, result.Kind)
	s.Equal(model.OutcomeChallengerWon, result.Outcome)
	s.Equal("Alice", result.Challenger.Name)
	s.Equal("Bob", result.Opponent.Name)
	s.InDelta(16.0, result.ChallengerDelta, 1e-9)
	s.InDelta(-16.0, result.OpponentDelta, 1e-9)

	pending, err := s.storage.FindChallenge(s.ctx, "alice", "bob")
	s.Require().NoError(err)
	s.Equal(result.ChallengeID, pending.ID)
	s.Equal(s.clock.Now(), pending.CreatedAt)

	// Ratings do not move until confirmed
	s.InDelta(400.0, s.rating("alice"), 1e-9)
	s.InDelta(400.0, s.rating("bob"), 1e-9)
}

func (s *EngineSuite) TestChallengeDuplicate() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")

	_, err := s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.Require().NoError(err)

	_, err = s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerLost)
	s.ErrorIs(err, ErrDuplicateChallenge)

	list, err := s.storage.ListChallengesForPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Len(list, 1)
	s.Equal(model.OutcomeChallengerWon, list[0].Outcome)
}

func (s *EngineSuite) TestChallengeReverseConfirms() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")

	_, err := s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.Require().NoError(err)

	result, err := s.engine.Challenge(s.ctx, "bob", "alice", model.OutcomeChallengerLost)
	s.Require().NoError(err)

	s.Equal(ResultAccepted, result.Kind)
	s.Equal(model.OutcomeChallengerWon, result.Outcome)
	s.Equal("Alice", result.Winner().Name)
	s.Equal("Bob", result.Loser().Name)
	s.InDelta(416.0, result.Challenger.Rating, 1e-9)
	s.InDelta(384.0, result.Opponent.Rating, 1e-9)

	s.InDelta(416.0, s.rating("alice"), 1e-9)
	s.InDelta(384.0, s.rating("bob"), 1e-9)

	_, err = s.storage.FindChallenge(s.ctx, "alice", "bob")
	s.ErrorIs(err, model.ErrChallengeNotFound)
}

func (s *EngineSuite) TestChallengeConfirmAppliesProposedOutcome() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")

	_, err := s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.Require().NoError(err)

	// Bob claims he won too; the stored proposal still decides the result
	result, err := s.engine.Challenge(s.ctx, "bob", "alice", model.OutcomeChallengerWon)
	s.Require().NoError(err)

	s.Equal(ResultAccepted, result.Kind)
	s.Equal("Alice", result.Winner().Name)
	s.InDelta(416.0, s.rating("alice"), 1e-9)
}

func (s *EngineSuite) TestChallengeDeltasFixedAtProposal() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")

	_, err := s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.Require().NoError(err)

	// Rating changes after the proposal do not alter the stored deltas
	_, err = s.engine.SetRating(s.ctx, "alice", 600)
	s.Require().NoError(err)

	result, err := s.engine.Confirm(s.ctx, "bob", "alice")
	s.Require().NoError(err)
	s.InDelta(16.0, result.ChallengerDelta, 1e-9)
	s.InDelta(616.0, s.rating("alice"), 1e-9)
	s.InDelta(384.0, s.rating("bob"), 1e-9)
}

func (s *EngineSuite) TestChallengeUnequalRatings() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")
	_, err := s.engine.SetRating(s.ctx, "bob", 800)
	s.Require().NoError(err)

	result, err := s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.Require().NoError(err)

	want := DefaultConfig().Elo.Compute(400, 800, true)
	s.InDelta(want.Caller, result.ChallengerDelta, 1e-9)
	s.InDelta(want.Opponent, result.OpponentDelta, 1e-9)
	s.Greater(result.ChallengerDelta, 16.0)
}

func (s *EngineSuite) TestChallengeEndToEnd() {
	s.register("x", "X")

	_, err := s.engine.Challenge(s.ctx, "x", "y", model.OutcomeChallengerWon)
	s.ErrorIs(err, ErrOpponentNotFound)

	s.register("y", "Y")

	proposed, err := s.engine.Challenge(s.ctx, "x", "y", model.OutcomeChallengerWon)
	s.Require().NoError(err)
	s.Equal(ResultProposed, proposed.Kind)
	s.InDelta(16.0, proposed.ChallengerDelta, 1e-9)
	s.InDelta(-16.0, proposed.OpponentDelta, 1e-9)

	accepted, err := s.engine.Challenge(s.ctx, "y", "x", model.OutcomeChallengerLost)
	s.Require().NoError(err)
	s.Equal(ResultAccepted, accepted.Kind)

	s.InDelta(416.0, s.rating("x"), 1e-9)
	s.InDelta(384.0, s.rating("y"), 1e-9)

	list, err := s.storage.ListChallengesForPlayer(s.ctx, "x")
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *EngineSuite) TestChallengeZeroSumAcrossCycles() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")

	outcomes := []model.Outcome{
		model.OutcomeChallengerWon,
		model.OutcomeChallengerWon,
		model.OutcomeChallengerLost,
		model.OutcomeChallengerWon,
	}
	for _, outcome := range outcomes {
		_, err := s.engine.Challenge(s.ctx, "alice", "bob", outcome)
		s.Require().NoError(err)
		_, err = s.engine.Challenge(s.ctx, "bob", "alice", outcome.Reverse())
		s.Require().NoError(err)
	}

	s.InDelta(800.0, s.rating("alice")+s.rating("bob"), 1e-9)
}

func (s *EngineSuite) TestChallengeProposalStoreFailure() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")
	s.storage.createChallengeErr = errBackendDown

	_, err := s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.ErrorIs(err, ErrStoreUnavailable)
	s.ErrorIs(err, errBackendDown)

	var storeErr *StoreError
	s.Require().ErrorAs(err, &storeErr)
	s.Equal("create challenge", storeErr.Op)
}

func (s *EngineSuite) TestChallengeLostCreateRaceIsDuplicate() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")
	s.storage.createChallengeErr = model.ErrChallengeExists

	_, err := s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.ErrorIs(err, ErrDuplicateChallenge)
}

func (s *EngineSuite) TestChallengeLookupStoreFailure() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")
	s.storage.findChallengeErr = errBackendDown

	_, err := s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.ErrorIs(err, ErrStoreUnavailable)
}

func (s *EngineSuite) TestChallengeCommitIncompleteStillSucceeds() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")
	_, err := s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.Require().NoError(err)

	s.storage.resolveIncomplete = true
	result, err := s.engine.Challenge(s.ctx, "bob", "alice", model.OutcomeChallengerLost)
	s.Require().NoError(err)
	s.Equal(ResultAccepted, result.Kind)

	s.InDelta(416.0, s.rating("alice"), 1e-9)
	s.InDelta(384.0, s.rating("bob"), 1e-9)
	s.Equal([]string{"challenge applied but record not removed"}, s.alerter.messages())
}

func (s *EngineSuite) TestChallengeResolveFailureAlerts() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")
	_, err := s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.Require().NoError(err)

	s.storage.resolveErr = errBackendDown
	_, err = s.engine.Challenge(s.ctx, "bob", "alice", model.OutcomeChallengerLost)
	s.ErrorIs(err, ErrStoreUnavailable)
	s.Equal([]string{"challenge confirmation failed"}, s.alerter.messages())

	s.InDelta(400.0, s.rating("alice"), 1e-9)
	s.InDelta(400.0, s.rating("bob"), 1e-9)
}

func (s *EngineSuite) TestChallengeRecordGoneBeforeCommit() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")
	_, err := s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.Require().NoError(err)

	// Another confirmer committed between the lookup and the resolve
	s.storage.resolveErr = model.ErrChallengeNotFound
	_, err = s.engine.Challenge(s.ctx, "bob", "alice", model.OutcomeChallengerLost)
	s.ErrorIs(err, ErrNothingPending)
	s.Empty(s.alerter.messages())
}

func (s *EngineSuite) TestConcurrentConfirmationsApplyOnce() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")
	_, err := s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.Require().NoError(err)

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.engine.Confirm(s.ctx, "bob", "alice")
		}()
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
			continue
		}
		s.ErrorIs(err, ErrNothingPending)
	}
	s.Equal(1, accepted)
	s.InDelta(416.0, s.rating("alice"), 1e-9)
	s.InDelta(384.0, s.rating("bob"), 1e-9)
}

func (s *EngineSuite) TestSimultaneousOppositeProposals() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	pairs := [][2]model.PlayerID{{"alice", "bob"}, {"bob", "alice"}}
	for i, pair := range pairs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.engine.Challenge(s.ctx, pair[0], pair[1], model.OutcomeChallengerWon)
		}()
	}
	wg.Wait()

	// Either one proposes and the other is rejected, or the second is routed
	// into confirming the first
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, ErrDuplicateChallenge)
	}
	s.GreaterOrEqual(succeeded, 1)

	aliceList, err := s.storage.ListChallengesForPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.LessOrEqual(len(aliceList), 1)
	s.InDelta(800.0, s.rating("alice")+s.rating("bob"), 1e-9)
}

// Confirm tests

func (s *EngineSuite) TestConfirmNothingPending() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")

	_, err := s.engine.Confirm(s.ctx, "bob", "alice")
	s.ErrorIs(err, ErrNothingPending)
}

func (s *EngineSuite) TestConfirmOwnProposalIsNothingPending() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")
	_, err := s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.Require().NoError(err)

	_, err = s.engine.Confirm(s.ctx, "alice", "bob")
	s.ErrorIs(err, ErrNothingPending)
}

func (s *EngineSuite) TestConfirmTwice() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")
	_, err := s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerLost)
	s.Require().NoError(err)

	result, err := s.engine.Confirm(s.ctx, "bob", "alice")
	s.Require().NoError(err)
	s.Equal("Bob", result.Winner().Name)

	_, err = s.engine.Confirm(s.ctx, "bob", "alice")
	s.ErrorIs(err, ErrNothingPending)

	s.InDelta(384.0, s.rating("alice"), 1e-9)
	s.InDelta(416.0, s.rating("bob"), 1e-9)
}

func (s *EngineSuite) TestConfirmUnregisteredCaller() {
	s.register("bob", "Bob")

	_, err := s.engine.Confirm(s.ctx, "alice", "bob")
	s.ErrorIs(err, ErrCallerNotRegistered)
}

// Withdraw tests

func (s *EngineSuite) TestWithdrawRemovesOwnChallenge() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")
	_, err := s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.Require().NoError(err)

	s.Require().NoError(s.engine.Withdraw(s.ctx, "alice", "bob"))

	_, err = s.storage.FindChallenge(s.ctx, "alice", "bob")
	s.ErrorIs(err, model.ErrChallengeNotFound)

	// The pair is free again
	_, err = s.engine.Challenge(s.ctx, "bob", "alice", model.OutcomeChallengerWon)
	s.NoError(err)
}

func (s *EngineSuite) TestWithdrawCannotRemoveIncoming() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")
	_, err := s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.Require().NoError(err)

	err = s.engine.Withdraw(s.ctx, "bob", "alice")
	s.ErrorIs(err, ErrNothingPending)

	_, err = s.storage.FindChallenge(s.ctx, "alice", "bob")
	s.NoError(err)
}

// Pending tests

func (s *EngineSuite) TestPendingSplitsByDirection() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")
	s.register("carol", "Carol")

	_, err := s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.Require().NoError(err)
	_, err = s.engine.Challenge(s.ctx, "carol", "alice", model.OutcomeChallengerLost)
	s.Require().NoError(err)

	list, err := s.engine.Pending(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(list.Outgoing, 1)
	s.Require().Len(list.Incoming, 1)
	s.Equal(model.PlayerID("bob"), list.Outgoing[0].OpponentID)
	s.Equal(model.PlayerID("carol"), list.Incoming[0].ChallengerID)
}

func (s *EngineSuite) TestPendingEmpty() {
	s.register("alice", "Alice")

	list, err := s.engine.Pending(s.ctx, "alice")
	s.Require().NoError(err)
	s.Empty(list.Outgoing)
	s.Empty(list.Incoming)
}

func (s *EngineSuite) TestPendingUnregistered() {
	_, err := s.engine.Pending(s.ctx, "alice")
	s.ErrorIs(err, ErrCallerNotRegistered)
}

// Admin tests

func (s *EngineSuite) TestSetRating() {
	s.register("alice", "Alice")

	standing, err := s.engine.SetRating(s.ctx, "alice", 512.5)
	s.Require().NoError(err)
	s.InDelta(512.5, standing.Rating, 1e-9)
	s.InDelta(512.5, s.rating("alice"), 1e-9)
}

func (s *EngineSuite) TestSetRatingUnknownPlayer() {
	_, err := s.engine.SetRating(s.ctx, "ghost", 500)
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *EngineSuite) TestSetRatingRejectsNonFinite() {
	s.register("alice", "Alice")

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := s.engine.SetRating(s.ctx, "alice", v)
		s.ErrorIs(err, ErrInvalidRating)
	}
}

func (s *EngineSuite) TestCancelChallenge() {
	s.register("alice", "Alice")
	s.register("bob", "Bob")
	result, err := s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.Require().NoError(err)

	s.Require().NoError(s.engine.CancelChallenge(s.ctx, result.ChallengeID))
	s.Require().NoError(s.engine.CancelChallenge(s.ctx, result.ChallengeID))

	_, err = s.engine.Confirm(s.ctx, "bob", "alice")
	s.ErrorIs(err, ErrNothingPending)
}

// Config tests

func (s *EngineSuite) TestScaleDefaultsToInitialRating() {
	engine := NewEngine(s.storage, Config{InitialRating: 1000, Elo: elo.Config{KFactor: 32}}, s.clock, nil, testutil.NopLogger())
	s.InDelta(1000.0, engine.Config().Elo.Scale, 1e-9)
}

func (s *EngineSuite) TestScaleOverride() {
	engine := NewEngine(s.storage, Config{InitialRating: 1000, Elo: elo.Config{Scale: 400, KFactor: 32}}, s.clock, nil, testutil.NopLogger())
	s.InDelta(400.0, engine.Config().Elo.Scale, 1e-9)
}

func (s *EngineSuite) TestDefaultAlerterLogs() {
	logger, buf := testutil.BufferLogger()
	s.storage.resolveErr = errBackendDown
	engine := NewEngine(s.storage, DefaultConfig(), s.clock, nil, logger)

	s.register("alice", "Alice")
	s.register("bob", "Bob")
	_, err := engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.Require().NoError(err)
	_, err = engine.Confirm(s.ctx, "bob", "alice")
	s.Require().Error(err)

	s.Contains(buf.String(), `"alert":true`)
	s.Contains(buf.String(), `"component":"ladder"`)
}
