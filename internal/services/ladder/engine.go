package ladder

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/mcoot/eloladder/internal/dependencies/clock"
	"github.com/mcoot/eloladder/internal/model"
	"github.com/mcoot/eloladder/internal/services/elo"
	"github.com/mcoot/eloladder/internal/storage"
)

// Config holds the rating constants for the engine. Immutable after construction.
type Config struct {
	// InitialRating is given to every newly registered player
	InitialRating float64
	// Elo holds the formula constants. Elo.Scale defaults to InitialRating.
	Elo elo.Config
}

// DefaultConfig returns the default ladder configuration
func DefaultConfig() Config {
	return Config{
		InitialRating: 400,
		Elo: elo.Config{
			Scale:   400,
			KFactor: 32,
		},
	}
}

// Engine runs registration, rating lookup and the challenge state machine.
// It holds no player or challenge state between calls.
type Engine struct {
	storage storage.Storage
	cfg     Config
	clock   clock.Clock
	alerter  Alerter
	notifier Notifier
	logger   *slog.Logger
}

// NewEngine creates a new Engine
func NewEngine(
	storage storage.Storage,
	cfg Config,
	clock clock.Clock,
	alerter Alerter,
	logger *slog.Logger,
) *Engine {
	if cfg.Elo.Scale == 0 {
		cfg.Elo.Scale = cfg.InitialRating
	}
	logger = logger.With(slog.String("component", "ladder"))
	if alerter == nil {
		alerter = NewLogAlerter(logger)
	}
	return &Engine{
		storage:  storage,
		cfg:      cfg,
		clock:    clock,
		alerter:  alerter,
		notifier: nopNotifier{},
		logger:   logger,
	}
}

// SetNotifier routes challenge events to n. Call before the engine is shared.
func (e *Engine) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	e.notifier = n
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// Register creates a player for callerID with the configured initial rating
func (e *Engine) Register(ctx context.Context, callerID model.PlayerID, rawName string) (*Standing, error) {
	name := normalizeName(rawName)
	if name == "" {
		return nil, ErrInvalidName
	}

	existing, err := e.storage.GetPlayer(ctx, callerID)
	if err == nil {
		return nil, &AlreadyRegisteredError{Name: existing.DisplayName}
	}
	if !errors.Is(err, model.ErrPlayerNotFound) {
		return nil, storeErr("get player", err)
	}

	player := &model.Player{
		ID:          callerID,
		DisplayName: name,
		Rating:      e.cfg.InitialRating,
		CreatedAt:   e.clock.Now(),
	}

	if err := e.storage.CreatePlayer(ctx, player); err != nil {
		if errors.Is(err, model.ErrPlayerExists) {
			// Lost a race with a concurrent registration of the same identity
			if existing, getErr := e.storage.GetPlayer(ctx, callerID); getErr == nil {
				return nil, &AlreadyRegisteredError{Name: existing.DisplayName}
			}
			return nil, ErrAlreadyRegistered
		}
		e.logger.Error("failed to create player",
			slog.String("player_id", string(callerID)),
			slog.String("error", err.Error()),
		)
		return nil, storeErr("create player", err)
	}

	e.logger.Info("player registered",
		slog.String("player_id", string(callerID)),
		slog.String("name", name),
	)

	s := standingOf(player)
	return &s, nil
}

// Inspect returns the standing of targetID, or of the caller when targetID is empty
func (e *Engine) Inspect(ctx context.Context, callerID, targetID model.PlayerID) (*Standing, error) {
	if targetID == "" {
		player, err := e.loadPlayer(ctx, callerID, ErrCallerNotRegistered)
		if err != nil {
			return nil, err
		}
		s := standingOf(player)
		return &s, nil
	}

	player, err := e.loadPlayer(ctx, targetID, &UserNotFoundError{ID: targetID})
	if err != nil {
		return nil, err
	}
	s := standingOf(player)
	return &s, nil
}

// Challenge records a result against opponentID, declared from the caller's side.
//
// If the opponent already proposed a challenge naming the caller, this call
// confirms it and the stored deltas are applied to both players. If the caller
// already has a challenge pending against the opponent it fails with
// ErrDuplicateChallenge. Otherwise a new challenge is proposed.
func (e *Engine) Challenge(ctx context.Context, callerID, opponentID model.PlayerID, declared model.Outcome) (*ChallengeResult, error) {
	if !declared.Valid() {
		return nil, model.ErrInvalidOutcome
	}
	if callerID == opponentID {
		return nil, ErrSelfChallenge
	}

	caller, opponent, err := e.loadPair(ctx, callerID, opponentID)
	if err != nil {
		return nil, err
	}

	incoming, err := e.storage.FindChallenge(ctx, opponentID, callerID)
	switch {
	case err == nil:
		if incoming.Outcome != declared.Reverse() {
			e.logger.Warn("confirmation declared a different outcome, applying the proposed one",
				slog.Int64("challenge_id", int64(incoming.ID)),
				slog.String("proposed", string(incoming.Outcome)),
				slog.String("declared", string(declared)),
			)
		}
		return e.resolve(ctx, incoming)
	case !errors.Is(err, model.ErrChallengeNotFound):
		return nil, storeErr("find challenge", err)
	}

	_, err = e.storage.FindChallenge(ctx, callerID, opponentID)
	switch {
	case err == nil:
		return nil, ErrDuplicateChallenge
	case !errors.Is(err, model.ErrChallengeNotFound):
		return nil, storeErr("find challenge", err)
	}

	return e.propose(ctx, caller, opponent, declared)
}

// Confirm accepts the challenge opponentID proposed against the caller.
// Unlike Challenge it never proposes: with nothing pending it fails with
// ErrNothingPending.
func (e *Engine) Confirm(ctx context.Context, callerID, opponentID model.PlayerID) (*ChallengeResult, error) {
	if callerID == opponentID {
		return nil, ErrSelfChallenge
	}
	if _, _, err := e.loadPair(ctx, callerID, opponentID); err != nil {
		return nil, err
	}

	incoming, err := e.storage.FindChallenge(ctx, opponentID, callerID)
	if err != nil {
		if errors.Is(err, model.ErrChallengeNotFound) {
			return nil, ErrNothingPending
		}
		return nil, storeErr("find challenge", err)
	}

	return e.resolve(ctx, incoming)
}

// Withdraw removes the caller's own pending challenge against opponentID
func (e *Engine) Withdraw(ctx context.Context, callerID, opponentID model.PlayerID) error {
	if _, err := e.loadPlayer(ctx, callerID, ErrCallerNotRegistered); err != nil {
		return err
	}

	pending, err := e.storage.FindChallenge(ctx, callerID, opponentID)
	if err != nil {
		if errors.Is(err, model.ErrChallengeNotFound) {
			return ErrNothingPending
		}
		return storeErr("find challenge", err)
	}

	if err := e.storage.DeleteChallenge(ctx, pending.ID); err != nil {
		return storeErr("delete challenge", err)
	}

	e.logger.Info("challenge withdrawn",
		slog.Int64("challenge_id", int64(pending.ID)),
		slog.String("challenger_id", string(callerID)),
		slog.String("opponent_id", string(opponentID)),
	)

	e.notifier.Notify(ctx, Event{Kind: EventWithdrawn, Challenge: *pending})
	return nil
}

// Pending lists the challenges involving the caller
func (e *Engine) Pending(ctx context.Context, callerID model.PlayerID) (*PendingList, error) {
	if _, err := e.loadPlayer(ctx, callerID, ErrCallerNotRegistered); err != nil {
		return nil, err
	}

	challenges, err := e.storage.ListChallengesForPlayer(ctx, callerID)
	if err != nil {
		return nil, storeErr("list challenges", err)
	}

	list := &PendingList{
		Outgoing: []model.PendingChallenge{},
		Incoming: []model.PendingChallenge{},
	}
	for _, c := range challenges {
		if c.ChallengerID == callerID {
			list.Outgoing = append(list.Outgoing, *c)
		} else {
			list.Incoming = append(list.Incoming, *c)
		}
	}
	return list, nil
}

// SetRating overwrites a player's rating. Administrative.
func (e *Engine) SetRating(ctx context.Context, targetID model.PlayerID, rating float64) (*Standing, error) {
	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		return nil, ErrInvalidRating
	}

	if err := e.storage.SetPlayerRating(ctx, targetID, rating); err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return nil, &UserNotFoundError{ID: targetID}
		}
		return nil, storeErr("set player rating", err)
	}

	e.logger.Info("rating overwritten",
		slog.String("player_id", string(targetID)),
		slog.Float64("rating", rating),
	)

	return e.Inspect(ctx, targetID, targetID)
}

// CancelChallenge removes a pending challenge by id. Administrative; a
// missing challenge is not an error.
func (e *Engine) CancelChallenge(ctx context.Context, id model.ChallengeID) error {
	if err := e.storage.DeleteChallenge(ctx, id); err != nil {
		return storeErr("delete challenge", err)
	}

	e.logger.Info("challenge cancelled", slog.Int64("challenge_id", int64(id)))
	return nil
}

// propose stores a new challenge with deltas computed from current ratings
func (e *Engine) propose(ctx context.Context, caller, opponent *model.Player, declared model.Outcome) (*ChallengeResult, error) {
	deltas := e.cfg.Elo.Compute(caller.Rating, opponent.Rating, declared == model.OutcomeChallengerWon)

	pending := &model.PendingChallenge{
		ChallengerID:    caller.ID,
		OpponentID:      opponent.ID,
		Outcome:         declared,
		ChallengerDelta: deltas.Caller,
		OpponentDelta:   deltas.Opponent,
		CreatedAt:       e.clock.Now(),
	}

	id, err := e.storage.CreateChallenge(ctx, pending)
	if err != nil {
		if errors.Is(err, model.ErrChallengeExists) {
			// A challenge for this pair was stored after our lookups
			return nil, ErrDuplicateChallenge
		}
		e.logger.Error("failed to save challenge",
			slog.String("challenger_id", string(caller.ID)),
			slog.String("opponent_id", string(opponent.ID)),
			slog.String("error", err.Error()),
		)
		return nil, storeErr("create challenge", err)
	}

	e.logger.Info("challenge proposed",
		slog.Int64("challenge_id", int64(id)),
		slog.String("challenger_id", string(caller.ID)),
		slog.String("opponent_id", string(opponent.ID)),
		slog.String("outcome", string(declared)),
	)

	pending.ID = id
	result := &ChallengeResult{
		Kind:            ResultProposed,
		ChallengeID:     id,
		Outcome:         declared,
		Challenger:      standingOf(caller),
		Opponent:        standingOf(opponent),
		ChallengerDelta: deltas.Caller,
		OpponentDelta:   deltas.Opponent,
	}

	e.notifier.Notify(ctx, Event{Kind: EventProposed, Challenge: *pending, Result: result})
	return result, nil
}

// resolve commits a pending challenge. The store removes the record and
// applies both deltas as one unit, so only one of several concurrent
// confirmations can succeed.
func (e *Engine) resolve(ctx context.Context, pending *model.PendingChallenge) (*ChallengeResult, error) {
	attrs := []slog.Attr{
		slog.Int64("challenge_id", int64(pending.ID)),
		slog.String("challenger_id", string(pending.ChallengerID)),
		slog.String("opponent_id", string(pending.OpponentID)),
	}

	res, err := e.storage.ResolveChallenge(ctx, pending.ID)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrChallengeNotFound):
		return nil, ErrNothingPending
	case errors.Is(err, storage.ErrCommitIncomplete) && res != nil:
		// Ratings are final; the stale record only blocks new challenges for the pair
		e.alerter.Alert(ctx, "challenge applied but record not removed",
			append(attrs, slog.String("error", err.Error()))...)
	default:
		e.alerter.Alert(ctx, "challenge confirmation failed",
			append(attrs, slog.String("error", err.Error()))...)
		return nil, storeErr("resolve challenge", err)
	}

	e.logger.LogAttrs(ctx, slog.LevelInfo, "challenge accepted",
		append(attrs,
			slog.String("outcome", string(res.Challenge.Outcome)),
			slog.Float64("challenger_rating", res.Challenger.Rating),
			slog.Float64("opponent_rating", res.Opponent.Rating),
		)...)

	result := &ChallengeResult{
		Kind:            ResultAccepted,
		ChallengeID:     res.Challenge.ID,
		Outcome:         res.Challenge.Outcome,
		Challenger:      standingOf(&res.Challenger),
		Opponent:        standingOf(&res.Opponent),
		ChallengerDelta: res.Challenge.ChallengerDelta,
		OpponentDelta:   res.Challenge.OpponentDelta,
	}

	e.notifier.Notify(ctx, Event{Kind: EventAccepted, Challenge: res.Challenge, Result: result})
	return result, nil
}

// loadPair loads caller and opponent, mapping misses to the caller-facing errors
func (e *Engine) loadPair(ctx context.Context, callerID, opponentID model.PlayerID) (*model.Player, *model.Player, error) {
	caller, err := e.loadPlayer(ctx, callerID, ErrCallerNotRegistered)
	if err != nil {
		return nil, nil, err
	}
	opponent, err := e.loadPlayer(ctx, opponentID, &OpponentNotFoundError{ID: opponentID})
	if err != nil {
		return nil, nil, err
	}
	return caller, opponent, nil
}

// loadPlayer returns notFound on a miss and a StoreError on any other failure
func (e *Engine) loadPlayer(ctx context.Context, id model.PlayerID, notFound error) (*model.Player, error) {
	player, err := e.storage.GetPlayer(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return nil, notFound
		}
		return nil, storeErr("get player", err)
	}
	return player, nil
}

// normalizeName trims surrounding whitespace and composes the name to NFC
func normalizeName(raw string) string {
	return strings.TrimSpace(norm.NFC.String(raw))
}
