package ladder

import (
	"context"

	"github.com/mcoot/eloladder/internal/model"
)

// EventKind names a change to a pending challenge
type EventKind string

const (
	EventProposed  EventKind = "challenge_proposed"
	EventAccepted  EventKind = "challenge_accepted"
	EventWithdrawn EventKind = "challenge_withdrawn"
)

// Event is published once a challenge change has been stored
type Event struct {
	Kind      EventKind
	Challenge model.PendingChallenge
	// Result is nil for EventWithdrawn
	Result *ChallengeResult
}

// Recipients returns the players to tell about the event. The actor already
// knows, except for an accepted result which both sides hear about.
func (e Event) Recipients() []model.PlayerID {
	if e.Kind == EventAccepted {
		return []model.PlayerID{e.Challenge.ChallengerID, e.Challenge.OpponentID}
	}
	return []model.PlayerID{e.Challenge.OpponentID}
}

// Notifier receives challenge events. Notify must not block.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) {}
