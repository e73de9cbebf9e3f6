package ladder

import (
	"context"
	"sync"

	"github.com/mcoot/eloladder/internal/model"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Notify(_ context.Context, event Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) kinds() []EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	kinds := make([]EventKind, len(n.events))
	for i, e := range n.events {
		kinds[i] = e.Kind
	}
	return kinds
}

// Test: Each stored change publishes one event to the right players
func (s *EngineSuite) TestNotifierReceivesLifecycle() {
	notifier := &recordingNotifier{}
	s.engine.SetNotifier(notifier)
	s.register("alice", "Alice")
	s.register("bob", "Bob")

	proposed, err := s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.Require().NoError(err)

	s.Require().Len(notifier.events, 1)
	event := notifier.events[0]
	s.Equal(EventProposed, event.Kind)
	s.Equal(proposed.ChallengeID, event.Challenge.ID)
	s.Equal([]model.PlayerID{"bob"}, event.Recipients())
	s.Same(proposed, event.Result)

	s.Require().NoError(s.engine.Withdraw(s.ctx, "alice", "bob"))
	s.Equal([]model.PlayerID{"bob"}, notifier.events[1].Recipients())
	s.Nil(notifier.events[1].Result)

	_, err = s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.Require().NoError(err)
	accepted, err := s.engine.Confirm(s.ctx, "bob", "alice")
	s.Require().NoError(err)

	s.Equal([]EventKind{EventProposed, EventWithdrawn, EventProposed, EventAccepted}, notifier.kinds())
	last := notifier.events[3]
	s.Equal(accepted, last.Result)
	s.ElementsMatch([]model.PlayerID{"alice", "bob"}, last.Recipients())
}

// Test: Rejected operations publish nothing
func (s *EngineSuite) TestNotifierSilentOnFailure() {
	notifier := &recordingNotifier{}
	s.engine.SetNotifier(notifier)
	s.register("alice", "Alice")
	s.register("bob", "Bob")

	_, err := s.engine.Confirm(s.ctx, "bob", "alice")
	s.ErrorIs(err, ErrNothingPending)

	s.storage.createChallengeErr = errBackendDown
	_, err = s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.Error(err)

	s.Empty(notifier.kinds())
}

// Test: A nil notifier falls back to discarding events
func (s *EngineSuite) TestSetNotifierNil() {
	s.engine.SetNotifier(nil)
	s.register("alice", "Alice")
	s.register("bob", "Bob")

	_, err := s.engine.Challenge(s.ctx, "alice", "bob", model.OutcomeChallengerWon)
	s.NoError(err)
}
