package sse

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mcoot/eloladder/internal/api/response"
	"github.com/mcoot/eloladder/internal/services/ladder"
)

// Broadcaster delivers ladder events to the streams of their recipients
type Broadcaster struct {
	hubManager *HubManager
	logger     *slog.Logger
}

// Ensure Broadcaster implements ladder.Notifier
var _ ladder.Notifier = (*Broadcaster)(nil)

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		logger:     logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// Notify sends the event to each recipient with an open stream. Players
// without one miss it; pending challenges stay listable.
func (b *Broadcaster) Notify(_ context.Context, event ladder.Event) {
	data, err := json.Marshal(response.EventFromLadder(event))
	if err != nil {
		b.logger.Error("sse failed to encode event",
			slog.String("event", string(event.Kind)),
			slog.Any("error", err))
		return
	}

	for _, id := range event.Recipients() {
		if hub := b.hubManager.GetHub(id); hub != nil {
			hub.Send(string(event.Kind), string(data))
		}
	}
}
