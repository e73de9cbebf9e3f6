package sse

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mcoot/eloladder/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 32
)

// pingPeriod is the interval between keepalive comments. Tests shorten it.
var pingPeriod = 30 * time.Second

// Client is one open event stream
type Client struct {
	playerID    model.PlayerID
	send        chan []byte
	connectedAt time.Time
}

// NewClient creates a new SSE client
func NewClient(playerID model.PlayerID) *Client {
	return &Client{
		playerID:    playerID,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// ServeSSE streams the player's events until the request ends or the hub closes
func ServeSSE(w http.ResponseWriter, r *http.Request, manager *HubManager, playerID model.PlayerID) {
	rc := http.NewResponseController(w)

	// A hub can close between lookup and registration; the retry gets a fresh one
	client := NewClient(playerID)
	hub := manager.GetOrCreateHub(playerID)
	if !hub.Register(client) {
		hub = manager.GetOrCreateHub(playerID)
		if !hub.Register(client) {
			http.Error(w, "event stream unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	defer hub.Unregister(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	write := func(message []byte) bool {
		_ = rc.SetWriteDeadline(time.Now().Add(writeWait))
		if _, err := w.Write(message); err != nil {
			return false
		}
		return rc.Flush() == nil
	}

	hello, _ := json.Marshal(map[string]model.PlayerID{"player_id": playerID})
	if !write(formatMessage("connected", string(hello))) {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				// Hub closed the channel
				return
			}
			if !write(message) {
				return
			}

		case <-ticker.C:
			if !write([]byte(": keepalive\n\n")) {
				return
			}

		case <-r.Context().Done():
			return
		}
	}
}
