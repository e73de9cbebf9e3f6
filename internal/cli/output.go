package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mcoot/eloladder/internal/services/elo"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
	errW   io.Writer
}

// NewOutput creates a new Output formatter writing to stdout and stderr
func NewOutput(format string) *Output {
	return NewOutputTo(format, os.Stdout, os.Stderr)
}

// NewOutputTo creates an Output formatter writing to the given writers
func NewOutputTo(format string, w, errW io.Writer) *Output {
	return &Output{format: format, w: w, errW: errW}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(o.errW, string(data))
	} else {
		fmt.Fprintf(o.errW, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

// PrintEvent outputs one streamed event
func (o *Output) PrintEvent(event string, data []byte) {
	if o.format == "json" {
		line, err := json.Marshal(map[string]any{"event": event, "data": json.RawMessage(data)})
		if err != nil {
			// Not JSON; pass it through as a string
			line, _ = json.Marshal(map[string]string{"event": event, "data": string(data)})
		}
		fmt.Fprintln(o.w, string(line))
		return
	}

	switch event {
	case "connected":
		var hello struct {
			PlayerID string `json:"player_id"`
		}
		_ = json.Unmarshal(data, &hello)
		fmt.Fprintf(o.w, "Listening for challenges to %s\n", hello.PlayerID)
	case "challenge_proposed", "challenge_withdrawn", "challenge_accepted":
		var e Event
		if err := json.Unmarshal(data, &e); err != nil {
			fmt.Fprintf(o.w, "%s: %s\n", event, data)
			return
		}
		o.printEvent(e)
	default:
		fmt.Fprintf(o.w, "%s: %s\n", event, data)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Standing:
		o.printStanding(v)
	case ChallengeResult:
		o.printChallengeResult(v)
	case PendingList:
		o.printPendingList(v)
	case HealthResult:
		o.printHealthResult(v)
	case TokenResult:
		o.printTokenResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Standing response type (matches API)
type Standing struct {
	PlayerID      string  `json:"player_id"`
	DisplayName   string  `json:"display_name"`
	Rating        float64 `json:"rating"`
	DisplayRating int64   `json:"display_rating"`
}

// ChallengeResult response type
type ChallengeResult struct {
	Result          string   `json:"result"`
	ChallengeID     int64    `json:"challenge_id"`
	Outcome         string   `json:"outcome"`
	Challenger      Standing `json:"challenger"`
	Opponent        Standing `json:"opponent"`
	ChallengerDelta float64  `json:"challenger_delta"`
	OpponentDelta   float64  `json:"opponent_delta"`
	Winner          string   `json:"winner"`
	Loser           string   `json:"loser"`
}

// PendingChallenge response type
type PendingChallenge struct {
	ID              int64     `json:"id"`
	ChallengerID    string    `json:"challenger_id"`
	OpponentID      string    `json:"opponent_id"`
	Outcome         string    `json:"outcome"`
	ChallengerDelta float64   `json:"challenger_delta"`
	OpponentDelta   float64   `json:"opponent_delta"`
	CreatedAt       time.Time `json:"created_at"`
}

// PendingList response type
type PendingList struct {
	Outgoing []PendingChallenge `json:"outgoing"`
	Incoming []PendingChallenge `json:"incoming"`
}

// Event is the data of a streamed challenge event
type Event struct {
	Kind      string           `json:"kind"`
	Challenge PendingChallenge `json:"challenge"`
	Result    *ChallengeResult `json:"result,omitempty"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// TokenResult is printed by offline token and key commands
type TokenResult struct {
	PlayerID string `json:"player_id,omitempty"`
	Token    string `json:"token,omitempty"`
	Hash     string `json:"hash,omitempty"`
}

const challengerWon = "challenger_won"

func (o *Output) printStanding(s Standing) {
	fmt.Fprintf(o.w, "%s (%s): %s\n", s.DisplayName, s.PlayerID, elo.FormatRating(s.Rating))
}

type side struct {
	standing Standing
	delta    float64
}

func (o *Output) printChallengeResult(r ChallengeResult) {
	winner := side{r.Challenger, r.ChallengerDelta}
	loser := side{r.Opponent, r.OpponentDelta}
	if r.Outcome != challengerWon {
		winner, loser = loser, winner
	}

	if r.Result == "proposed" {
		fmt.Fprintf(o.w, "Challenge #%d proposed: %s beat %s\n",
			r.ChallengeID, winner.standing.DisplayName, loser.standing.DisplayName)
		fmt.Fprintf(o.w, "Waiting for %s to confirm\n", r.Opponent.DisplayName)
		fmt.Fprintf(o.w, "If confirmed: %s %s, %s %s\n",
			winner.standing.DisplayName, elo.FormatDelta(winner.delta),
			loser.standing.DisplayName, elo.FormatDelta(loser.delta))
		return
	}

	fmt.Fprintf(o.w, "Challenge #%d confirmed: %s beat %s\n",
		r.ChallengeID, winner.standing.DisplayName, loser.standing.DisplayName)
	for _, s := range []side{winner, loser} {
		fmt.Fprintf(o.w, "  %s: %s (%s)\n",
			s.standing.DisplayName, elo.FormatRating(s.standing.Rating), elo.FormatDelta(s.delta))
	}
}

func (o *Output) printPendingList(l PendingList) {
	if len(l.Outgoing) == 0 && len(l.Incoming) == 0 {
		fmt.Fprintln(o.w, "No pending challenges")
		return
	}

	if len(l.Outgoing) > 0 {
		fmt.Fprintf(o.w, "Awaiting confirmation (%d):\n", len(l.Outgoing))
		for _, c := range l.Outgoing {
			fmt.Fprintf(o.w, "  #%d vs %s: you %s (you %s, them %s)\n",
				c.ID, c.OpponentID, result(c.Outcome == challengerWon),
				elo.FormatDelta(c.ChallengerDelta), elo.FormatDelta(c.OpponentDelta))
		}
	}

	if len(l.Incoming) > 0 {
		fmt.Fprintf(o.w, "To confirm (%d):\n", len(l.Incoming))
		for _, c := range l.Incoming {
			fmt.Fprintf(o.w, "  #%d from %s: you %s (you %s, them %s)\n",
				c.ID, c.ChallengerID, result(c.Outcome != challengerWon),
				elo.FormatDelta(c.OpponentDelta), elo.FormatDelta(c.ChallengerDelta))
		}
	}
}

// printEvent describes an event from the recipient's side. Proposals and
// withdrawals go to the opponent; accepted results go to both players.
func (o *Output) printEvent(e Event) {
	c := e.Challenge
	switch e.Kind {
	case "challenge_proposed":
		fmt.Fprintf(o.w, "New challenge #%d from %s: you %s (you %s, them %s)\n",
			c.ID, c.ChallengerID, result(c.Outcome != challengerWon),
			elo.FormatDelta(c.OpponentDelta), elo.FormatDelta(c.ChallengerDelta))
	case "challenge_withdrawn":
		fmt.Fprintf(o.w, "Challenge #%d from %s withdrawn\n", c.ID, c.ChallengerID)
	case "challenge_accepted":
		if e.Result != nil {
			o.printChallengeResult(*e.Result)
		}
	}
}

func result(won bool) string {
	if won {
		return "won"
	}
	return "lost"
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}

func (o *Output) printTokenResult(t TokenResult) {
	if t.Token != "" {
		fmt.Fprintf(o.w, "Token for %s: %s\n", t.PlayerID, t.Token)
	}
	if t.Hash != "" {
		fmt.Fprintf(o.w, "Admin key hash: %s\n", t.Hash)
	}
}
