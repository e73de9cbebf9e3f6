package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Stream challenge events as they happen",
		Long: `Connect to the server's event stream and print challenge events in real time.

Events include:
  - challenge_proposed: an opponent reported a result against you
  - challenge_withdrawn: an opponent withdrew their report
  - challenge_accepted: a result involving you was confirmed

Press Ctrl+C to disconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return streamEvents(ctx, newOutput(cmd))
		},
	}
}

func streamEvents(ctx context.Context, out *Output) error {
	body, err := client.Stream(ctx, "/api/v1/events")
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	err = readEvents(body, out.PrintEvent)
	if ctx.Err() != nil {
		// Interrupted by the user
		return nil
	}
	if err != nil {
		return fmt.Errorf("stream error: %w", err)
	}

	out.PrintMessage("Disconnected")
	return nil
}

// readEvents parses a server-sent event stream, calling fn once per event
func readEvents(r io.Reader, fn func(event string, data []byte)) error {
	scanner := bufio.NewScanner(r)
	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			if currentEvent != "" {
				fn(currentEvent, []byte(strings.Join(dataLines, "\n")))
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	return scanner.Err()
}
