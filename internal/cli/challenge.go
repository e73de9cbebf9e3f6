package cli

import (
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/eloladder/internal/model"
)

func newChallengeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "challenge <opponent-id> <win|lose>",
		Short: "Report a result against an opponent",
		Long: `Report a result against an opponent, from your side.

If the opponent already reported this match against you, this confirms their
report and ratings change immediately. Otherwise a challenge is proposed and
waits for the opponent to confirm.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Validate locally for a friendlier error
			if _, err := model.ParseOutcome(args[1]); err != nil {
				return err
			}

			req := map[string]string{
				"opponent_id": args[0],
				"outcome":     args[1],
			}
			var result ChallengeResult

			if err := client.Post("/api/v1/challenges", req, &result); err != nil {
				return err
			}

			newOutput(cmd).Print(result)
			return nil
		},
	}
}

func newConfirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <opponent-id>",
		Short: "Confirm the result an opponent reported against you",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ChallengeResult

			path := "/api/v1/challenges/" + url.PathEscape(args[0]) + "/confirm"
			if err := client.Post(path, nil, &result); err != nil {
				return err
			}

			newOutput(cmd).Print(result)
			return nil
		},
	}
}

func newWithdrawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <opponent-id>",
		Short: "Withdraw your unconfirmed challenge against an opponent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/challenges/" + url.PathEscape(args[0])); err != nil {
				return err
			}

			newOutput(cmd).PrintMessage("Challenge withdrawn")
			return nil
		},
	}
}

func newPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List challenges waiting on you or your opponents",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result PendingList

			if err := client.Get("/api/v1/challenges", &result); err != nil {
				return err
			}

			newOutput(cmd).Print(result)
			return nil
		},
	}
}
