package cli

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/eloladder/internal/model"
	"github.com/mcoot/eloladder/internal/services/identity"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Bearer token commands",
	}

	cmd.AddCommand(newTokenIssueCmd())

	return cmd
}

func newTokenIssueCmd() *cobra.Command {
	var (
		player string
		secret string
		ttl    time.Duration
		save   bool
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a token for a player with the server's secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = envOr("LADDER_TOKEN_SECRET", "")
			}

			token, err := identity.IssueToken(secret, model.PlayerID(player), ttl, time.Now())
			if err != nil {
				return err
			}

			if save {
				if err := cfg.SaveToken(token); err != nil {
					return fmt.Errorf("failed to save token: %w", err)
				}
			}

			newOutput(cmd).Print(TokenResult{PlayerID: player, Token: token})
			return nil
		},
	}

	cmd.Flags().StringVar(&player, "player", "", "Player id to issue the token for (required)")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (env: LADDER_TOKEN_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", identity.DefaultConfig().TokenTTL, "Token lifetime, 0 for no expiry")
	cmd.Flags().BoolVar(&save, "save", true, "Save the token to the token file")
	_ = cmd.MarkFlagRequired("player")

	return cmd
}

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative commands (require --admin-key)",
	}

	cmd.PersistentFlags().StringVar(&cfg.AdminKey, "admin-key", cfg.AdminKey, "Admin key (env: LADDER_ADMIN_KEY)")

	cmd.AddCommand(newAdminSetRatingCmd())
	cmd.AddCommand(newAdminCancelCmd())
	cmd.AddCommand(newAdminHashKeyCmd())

	return cmd
}

func newAdminSetRatingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-rating <player-id> <rating>",
		Short: "Overwrite a player's rating",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rating, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid rating %q: %w", args[1], err)
			}

			req := map[string]float64{"rating": rating}
			var result Standing

			path := "/api/v1/admin/players/" + url.PathEscape(args[0]) + "/rating"
			if err := client.Put(path, req, &result); err != nil {
				return err
			}

			newOutput(cmd).Print(result)
			return nil
		},
	}
}

func newAdminCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <challenge-id>",
		Short: "Remove a pending challenge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid challenge id %q", args[0])
			}

			if err := client.Delete("/api/v1/admin/challenges/" + strconv.FormatInt(id, 10)); err != nil {
				return err
			}

			newOutput(cmd).PrintMessage(fmt.Sprintf("Challenge #%d cancelled", id))
			return nil
		},
	}
}

func newAdminHashKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key <key>",
		Short: "Print the bcrypt hash to configure as LADDER_ADMIN_KEY_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := identity.HashAdminKey(args[0])
			if err != nil {
				return err
			}

			newOutput(cmd).Print(TokenResult{Hash: hash})
			return nil
		},
	}
}
