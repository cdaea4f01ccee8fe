package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shopfront-dev/shopfront/internal/auth"
	"github.com/shopfront-dev/shopfront/internal/config"
)

// NewTokenCmd creates the token command group
func NewTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint or verify admin session tokens",
	}

	cmd.AddCommand(newTokenMintCmd())
	cmd.AddCommand(newTokenVerifyCmd())

	return cmd
}

func newTokenMintCmd() *cobra.Command {
	var cookie bool

	cmd := &cobra.Command{
		Use:   "mint <username>",
		Short: "Mint a session token for an admin (for debugging and smoke tests)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := loadCodec()
			if err != nil {
				return err
			}

			token, err := codec.Mint(args[0])
			if err != nil {
				return err
			}

			if cookie {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", auth.CookieName, token)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().BoolVar(&cookie, "cookie", false, "Print as a name=value cookie pair")

	return cmd
}

func newTokenVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token>",
		Short: "Verify a session token and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := loadCodec()
			if err != nil {
				return err
			}

			session, err := codec.Inspect(args[0])
			if err != nil {
				return fmt.Errorf("token rejected: %w", err)
			}

			out, err := json.MarshalIndent(struct {
				*auth.Session
				ExpiresIn string `json:"expires_in"`
			}{
				Session:   session,
				ExpiresIn: time.Until(session.ExpiresAt).Round(time.Second).String(),
			}, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode claims: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func loadCodec() (*auth.TokenCodec, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return auth.NewTokenCodec(cfg.Auth.Secret)
}
