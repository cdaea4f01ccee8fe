package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/shopfront-dev/shopfront/internal/config"
	"github.com/shopfront-dev/shopfront/internal/identity"
)

// NewCheckLoginCmd creates the check-login command
func NewCheckLoginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "check-login",
		Short: "Check admin credentials against the configured identity service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if password == "" {
				password = os.Getenv("SHOPFRONT_ADMIN_PASSWORD")
			}
			if password == "" {
				// Check if stdin is a terminal (not piped)
				if !term.IsTerminal(int(syscall.Stdin)) {
					return fmt.Errorf("password is required in non-interactive mode (use --password flag or SHOPFRONT_ADMIN_PASSWORD env var)")
				}
				fmt.Fprint(cmd.OutOrStdout(), "Password: ")
				bytePassword, err := term.ReadPassword(int(syscall.Stdin))
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = string(bytePassword)
				fmt.Fprintln(cmd.OutOrStdout())
			}

			client := identity.New(identity.Options{
				BaseURL:   cfg.Identity.BaseURL,
				LoginPath: cfg.Identity.LoginPath,
				APIKey:    cfg.Identity.APIKey,
				Timeout:   cfg.Identity.Timeout,
			})

			return runCheckLogin(cmd, client, username, password)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Admin username")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set SHOPFRONT_ADMIN_PASSWORD, will prompt if not provided)")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func runCheckLogin(cmd *cobra.Command, checker identity.Checker, username, password string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	err := checker.CheckCredentials(ctx, username, password)
	elapsed := time.Since(start).Round(time.Millisecond)

	switch {
	case err == nil:
		fmt.Fprintf(cmd.OutOrStdout(), "credentials accepted for %s (%s)\n", username, elapsed)
		return nil
	case errors.Is(err, identity.ErrInvalidCredentials):
		return fmt.Errorf("credentials rejected for %s", username)
	case errors.Is(err, identity.ErrNotConfigured):
		return fmt.Errorf("identity service is not configured (set IDENTITY_API_BASE): %w", err)
	default:
		return fmt.Errorf("identity service unavailable after %s: %w", elapsed, err)
	}
}
