package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shopfront-dev/shopfront/internal/cli/commands"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the operator command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shopfront-admin",
		Short: "Operator tools for the shopfront admin gateway",
		Long: `shopfront-admin inspects and exercises the admin session setup.

It reads the same environment (and .env files) as the gateway server, so
it can mint or verify session tokens with AUTH_SECRET and probe the
identity service configured in IDENTITY_API_BASE.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "shopfront-admin version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewTokenCmd())
	rootCmd.AddCommand(commands.NewCheckLoginCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
