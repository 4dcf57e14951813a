// Command multitool runs the multitool web server and its maintenance
// commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"multitool/internal/cli"
)

const appName = "multitool"

// Set with -ldflags "-X main.Version=...".
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFiles []string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "UK tax and NI calculator with reminders and small tools",
		Long: `multitool serves a JSON API and landing page for:

- UK income tax and National Insurance calculations from per-user parameters
- personal reminders
- QR code links and downloads
- a small arithmetic calculator

Configuration comes from the environment; a .env file is loaded if present.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.LoadEnvFile(envFiles...)
		},
	}
	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "env files to load (default .env)")

	cmd.AddCommand(
		serveCmd(),
		calcCmd(),
		migrateCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)
	return cmd
}
