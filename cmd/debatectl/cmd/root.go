// Package cmd implements the debatectl commands.
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	// Version is set at build time via ldflags
	Version = "dev"

	// Global flags
	serverURL    string
	rpcAddr      string
	transport    string
	outputFormat string
	timeout      time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "debatectl",
	Short: "Drive multi-agent debates through a debate bridge",
	Long: `debatectl starts debates on a debate bridge, polls their progress and
fetches, cancels or publishes the results.

Every command maps onto one bridge tool and prints the tool's text summary,
or the full result envelope with --output json or --output yaml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "bridge HTTP base URL")
	rootCmd.PersistentFlags().StringVar(&rpcAddr, "rpc-addr", "localhost:8081", "bridge JSON-RPC address")
	rootCmd.PersistentFlags().StringVarP(&transport, "transport", "t", "http", "transport to use (http, rpc)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format (text, json, yaml)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall request timeout")

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("debatectl {{.Version}}\n")
}

// commandContext bounds a command by the --timeout flag.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

func validateOutput() error {
	switch outputFormat {
	case "text", "json", "yaml":
		return nil
	}
	return fmt.Errorf("unknown output format %q (want text, json or yaml)", outputFormat)
}
