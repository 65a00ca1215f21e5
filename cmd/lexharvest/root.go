package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for lexharvest.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lexharvest",
		Short: "Vocabulary extraction tool for autocomplete endpoints",
		Long: `lexharvest reconstructs the vocabulary behind an opaque, paginated,
rate-limited autocomplete endpoint by breadth-first prefix exploration.

Before crawling, it probes the endpoint to discover the richest API
version and a safe request rate, then walks the prefix space expanding
every prefix whose result page appears truncated.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewCalibrateCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
