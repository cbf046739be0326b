package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "vega",
	Short: "Vega - deal desk policy evaluation and routing",
	Long: `Vega evaluates sales deals against configurable review rules and routes
escalations to the teams that need to approve them.

It provides:
  - Rule-based deal evaluation with per-segment thresholds
  - Weighted escalation routing with priority tiers
  - Hot-reloadable policy configuration
  - What-if simulation of policy changes
  - AI-assisted contract clause analysis
  - Manual override tracking and KPI reporting`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults to built-in configuration)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
