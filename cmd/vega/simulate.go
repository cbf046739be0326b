package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dealflow-hq/vega/pkg/cli"
	"dealflow-hq/vega/pkg/config"
	"dealflow-hq/vega/pkg/simulation"
	"dealflow-hq/vega/pkg/telemetry/logging"
)

var simulateFlags struct {
	inputFile string
	format    string
	workers   int
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay deals under a hypothetical policy",
	Long: `Run a what-if simulation from a JSON request file.

The request file holds a policy delta, optional disabled rules, and the
deals to replay:

  {
    "policy_delta": {"defaults": {"discount_threshold": 15}},
    "disabled_rules": ["PAYMENT_TERMS_LIMIT"],
    "deals": [ ... deal submissions ... ]
  }

Every deal is evaluated under both the active policy and the delta, and
the per-deal changes plus batch metrics are reported. Nothing is
persisted.

Examples:
  # Simulate against the configured policy
  vega simulate --input simulation.json

  # JSON output for scripting
  vega simulate --input simulation.json --format json`,
	RunE: runSimulation,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVarP(&simulateFlags.inputFile, "input", "i", "", "simulation request file (required)")
	simulateCmd.Flags().StringVar(&simulateFlags.format, "format", "text", "output format: text, json")
	simulateCmd.Flags().IntVar(&simulateFlags.workers, "workers", 0, "evaluation concurrency (0 selects the default)")
	_ = simulateCmd.MarkFlagRequired("input")
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	logger, err := logging.New(logging.Config{Level: "warn", Format: "text"})
	if err != nil {
		return cli.NewCommandError("simulate", err)
	}

	policies, err := loadPolicyStore(cfg, logger)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(simulateFlags.inputFile)
	if err != nil {
		return cli.NewCommandError("simulate", fmt.Errorf("reading request file: %w", err))
	}
	var req simulation.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return cli.NewCommandError("simulate", fmt.Errorf("parsing request file: %w", err))
	}

	engine := simulation.NewEngine(policies, simulateFlags.workers, logger)
	report, err := engine.Simulate(cmd.Context(), req)
	if err != nil {
		return cli.NewCommandError("simulate", err)
	}

	if cli.OutputFormat(simulateFlags.format) == cli.FormatJSON {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, report)
	}

	printSimulationReport(report)
	return nil
}

func printSimulationReport(report *simulation.Report) {
	m := report.Metrics
	fmt.Printf("Simulated %d deals\n\n", m.Baseline.Total)
	fmt.Printf("Auto-approval rate: %.1f%% -> %.1f%% (%+.1f pts)\n",
		m.Baseline.AutoApprovalRate*100, m.Hypothetical.AutoApprovalRate*100, m.AutoApprovalRateDiff*100)
	fmt.Printf("Escalation rate:    %.1f%% -> %.1f%% (%+.1f pts)\n\n",
		m.Baseline.EscalationRate*100, m.Hypothetical.EscalationRate*100, m.EscalationRateDiff*100)

	changed := 0
	for _, r := range report.Results {
		if r.Change != simulation.Unchanged {
			changed++
		}
	}
	fmt.Printf("Changed outcomes: %d/%d\n", changed, len(report.Results))
	for _, r := range report.Results {
		if r.Change == simulation.Unchanged {
			continue
		}
		fmt.Printf("  %s: %s (%s/%s -> %s/%s)\n",
			r.DealID, r.Change,
			r.Baseline.ApprovalStatus, r.Baseline.Priority,
			r.Hypothetical.ApprovalStatus, r.Hypothetical.Priority)
	}
}
