package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"dealflow-hq/vega/pkg/cli"
	"dealflow-hq/vega/pkg/config"
	"dealflow-hq/vega/pkg/policy"
	"dealflow-hq/vega/pkg/telemetry/logging"
)

var policyShowFlags struct {
	segment string
	format  string
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect the deal policy",
}

var policyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective policy",
	Long: `Print the active policy configuration, including the thresholds each
customer segment resolves to.

Examples:
  # Show the full policy
  vega policy show

  # Show the resolved thresholds for one segment
  vega policy show --segment Enterprise

  # JSON output
  vega policy show --format json`,
	RunE: showPolicy,
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyShowCmd)

	policyShowCmd.Flags().StringVar(&policyShowFlags.segment, "segment", "", "show resolved thresholds for one segment")
	policyShowCmd.Flags().StringVar(&policyShowFlags.format, "format", "text", "output format: text, json")
}

func showPolicy(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	logger, err := logging.New(logging.Config{Level: "warn", Format: "text"})
	if err != nil {
		return cli.NewCommandError("policy", err)
	}

	policies, err := loadPolicyStore(cfg, logger)
	if err != nil {
		return err
	}
	active := policies.Current()

	if policyShowFlags.segment != "" {
		resolved := active.ResolveThresholds(policyShowFlags.segment)
		if cli.OutputFormat(policyShowFlags.format) == cli.FormatJSON {
			return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, resolved)
		}
		fmt.Printf("Thresholds for segment %q:\n", policyShowFlags.segment)
		fmt.Printf("  Discount threshold:  %g%%\n", resolved.DiscountThreshold)
		fmt.Printf("  ACV exec threshold:  $%.0f\n", resolved.ACVExecThreshold)
		fmt.Printf("  Payment terms limit: %d days\n", resolved.PaymentTermsLimit)
		fmt.Printf("  EU requires legal:   %t\n", resolved.EURequiresLegal)
		return nil
	}

	if cli.OutputFormat(policyShowFlags.format) == cli.FormatJSON {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, active)
	}

	fmt.Println("Defaults:")
	fmt.Printf("  Discount threshold:  %g%%\n", active.Defaults.DiscountThreshold)
	fmt.Printf("  ACV exec threshold:  $%.0f\n", active.Defaults.ACVExecThreshold)
	fmt.Printf("  Payment terms limit: %d days\n", active.Defaults.PaymentTermsLimit)
	fmt.Printf("  EU requires legal:   %t\n", active.Defaults.EURequiresLegal)

	if len(active.SegmentOverrides) > 0 {
		fmt.Println("\nSegment overrides:")
		segments := make([]string, 0, len(active.SegmentOverrides))
		for segment := range active.SegmentOverrides {
			segments = append(segments, segment)
		}
		sort.Strings(segments)
		for _, segment := range segments {
			resolved := active.ResolveThresholds(segment)
			fmt.Printf("  %s: discount %g%%, ACV $%.0f, payment %d days, EU legal %t\n",
				segment, resolved.DiscountThreshold, resolved.ACVExecThreshold,
				resolved.PaymentTermsLimit, resolved.EURequiresLegal)
		}
	}

	fmt.Println("\nRule weights:")
	for _, id := range policy.RuleOrder {
		fmt.Printf("  %-24s %d (owner: %s)\n", id, active.RuleWeights[id], id.Owner())
	}

	fmt.Printf("\nEscalation order: %v\n", active.EscalationOrder)
	fmt.Printf("Priority cutoffs: P1>=%d P2>=%d P3>=%d\n",
		active.PriorityCutoffs.P1, active.PriorityCutoffs.P2, active.PriorityCutoffs.P3)
	return nil
}
