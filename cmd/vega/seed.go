package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dealflow-hq/vega/pkg/cli"
	"dealflow-hq/vega/pkg/config"
	"dealflow-hq/vega/pkg/seed"
	"dealflow-hq/vega/pkg/telemetry/logging"
)

var seedFlags struct {
	count   int
	process bool
	reset   bool
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the store with demo deals",
	Long: `Generate random but realistic deals and write them to the configured
store, optionally running each through the full evaluation pipeline.

Examples:
  # Seed 50 processed deals
  vega seed

  # Seed 200 deals without processing them
  vega seed --count 200 --process=false

  # Wipe the store first
  vega seed --reset --count 50`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().IntVarP(&seedFlags.count, "count", "n", seed.DefaultCount, "number of deals to generate (max 500)")
	seedCmd.Flags().BoolVar(&seedFlags.process, "process", true, "evaluate and route each seeded deal")
	seedCmd.Flags().BoolVar(&seedFlags.reset, "reset", false, "delete existing deals and overrides first")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	logger, err := logging.New(logging.Config{Level: "warn", Format: "text"})
	if err != nil {
		return cli.NewCommandError("seed", err)
	}

	policies, err := loadPolicyStore(cfg, logger)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return cli.NewCommandError("seed", err)
	}
	defer st.Close()

	advisor, err := buildAdvisor(cfg, logger)
	if err != nil {
		return cli.NewConfigError("advisory", err.Error())
	}

	if seedFlags.count < 1 || seedFlags.count > seed.MaxCount {
		return cli.NewCommandError("seed", fmt.Errorf("count must be between 1 and %d", seed.MaxCount))
	}

	seeder := seed.New(st, policies, advisor, logger)
	ctx := cli.SetupSignalHandler()

	if seedFlags.reset {
		if err := st.Reset(ctx); err != nil {
			return cli.NewCommandError("seed", fmt.Errorf("resetting store: %w", err))
		}
		fmt.Println("✓ Store reset")
	}

	progress := cli.NewProgress(os.Stdout, seedFlags.count)

	var ids []string
	for len(ids) < seedFlags.count {
		batch := min(25, seedFlags.count-len(ids))
		batchIDs, err := seeder.Seed(ctx, batch, seedFlags.process)
		if err != nil {
			progress.Fail(err)
			return cli.NewCommandError("seed", err)
		}
		ids = append(ids, batchIDs...)
		progress.Advance(len(batchIDs))
	}
	progress.Done()

	fmt.Printf("✓ Seeded %d deals (%s backend)\n", len(ids), cfg.Storage.Backend)
	if verbose {
		for _, id := range ids {
			fmt.Println(" ", id)
		}
	}
	return nil
}
