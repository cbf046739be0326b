package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"dealflow-hq/vega/pkg/advisory"
	"dealflow-hq/vega/pkg/api"
	"dealflow-hq/vega/pkg/cli"
	"dealflow-hq/vega/pkg/config"
	"dealflow-hq/vega/pkg/kpi"
	"dealflow-hq/vega/pkg/policy"
	"dealflow-hq/vega/pkg/seed"
	"dealflow-hq/vega/pkg/server"
	"dealflow-hq/vega/pkg/simulation"
	"dealflow-hq/vega/pkg/store"
	"dealflow-hq/vega/pkg/telemetry/health"
	"dealflow-hq/vega/pkg/telemetry/logging"
	"dealflow-hq/vega/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Vega API server",
	Long: `Start the Vega API server with the specified configuration.

The server evaluates submitted deals against the active policy, routes
escalations, and serves policy, simulation, and KPI endpoints.

Examples:
  # Start with built-in defaults
  vega run

  # Start with custom config
  vega run --config /etc/vega/config.yaml

  # Override listen address
  vega run --listen 0.0.0.0:8080

  # Validate config without starting the server
  vega run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	policies, err := loadPolicyStore(cfg, logger)
	if err != nil {
		return err
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		if cfg.Policy.Path != "" {
			fmt.Printf("✓ Policy file valid: %s\n", cfg.Policy.Path)
		}
		return nil
	}

	ctx := cli.SetupSignalHandler()

	if cfg.Policy.Watch {
		watcher, err := policy.NewWatcher(policies, cfg.Policy.DebounceInterval, logger)
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("starting policy watcher: %w", err))
		}
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				logger.Error("policy watcher stopped", "error", err)
			}
		}()
		defer watcher.Stop()
		fmt.Printf("✓ Watching policy file: %s\n", cfg.Policy.Path)
	}

	st, err := openStore(cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer st.Close()
	fmt.Printf("✓ Store initialized (%s)\n", cfg.Storage.Backend)

	advisor, err := buildAdvisor(cfg, logger)
	if err != nil {
		return cli.NewConfigError("advisory", err.Error())
	}
	fmt.Printf("✓ Advisory client ready (%s mode)\n", cfg.Advisory.Mode)

	collector := metrics.NewCollector(metrics.Config{Enabled: cfg.Telemetry.Metrics.Enabled}, nil)

	checker := health.New(0)
	checker.Register("store", func(ctx context.Context) error {
		_, err := st.GetDeal(ctx, "healthcheck")
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	})
	checker.Register("policy", func(ctx context.Context) error {
		if policies.Current() == nil {
			return errors.New("no policy loaded")
		}
		return nil
	})

	if cfg.Telemetry.Metrics.Enabled && cfg.Telemetry.Metrics.KPIRefreshSchedule != "" {
		refresher := kpi.NewRefresher(st, collector, cfg.Telemetry.Metrics.KPIRefreshSchedule, logger)
		if err := refresher.Start(ctx); err != nil {
			logger.Warn("failed to start KPI refresher", "error", err)
		} else {
			defer refresher.Stop()
			fmt.Printf("✓ KPI refresh scheduled (%s)\n", cfg.Telemetry.Metrics.KPIRefreshSchedule)
		}
	}

	metricsPath := ""
	if cfg.Telemetry.Metrics.Enabled {
		metricsPath = cfg.Telemetry.Metrics.Path
	}

	handler := api.New(api.Options{
		Policies:       policies,
		Store:          st,
		Advisor:        advisor,
		Simulator:      simulation.NewEngine(policies, 0, logger),
		Seeder:         seed.New(st, policies, advisor, logger),
		Collector:      collector,
		Health:         checker,
		MetricsPath:    metricsPath,
		RequestTimeout: cfg.Server.RequestTimeout,
		Logger:         logger,
	}).Routes()

	srv := server.New(cfg.Server, handler, logger)

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	if metricsPath != "" {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, metricsPath)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}

// loadPolicyStore loads the configured policy file, or the built-in
// defaults when no file is configured.
func loadPolicyStore(cfg *config.Config, logger *slog.Logger) (*policy.Store, error) {
	policyCfg := policy.Default()
	if cfg.Policy.Path != "" {
		loaded, err := policy.Load(cfg.Policy.Path)
		if err != nil {
			return nil, cli.NewConfigError("policy.path", err.Error())
		}
		policyCfg = loaded
	}
	return policy.NewStore(policyCfg, cfg.Policy.Path, logger), nil
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		if dir := filepath.Dir(cfg.Storage.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
		return store.NewSQLiteStoreWithConfig(store.SQLiteConfig{
			DBPath:             cfg.Storage.SQLitePath,
			CheckpointInterval: cfg.Storage.CheckpointInterval,
		})
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

func buildAdvisor(cfg *config.Config, logger *slog.Logger) (advisory.Client, error) {
	switch cfg.Advisory.Mode {
	case "mock":
		return advisory.NewMockClient(), nil
	case "live":
		return advisory.NewHTTPClient(advisory.Config{
			BaseURL:     cfg.Advisory.BaseURL,
			APIKey:      cfg.Advisory.APIKey,
			Model:       cfg.Advisory.Model,
			MaxAttempts: cfg.Advisory.MaxAttempts,
			Timeout:     cfg.Advisory.Timeout,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported advisory mode: %s", cfg.Advisory.Mode)
	}
}
