package config

import (
	"fmt"
	"strings"

	"dealflow-hq/vega/pkg/telemetry/logging"

	"github.com/robfig/cron/v3"
)

// FieldError describes one invalid configuration field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError aggregates all configuration problems found in one
// pass.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration is invalid"
	}
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// Validate checks the configuration and returns a *ValidationError
// listing every problem.
func Validate(cfg *Config) error {
	var errs []FieldError

	if cfg.Server.ListenAddress == "" {
		errs = append(errs, FieldError{"server.listen_address", "must not be empty"})
	}
	for field, d := range map[string]int64{
		"server.read_timeout":     int64(cfg.Server.ReadTimeout),
		"server.write_timeout":    int64(cfg.Server.WriteTimeout),
		"server.idle_timeout":     int64(cfg.Server.IdleTimeout),
		"server.shutdown_timeout": int64(cfg.Server.ShutdownTimeout),
		"server.request_timeout":  int64(cfg.Server.RequestTimeout),
	} {
		if d <= 0 {
			errs = append(errs, FieldError{field, "must be positive"})
		}
	}

	if cfg.Policy.Watch && cfg.Policy.Path == "" {
		errs = append(errs, FieldError{"policy.watch", "requires policy.path to be set"})
	}
	if cfg.Policy.DebounceInterval < 0 {
		errs = append(errs, FieldError{"policy.debounce_interval", "must not be negative"})
	}

	switch cfg.Storage.Backend {
	case "sqlite":
		if cfg.Storage.SQLitePath == "" {
			errs = append(errs, FieldError{"storage.sqlite_path", "required for sqlite backend"})
		}
	case "memory":
	default:
		errs = append(errs, FieldError{"storage.backend",
			fmt.Sprintf("unknown backend %q (expected sqlite or memory)", cfg.Storage.Backend)})
	}

	switch cfg.Advisory.Mode {
	case "mock":
	case "live":
		if cfg.Advisory.APIKey == "" {
			errs = append(errs, FieldError{"advisory.api_key", "required for live mode"})
		}
	default:
		errs = append(errs, FieldError{"advisory.mode",
			fmt.Sprintf("unknown mode %q (expected mock or live)", cfg.Advisory.Mode)})
	}
	if cfg.Advisory.MaxAttempts < 1 {
		errs = append(errs, FieldError{"advisory.max_attempts", "must be at least 1"})
	}

	if _, err := logging.ParseLevel(cfg.Telemetry.Logging.Level); err != nil {
		errs = append(errs, FieldError{"telemetry.logging.level", err.Error()})
	}
	if _, err := logging.ParseFormat(cfg.Telemetry.Logging.Format); err != nil {
		errs = append(errs, FieldError{"telemetry.logging.format", err.Error()})
	}

	if s := cfg.Telemetry.Metrics.KPIRefreshSchedule; s != "" {
		if _, err := cron.ParseStandard(s); err != nil {
			errs = append(errs, FieldError{"telemetry.metrics.kpi_refresh_schedule", err.Error()})
		}
	}
	if cfg.Telemetry.Metrics.Enabled && !strings.HasPrefix(cfg.Telemetry.Metrics.Path, "/") {
		errs = append(errs, FieldError{"telemetry.metrics.path", "must start with /"})
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
