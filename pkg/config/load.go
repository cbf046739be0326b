package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file, applies defaults and
// validates the result. Environment variables are not consulted; use
// LoadWithEnvOverrides for that.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadWithEnvOverrides loads configuration from a YAML file and
// applies VEGA_SECTION_FIELD environment overrides, which always take
// precedence over file values. An empty path starts from defaults.
func LoadWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString("VEGA_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	setDuration("VEGA_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	setDuration("VEGA_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	setDuration("VEGA_SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	setDuration("VEGA_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	setDuration("VEGA_SERVER_REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)

	setString("VEGA_POLICY_PATH", &cfg.Policy.Path)
	setBool("VEGA_POLICY_WATCH", &cfg.Policy.Watch)
	setDuration("VEGA_POLICY_DEBOUNCE_INTERVAL", &cfg.Policy.DebounceInterval)

	setString("VEGA_STORAGE_BACKEND", &cfg.Storage.Backend)
	setString("VEGA_STORAGE_SQLITE_PATH", &cfg.Storage.SQLitePath)
	setDuration("VEGA_STORAGE_CHECKPOINT_INTERVAL", &cfg.Storage.CheckpointInterval)

	setString("VEGA_ADVISORY_MODE", &cfg.Advisory.Mode)
	setString("VEGA_ADVISORY_BASE_URL", &cfg.Advisory.BaseURL)
	setString("VEGA_ADVISORY_API_KEY", &cfg.Advisory.APIKey)
	setString("VEGA_ADVISORY_MODEL", &cfg.Advisory.Model)
	setInt("VEGA_ADVISORY_MAX_ATTEMPTS", &cfg.Advisory.MaxAttempts)
	setDuration("VEGA_ADVISORY_TIMEOUT", &cfg.Advisory.Timeout)

	setString("VEGA_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	setString("VEGA_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	setBool("VEGA_TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	setBool("VEGA_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	setString("VEGA_TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	setString("VEGA_TELEMETRY_METRICS_KPI_REFRESH_SCHEDULE", &cfg.Telemetry.Metrics.KPIRefreshSchedule)
}

func setString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func setInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func setDuration(key string, dst *time.Duration) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
