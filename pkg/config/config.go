// Package config defines the service configuration: HTTP server
// settings, policy file location, storage backend, advisory client and
// telemetry. Configuration is loaded from YAML with VEGA_* environment
// variable overrides.
package config

import "time"

// Config is the top-level service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Policy    PolicyConfig    `yaml:"policy"`
	Storage   StorageConfig   `yaml:"storage"`
	Advisory  AdvisoryConfig  `yaml:"advisory"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// ListenAddress is the host:port to bind.
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RequestTimeout bounds individual request handling.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// PolicyConfig locates the deal policy document.
type PolicyConfig struct {
	// Path is the policy YAML file. Empty selects built-in defaults.
	Path string `yaml:"path"`

	// Watch enables hot reload on file changes.
	Watch bool `yaml:"watch"`

	// DebounceInterval coalesces rapid file change events.
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// StorageConfig selects and configures the deal store backend.
type StorageConfig struct {
	// Backend is "sqlite" or "memory".
	Backend string `yaml:"backend"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`

	// CheckpointInterval is how often to checkpoint the WAL.
	CheckpointInterval time.Duration `yaml:"checkpoint_interval"`
}

// AdvisoryConfig configures the clause analysis client.
type AdvisoryConfig struct {
	// Mode is "mock" or "live".
	Mode string `yaml:"mode"`

	// BaseURL overrides the API endpoint in live mode.
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates live mode calls. Usually supplied via
	// VEGA_ADVISORY_API_KEY rather than the file.
	APIKey string `yaml:"api_key"`

	// Model is the model identifier for live mode.
	Model string `yaml:"model"`

	// MaxAttempts bounds API calls per analysis.
	MaxAttempts int `yaml:"max_attempts"`

	// Timeout bounds a single API call.
	Timeout time.Duration `yaml:"timeout"`
}

// TelemetryConfig configures logging and metrics.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`

	// AddSource includes file and line number in logs.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Enabled turns metric recording on.
	Enabled bool `yaml:"enabled"`

	// Path is the exposition endpoint path.
	Path string `yaml:"path"`

	// KPIRefreshSchedule is a cron expression for KPI gauge refresh.
	// Empty disables scheduled refresh.
	KPIRefreshSchedule string `yaml:"kpi_refresh_schedule"`
}

// ApplyDefaults fills unset fields with production defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}

	if cfg.Policy.DebounceInterval == 0 {
		cfg.Policy.DebounceInterval = 100 * time.Millisecond
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "sqlite"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/vega.db"
	}
	if cfg.Storage.CheckpointInterval == 0 {
		cfg.Storage.CheckpointInterval = 5 * time.Minute
	}

	if cfg.Advisory.Mode == "" {
		cfg.Advisory.Mode = "mock"
	}
	if cfg.Advisory.MaxAttempts == 0 {
		cfg.Advisory.MaxAttempts = 3
	}
	if cfg.Advisory.Timeout == 0 {
		cfg.Advisory.Timeout = 30 * time.Second
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "json"
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = "/metrics"
	}
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
