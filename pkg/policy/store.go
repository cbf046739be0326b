package policy

import (
	"fmt"
	"log/slog"
	"sync"
)

// Store holds the current policy snapshot and swaps in complete new
// snapshots atomically. Readers always observe either the prior or the
// next config, never a partially updated one.
type Store struct {
	mu      sync.RWMutex
	current *Config
	path    string
	logger  *slog.Logger
}

// NewStore creates a store holding an already-validated snapshot.
// path is the file Reload reads from; it may be empty for stores that
// are only replaced programmatically.
func NewStore(cfg *Config, path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		current: cfg,
		path:    path,
		logger:  logger.With("component", "policy.store"),
	}
}

// Current returns the active policy snapshot. The returned config is
// shared and must be treated as read-only.
func (s *Store) Current() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Replace atomically swaps in a new snapshot.
func (s *Store) Replace(cfg *Config) {
	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()
}

// Reload loads the policy file and swaps in the new snapshot. On a
// ConfigError the previous snapshot stays active, so a bad edit never
// takes down evaluation.
func (s *Store) Reload() error {
	if s.path == "" {
		return fmt.Errorf("no policy file configured")
	}

	cfg, err := Load(s.path)
	if err != nil {
		s.logger.Error("policy reload failed, keeping previous snapshot",
			"path", s.path,
			"error", err,
		)
		return err
	}

	s.Replace(cfg)
	s.logger.Info("policy reloaded",
		"path", s.path,
		"segment_overrides", len(cfg.SegmentOverrides),
	)
	return nil
}
