// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for ledgerlog configuration.
	DefaultConfigDir = ".ledgerlog"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultLedgerFile is the default ledger database file name.
	DefaultLedgerFile = "ledger.db"
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	Ledger     LedgerConfig     `yaml:"ledger,omitempty"`
	Index      IndexConfig      `yaml:"index,omitempty"`
	Sweep      SweepConfig      `yaml:"sweep,omitempty"`
	Aggregator AggregatorConfig `yaml:"aggregator,omitempty"`
}

// LedgerConfig holds configuration for the authoritative ledger store.
type LedgerConfig struct {
	// Path is the file path to the SQLite ledger database.
	Path string `yaml:"path,omitempty"`
}

// IndexConfig holds configuration for the Qdrant secondary index.
type IndexConfig struct {
	Host       string `yaml:"host,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	Collection string `yaml:"collection,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
	// ScrollLimit caps a single enumeration page.
	ScrollLimit int `yaml:"scroll_limit,omitempty"`
}

// SweepConfig lists the known action and resource values probed by the
// sweep-and-merge fallback. These are configuration, not a closed enum:
// actions remain open-ended text everywhere else.
type SweepConfig struct {
	Actions   []string `yaml:"actions,omitempty"`
	Resources []string `yaml:"resources,omitempty"`
}

// AggregatorConfig holds client-side aggregation settings.
type AggregatorConfig struct {
	// DebounceWindow suppresses repeat emissions of the same
	// action/resource pair inside this window.
	DebounceWindow time.Duration `yaml:"debounce_window,omitempty"`
	// RecencySize bounds the recent-creates cache.
	RecencySize int `yaml:"recency_size,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Index: IndexConfig{
			Host:        "localhost",
			Port:        6334,
			Collection:  "ledgerlog_records",
			ScrollLimit: 1000,
		},
		Sweep: SweepConfig{
			Actions:   []string{"VISIT", "LOGIN", "LOGOUT", "CREATE", "UPDATE", "DELETE", "ERROR"},
			Resources: []string{"/home", "/login", "/dashboard", "/profile", "/settings"},
		},
		Aggregator: AggregatorConfig{
			DebounceWindow: 2 * time.Second,
			RecencySize:    32,
		},
	}
}

// Load loads configuration from the .ledgerlog directory in the given
// path, falling back to defaults for anything unset.
func Load(basePath string) (*Config, error) {
	cfg := Default()
	cfg.Ledger.Path = LedgerPath(basePath)

	data, err := os.ReadFile(ConfigFilePath(basePath))
	if os.IsNotExist(err) {
		// No config file is fine, defaults apply.
		cfg.applyEnvOverrides()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = LedgerPath(basePath)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("QDRANT_API_KEY"); key != "" && c.Index.APIKey == "" {
		c.Index.APIKey = key
	}
	if host := os.Getenv("LEDGERLOG_INDEX_HOST"); host != "" {
		c.Index.Host = host
	}
}

// ConfigDir returns the path to the .ledgerlog config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// LedgerPath returns the default ledger database path.
func LedgerPath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultLedgerFile)
}

// Exists checks if a ledgerlog config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}

// Write persists the config to the .ledgerlog directory, creating it if
// needed.
func Write(basePath string, cfg *Config) error {
	if err := os.MkdirAll(ConfigDir(basePath), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(ConfigFilePath(basePath), data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
