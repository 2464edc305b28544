// Package config resolves operator-level configuration for a taskvault
// process: where state lives, retrieval limits, and logging.
//
// Every setting maps to an env var with the TASKVAULT_ prefix
// (e.g. "data_dir" → TASKVAULT_DATA_DIR). Nothing here is required —
// the server runs out of the box with defaults under ~/.taskvault.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Viper keys.
const (
	KeyDataDir          = "data_dir"
	KeyCascadeArchive   = "cascade_archive"
	KeyMatchTopK        = "match_top_k"
	KeyMaxSearchResults = "max_search_results"
	KeyLogLevel         = "log_level"
)

const (
	DefaultMatchTopK        = 5
	DefaultMaxSearchResults = 50
	DefaultLogLevel         = "info"
)

// Config holds resolved configuration for a taskvault process.
type Config struct {
	DataDir          string // Base directory for all state (~/.taskvault)
	CascadeArchive   bool   // Archive a context's active artifacts with it
	MatchTopK        int    // Default candidate count for context matching
	MaxSearchResults int    // Hard cap on search result limits
	LogLevel         string // zerolog level: trace, debug, info, warn, error
}

// DBPath returns the full path to the SQLite database.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "taskvault.db")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0o700)
}

func init() {
	viper.SetEnvPrefix("TASKVAULT")
	viper.AutomaticEnv()
	viper.SetDefault(KeyMatchTopK, DefaultMatchTopK)
	viper.SetDefault(KeyMaxSearchResults, DefaultMaxSearchResults)
	viper.SetDefault(KeyLogLevel, DefaultLogLevel)
}

// Load reads configuration from Viper (env vars merged over defaults)
// and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		DataDir:          resolveDataDir(),
		CascadeArchive:   viper.GetBool(KeyCascadeArchive),
		MatchTopK:        viper.GetInt(KeyMatchTopK),
		MaxSearchResults: viper.GetInt(KeyMaxSearchResults),
		LogLevel:         viper.GetString(KeyLogLevel),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func resolveDataDir() string {
	if dir := viper.GetString(KeyDataDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskvault"
	}
	return filepath.Join(home, ".taskvault")
}

func (c *Config) validate() error {
	if c.MatchTopK <= 0 {
		return fmt.Errorf("match_top_k must be positive")
	}
	if c.MaxSearchResults <= 0 {
		return fmt.Errorf("max_search_results must be positive")
	}
	return nil
}
