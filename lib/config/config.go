// Copyright 2026 The Hypercopy Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads and validates the Hypercopy bot configuration.
//
// Configuration comes from a single YAML file given explicitly (the
// HYPERCOPY_CONFIG environment variable or a --config flag). There is
// no automatic discovery and environment variables never override file
// values: the file is the single auditable source of truth, read once
// at the outermost boundary and threaded through as a value.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hypercopy-trading/hypercopy/lib/chain"
)

// Config is the bot configuration.
type Config struct {
	// Chain selects the Hyperliquid network (Mainnet or Testnet).
	Chain chain.Chain `yaml:"chain"`

	// PrivateKeyEnv names the environment variable holding the signing
	// key. The key itself never appears in the file or in logs.
	PrivateKeyEnv string `yaml:"private_key_env"`

	// Node configures the local node data path and info endpoint.
	Node NodeConfig `yaml:"node"`

	// FallbackToPublicAPI permits degraded operation against the public
	// API when the local node is unavailable.
	FallbackToPublicAPI bool `yaml:"fallback_to_public_api"`

	// RedisURL is the cache the bot's storage layer uses.
	RedisURL string `yaml:"redis_url"`

	// DatabaseURL is the persistent store DSN.
	DatabaseURL string `yaml:"database_url"`

	// Risk bounds position taking.
	Risk RiskConfig `yaml:"risk"`

	// Execution configures order submission retries.
	Execution ExecutionConfig `yaml:"execution"`

	// Log configures the structured logger.
	Log LogConfig `yaml:"log"`
}

// NodeConfig configures the local node.
type NodeConfig struct {
	// InfoURL is the local node's info endpoint base.
	// Default: http://localhost:3001.
	InfoURL string `yaml:"info_url"`

	// DataPath is the node's data directory. ~ expands to the home
	// directory.
	DataPath string `yaml:"data_path"`
}

// RiskConfig bounds position taking. Fractions are of account equity.
type RiskConfig struct {
	MaxDailyLoss       float64 `yaml:"max_daily_loss"`
	MaxPositionSize    float64 `yaml:"max_position_size"`
	MaxTotalExposure   float64 `yaml:"max_total_exposure"`
	DefaultSlippageBps int     `yaml:"default_slippage_bps"`
	FollowWindowSecs   int     `yaml:"follow_window_seconds"`
}

// ExecutionConfig configures order submission.
type ExecutionConfig struct {
	DryRun            bool    `yaml:"dry_run"`
	MaxRetries        int     `yaml:"max_retries"`
	RetryDelaySeconds float64 `yaml:"retry_delay_seconds"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Default returns the baseline configuration. The config file is still
// required; defaults only guarantee sensible zero values for fields the
// file omits.
func Default() *Config {
	return &Config{
		Chain:               chain.Mainnet,
		PrivateKeyEnv:       "HYPERLIQUID_PRIVATE_KEY",
		Node:                NodeConfig{InfoURL: "http://localhost:3001", DataPath: "~/hl/data"},
		FallbackToPublicAPI: true,
		RedisURL:            "redis://localhost:6379/0",
		DatabaseURL:         "sqlite://copytrade.db",
		Risk: RiskConfig{
			MaxDailyLoss:       0.05,
			MaxPositionSize:    0.1,
			MaxTotalExposure:   0.5,
			DefaultSlippageBps: 50,
			FollowWindowSecs:   5,
		},
		Execution: ExecutionConfig{MaxRetries: 3, RetryDelaySeconds: 1.0},
		Log:       LogConfig{Level: "info", Format: "json"},
	}
}

// Load loads configuration from the path in HYPERCOPY_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv("HYPERCOPY_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("HYPERCOPY_CONFIG environment variable not set; " +
			"set it to the path of your hypercopy.yaml, or use the --config flag")
	}
	return LoadFile(path)
}

// LoadFile loads and validates configuration from an explicit path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := Default()
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every bound the trading stack depends on. Ranges match
// what the execution and risk layers are built to tolerate.
func (c *Config) Validate() error {
	if !c.Chain.Valid() {
		return fmt.Errorf("chain must be Mainnet or Testnet, got %q", c.Chain)
	}
	if c.PrivateKeyEnv == "" {
		return fmt.Errorf("private_key_env must name an environment variable")
	}
	if c.Risk.MaxDailyLoss < 0 || c.Risk.MaxDailyLoss > 1 {
		return fmt.Errorf("max_daily_loss must be between 0 and 1, got %v", c.Risk.MaxDailyLoss)
	}
	if c.Risk.MaxPositionSize < 0 || c.Risk.MaxPositionSize > 1 {
		return fmt.Errorf("max_position_size must be between 0 and 1, got %v", c.Risk.MaxPositionSize)
	}
	if c.Risk.MaxTotalExposure < 0 || c.Risk.MaxTotalExposure > 1 {
		return fmt.Errorf("max_total_exposure must be between 0 and 1, got %v", c.Risk.MaxTotalExposure)
	}
	if c.Risk.DefaultSlippageBps < 0 || c.Risk.DefaultSlippageBps > 1000 {
		return fmt.Errorf("default_slippage_bps must be between 0 and 1000, got %d", c.Risk.DefaultSlippageBps)
	}
	if c.Risk.FollowWindowSecs < 1 || c.Risk.FollowWindowSecs > 60 {
		return fmt.Errorf("follow_window_seconds must be between 1 and 60, got %d", c.Risk.FollowWindowSecs)
	}
	if c.Execution.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.Execution.MaxRetries)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be debug, info, warn, or error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log format must be json or text, got %q", c.Log.Format)
	}
	return nil
}

// NodeDataPath returns the node data path with ~ expanded.
func (c *Config) NodeDataPath() string {
	path := c.Node.DataPath
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
		}
	}
	return path
}

// APIBaseURL returns the public API host for the configured chain.
func (c *Config) APIBaseURL() string {
	return c.Chain.APIBaseURL()
}
