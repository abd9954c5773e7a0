// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for vaultrun.
//
// Configuration is TOML with sensible defaults, environment variable
// overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.vaultrun/config.toml
//   - Built-in defaults
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/vaultrun/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete vaultrun configuration.
type Config struct {
	Version string `toml:"version"`

	// Database configuration
	Database DatabaseConfig `toml:"database"`

	// Authentication and lockout configuration
	Auth AuthConfig `toml:"auth"`

	// Password generator configuration
	Generator GeneratorConfig `toml:"generator"`

	// Logging configuration
	Logging LoggingConfig `toml:"logging"`
}

// DatabaseConfig contains vault database settings.
type DatabaseConfig struct {
	// Path is the SQLite database file (empty = ~/.vaultrun/vault.db)
	Path string `toml:"path"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	// Issuer is the name embedded in TOTP enrollment URIs
	Issuer string `toml:"issuer"`
	// MaxLoginAttempts is the failure count that triggers a lockout
	MaxLoginAttempts int `toml:"max_login_attempts"`
	// LockoutMinutes is how long a tripped lockout lasts
	LockoutMinutes int `toml:"lockout_minutes"`
	// ThrottleBurst is the in-process attempt limiter burst size
	ThrottleBurst int `toml:"throttle_burst"`
}

// GeneratorConfig contains password generator settings.
type GeneratorConfig struct {
	// DefaultLength is the length used when none is requested
	DefaultLength int `toml:"default_length"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error"
	Level string `toml:"level"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Database: DatabaseConfig{
			Path: "",
		},

		Auth: AuthConfig{
			Issuer:           "vaultrun",
			MaxLoginAttempts: 5,
			LockoutMinutes:   5,
			ThrottleBurst:    5,
		},

		Generator: GeneratorConfig{
			DefaultLength: 16,
		},

		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the vaultrun configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".vaultrun"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DatabasePath resolves the vault database file, falling back to the
// default location inside the config directory.
func (c *Config) DatabasePath() (string, error) {
	if c.Database.Path != "" {
		return c.Database.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "vault.db"), nil
}

// ensureSecurePermissions checks and fixes permissions on the config file.
// SECURITY: The config sits next to the vault database; keep it 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to
// defaults when no file exists. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode TOML file: %w", err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies VAULTRUN_* environment variables on top of
// the loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("VAULTRUN_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("VAULTRUN_ISSUER"); v != "" {
		c.Auth.Issuer = v
	}
	if v := os.Getenv("VAULTRUN_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("VAULTRUN_GENERATED_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Generator.DefaultLength = n
		}
	}
}

// =============================================================================
// DEFAULTS AND VALIDATION
// =============================================================================

// SetDefaults fills in any zero values with defaults.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = d.Auth.Issuer
	}
	if c.Auth.MaxLoginAttempts == 0 {
		c.Auth.MaxLoginAttempts = d.Auth.MaxLoginAttempts
	}
	if c.Auth.LockoutMinutes == 0 {
		c.Auth.LockoutMinutes = d.Auth.LockoutMinutes
	}
	if c.Auth.ThrottleBurst == 0 {
		c.Auth.ThrottleBurst = d.Auth.ThrottleBurst
	}
	if c.Generator.DefaultLength == 0 {
		c.Generator.DefaultLength = d.Generator.DefaultLength
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if c.Auth.MaxLoginAttempts < 1 {
		return fmt.Errorf("auth.max_login_attempts must be at least 1, got %d", c.Auth.MaxLoginAttempts)
	}
	if c.Auth.LockoutMinutes < 1 {
		return fmt.Errorf("auth.lockout_minutes must be at least 1, got %d", c.Auth.LockoutMinutes)
	}
	if c.Auth.ThrottleBurst < 1 {
		return fmt.Errorf("auth.throttle_burst must be at least 1, got %d", c.Auth.ThrottleBurst)
	}
	if c.Generator.DefaultLength < 8 || c.Generator.DefaultLength > 20 {
		return fmt.Errorf("generator.default_length must be between 8 and 20, got %d", c.Generator.DefaultLength)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes the configuration to the default location.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to the given path atomically with
// owner-only permissions.
func (c *Config) SaveTo(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode TOML: %w", err)
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0600, 0700)
}
