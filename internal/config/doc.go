// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for vaultrun.
//
// Configuration is TOML with sensible defaults, environment variable
// overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - DatabaseConfig: Vault database location
//   - AuthConfig: Lockout and TOTP issuer settings
//   - GeneratorConfig: Password generator settings
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (VAULTRUN_*)
//   - ~/.vaultrun/config.toml
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	issuer := cfg.Auth.Issuer
//	dbPath, err := cfg.DatabasePath()
package config
