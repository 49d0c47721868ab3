// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and validates echo-history configuration.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (ECHO_*)
//   - ~/.echo/config.toml (or the file named by --config / ECHO_CONFIG)
//   - Built-in defaults
//
// # Key Types
//
//   - Config: complete configuration
//   - StorageConfig, ChatConfig, ExportConfig, SessionConfig, LogConfig
//   - ValidateErrors: every validation failure at once
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	settings := cfg.Settings()
package config
