// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for unirag.
//
// Configuration is a TOML file read through cleanenv, so every key also has
// an environment variable override and an env-default fallback.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - APIConfig: Backend base URL, timeouts and retry policy
//   - StorageConfig: Local state backend (file or sqlite) and directory
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (UNIRAG_*)
//   - ~/.unirag/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := api.NewClient(cfg.API.BaseURL).WithTimeout(cfg.API.Timeout)
package config
