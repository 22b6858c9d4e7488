// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for farewatch.
//
// Configuration comes from ~/.farewatch/config.toml when present, with
// built-in defaults underneath and FAREWATCH_* environment variables on
// top. A file watcher reloads the config on edit so long-running sessions
// pick up changes without a restart.
package config
