// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for farewatch: crash-safe
// file writing and width-aware string shaping for terminal tables.
package util
