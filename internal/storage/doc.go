// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists price observations and chat transcripts in a
// local SQLite database so the dashboard can chart price movement across
// sessions and reopen past conversations offline.
package storage
