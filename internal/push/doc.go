// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package push maintains the long-lived server event subscription that
// delivers price-change notifications.
//
// A Channel owns one persistent connection to the updates endpoint. It
// decodes named server events (connected, price_update, heartbeat, error),
// keeps the latest update per trip, and reconnects on transport failure
// with exponential backoff up to a configurable attempt cap. Once the cap
// is exhausted the channel parks in the error state until Connect is
// called again.
//
// Shared returns a process-wide channel so every consumer rides the same
// underlying connection.
package push
