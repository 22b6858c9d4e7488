// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main Bubble Tea view: the conversation
// transcript, the input line, and the live price panel fed by the push
// channel.
//
// The view never talks to the network itself. Keys translate into calls on
// the chat session; state flows back in as messages carrying store
// snapshots, price updates, and connection-state changes posted by the
// wiring in main.
package chat
