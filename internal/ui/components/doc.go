// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable view pieces of the farewatch
// TUI: message bubbles, the live price table, toasts, and highlighted tool
// result blocks.
package components
