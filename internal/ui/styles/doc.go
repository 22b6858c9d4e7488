// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the farewatch TUI.
// All colors use Lip Gloss AdaptiveColor so the same palette works on light
// and dark terminals.
package styles
