// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/voyantic/farewatch-tui/internal/model"
	"github.com/voyantic/farewatch-tui/internal/push"
	"github.com/voyantic/farewatch-tui/internal/session"
)

// =============================================================================
// EXTERNAL MESSAGES
// =============================================================================

// SnapshotMsg carries a fresh transcript snapshot from the session store.
type SnapshotMsg struct {
	Snapshot session.Snapshot
}

// PriceUpdatesMsg carries the channel's latest-per-trip update set.
type PriceUpdatesMsg struct {
	Updates []model.PriceUpdate
}

// ConnectionMsg carries a push-channel state transition.
type ConnectionMsg struct {
	State push.ConnectionState
}

// ConfigMsg carries the render-relevant settings after a config hot reload.
type ConfigMsg struct {
	Markdown bool
}

// NoticeMsg surfaces a transient message (rate limits, reconnects) as a
// toast.
type NoticeMsg struct {
	Message string
	IsError bool
}

// toastTickMsg drives toast expiry.
type toastTickMsg time.Time
