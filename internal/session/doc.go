// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the in-memory state of one chat session.
//
// The Store owns the transcript, the thread identity, the loading/streaming
// flags, the error slot, and the pending elicitation request. All mutation
// funnels through its small command surface; the stream reader and the public
// chat commands are the only writers. Consumers read immutable snapshots and
// subscribe to change notifications.
package session
