// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat transcripts and price updates.
//
// This package defines the core domain types shared by the streaming engines
// and their consumers: transcript turns, tool calls and results, elicitation
// requests, price-update records, and the decoded wire frames both protocols
// deliver.
//
// # Key Types
//
//   - Turn: single transcript entry with role, content, and optional tool data
//   - ToolCall / ToolResult: structured tool invocation and its outcome
//   - ElicitationRequest: server-initiated request for additional user input
//   - PriceUpdate: latest flight/hotel/total prices for one trip
//   - StreamFrame / PushEvent: decoded wire payloads, discriminated by type
//
// # Usage
//
// Build a transcript:
//
//	turn := model.NewUserTurn("Find me a hotel in Lisbon")
//	placeholder := model.NewAssistantTurn()
//	placeholder.AppendContent("Sure — ")
package model
