// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// CHAT STREAM FRAMES
// =============================================================================

// Chat stream frame type discriminators. Unknown values are ignored by the
// reader so the server can add frame kinds without breaking older clients.
const (
	FrameContent     = "content"
	FrameToolCall    = "tool_call"
	FrameToolResult  = "tool_result"
	FrameElicitation = "elicitation"
	FrameRateLimited = "rate_limited"
	FrameError       = "error"
)

// StreamFrame is one decoded record from the chat response stream,
// discriminated by Type. Exactly one payload field is populated per frame.
type StreamFrame struct {
	Type string `json:"type"`

	Content     string           `json:"content,omitempty"`
	ToolCall    *WireToolCall    `json:"tool_call,omitempty"`
	ToolResult  *WireToolResult  `json:"tool_result,omitempty"`
	Elicitation *WireElicitation `json:"elicitation,omitempty"`
	RateLimit   *RateLimitNotice `json:"rate_limit,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// ParseStreamFrame decodes a single chat stream frame payload.
func ParseStreamFrame(data []byte) (*StreamFrame, error) {
	var frame StreamFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("malformed stream frame: %w", err)
	}
	return &frame, nil
}

// WireToolCall is the wire form of a tool invocation. Arguments arrive as a
// JSON-encoded string and must be materialized before use.
type WireToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Materialize parses the argument string into a structured ToolCall.
// An empty argument string yields an empty (non-nil) argument object.
func (w *WireToolCall) Materialize() (ToolCall, error) {
	call := ToolCall{
		ID:        w.ID,
		Name:      w.Name,
		Arguments: map[string]any{},
	}
	if w.Arguments == "" {
		return call, nil
	}
	if err := json.Unmarshal([]byte(w.Arguments), &call.Arguments); err != nil {
		return call, fmt.Errorf("tool call %s: bad arguments: %w", w.ID, err)
	}
	return call, nil
}

// WireToolResult is the wire form of a tool outcome. Success on the wire
// becomes IsError in the domain type.
type WireToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Result     any    `json:"result"`
	Success    bool   `json:"success"`
}

// Materialize converts the wire result to the domain type.
func (w *WireToolResult) Materialize() ToolResult {
	return ToolResult{
		ToolCallID: w.ToolCallID,
		Name:       w.Name,
		Result:     w.Result,
		IsError:    !w.Success,
	}
}

// WireElicitation is the wire form of a user-input request.
type WireElicitation struct {
	ToolCallID    string         `json:"tool_call_id"`
	ToolName      string         `json:"tool_name"`
	Component     string         `json:"component"`
	Prefilled     map[string]any `json:"prefilled"`
	MissingFields []string       `json:"missing_fields,omitempty"`
}

// Materialize converts the wire elicitation to the domain type.
func (w *WireElicitation) Materialize() ElicitationRequest {
	return ElicitationRequest{
		ToolCallID:    w.ToolCallID,
		ToolName:      w.ToolName,
		Component:     w.Component,
		Prefilled:     w.Prefilled,
		MissingFields: w.MissingFields,
	}
}

// RateLimitNotice is a transient status frame. It never mutates the
// transcript; the UI shows it as a dismissible notice.
type RateLimitNotice struct {
	Attempt     int     `json:"attempt"`
	MaxAttempts int     `json:"max_attempts"`
	RetryAfter  float64 `json:"retry_after"`
}

// =============================================================================
// PUSH CHANNEL EVENTS
// =============================================================================

// Named event kinds on the push-update channel.
const (
	PushEventConnected   = "connected"
	PushEventPriceUpdate = "price_update"
	PushEventHeartbeat   = "heartbeat"
	PushEventError       = "error"
)

// ConnectedEvent is the server acknowledgement that the subscription is live.
type ConnectedEvent struct {
	Status string `json:"status"`
	UserID string `json:"user_id"`
}

// HeartbeatEvent is a periodic keep-alive from the server.
type HeartbeatEvent struct {
	Timestamp string `json:"timestamp"`
}

// PushErrorEvent carries a server-side error on the push channel.
type PushErrorEvent struct {
	Error string `json:"error"`
}
