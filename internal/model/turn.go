// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleTool:
		return "Tool"
	default:
		return string(r)
	}
}

// =============================================================================
// TOOL CALL / TOOL RESULT
// =============================================================================

// ToolCall is a structured tool invocation attached to an assistant turn.
// Arguments are always a materialized object; the wire carries them as a
// JSON-encoded string and the stream reader parses them before attaching.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult is the outcome of a tool call, carried by a tool turn.
// ToolCallID refers to a ToolCall.ID in the same or an earlier assistant
// turn; a result whose call cannot be found is dropped by the reader.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Result     any    `json:"result"`
	IsError    bool   `json:"is_error"`
}

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn represents a single entry in the chat transcript.
//
// Invariants maintained by the session store:
//   - a tool turn always carries exactly one ToolResult and empty Content
//   - an assistant turn with empty Content and no ToolCalls is the streaming
//     placeholder and only ever appears as the last transcript element
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	// Assistant turns only
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// Tool turns only
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// NewUserTurn creates a user turn with the given content.
func NewUserTurn(content string) *Turn {
	return &Turn{
		ID:        generateTurnID(),
		Role:      RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewAssistantTurn creates an empty assistant turn. Until content or a tool
// call arrives it serves as the "awaiting response" placeholder.
func NewAssistantTurn() *Turn {
	return &Turn{
		ID:        generateTurnID(),
		Role:      RoleAssistant,
		CreatedAt: time.Now(),
	}
}

// NewToolTurn creates a tool turn carrying a single result.
func NewToolTurn(result ToolResult) *Turn {
	return &Turn{
		ID:         generateTurnID(),
		Role:       RoleTool,
		CreatedAt:  time.Now(),
		ToolResult: &result,
	}
}

// AppendContent appends a streamed delta to the turn content.
func (t *Turn) AppendContent(delta string) {
	t.Content += delta
}

// AddToolCall attaches a tool call to an assistant turn.
func (t *Turn) AddToolCall(call ToolCall) {
	t.ToolCalls = append(t.ToolCalls, call)
}

// FindToolCall returns the tool call with the given ID, or nil.
func (t *Turn) FindToolCall(id string) *ToolCall {
	for i := range t.ToolCalls {
		if t.ToolCalls[i].ID == id {
			return &t.ToolCalls[i]
		}
	}
	return nil
}

// IsPlaceholder reports whether an assistant turn is still the empty
// "awaiting response" placeholder: no content and no tool calls.
func (t *Turn) IsPlaceholder() bool {
	return t.Role == RoleAssistant && t.Content == "" && len(t.ToolCalls) == 0
}

// Preview returns a truncated single-line preview of the turn content.
// Uses rune-based truncation to handle Unicode correctly.
func (t *Turn) Preview(maxLen int) string {
	runes := []rune(t.Content)
	if len(runes) <= maxLen {
		return t.Content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// =============================================================================
// ELICITATION REQUEST
// =============================================================================

// ElicitationRequest is a server-initiated request for additional structured
// user input before a tool call can complete. At most one is active for a
// session; it lives outside the transcript.
type ElicitationRequest struct {
	ToolCallID    string         `json:"tool_call_id"`
	ToolName      string         `json:"tool_name"`
	Component     string         `json:"component"`
	Prefilled     map[string]any `json:"prefilled"`
	MissingFields []string       `json:"missing_fields,omitempty"`
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateTurnID creates a unique turn ID.
func generateTurnID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "turn_" + hex.EncodeToString(bytes)
}
