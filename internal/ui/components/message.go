// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/voyantic/farewatch-tui/internal/model"
	"github.com/voyantic/farewatch-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE RENDERER
// =============================================================================

// MessageRenderer turns transcript turns into styled terminal blocks.
type MessageRenderer struct {
	theme    *styles.Theme
	width    int
	markdown *glamour.TermRenderer
}

// NewMessageRenderer creates a renderer. Markdown rendering is best-effort:
// when glamour fails to initialize, assistant text falls back to plain.
func NewMessageRenderer(theme *styles.Theme, width int, markdown bool) *MessageRenderer {
	r := &MessageRenderer{theme: theme, width: width}
	if markdown {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(contentWidth(width)),
		)
		if err == nil {
			r.markdown = renderer
		}
	}
	return r
}

func contentWidth(width int) int {
	// Bubble borders and padding take four cells.
	w := width - 4
	if w < 20 {
		w = 20
	}
	return w
}

// SetMarkdown enables or disables markdown rendering, rebuilding the
// glamour renderer at the current width.
func (r *MessageRenderer) SetMarkdown(enabled bool) {
	if !enabled {
		r.markdown = nil
		return
	}
	if r.markdown != nil {
		return
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(contentWidth(r.width)),
	)
	if err == nil {
		r.markdown = renderer
	}
}

// SetWidth updates the wrap width after a resize.
func (r *MessageRenderer) SetWidth(width int) {
	if width == r.width {
		return
	}
	r.width = width
	if r.markdown != nil {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(contentWidth(width)),
		)
		if err == nil {
			r.markdown = renderer
		}
	}
}

// RenderTurn renders one transcript turn.
func (r *MessageRenderer) RenderTurn(turn model.Turn, streaming bool) string {
	switch turn.Role {
	case model.RoleUser:
		return r.renderUser(turn)
	case model.RoleAssistant:
		return r.renderAssistant(turn, streaming)
	case model.RoleTool:
		return r.renderTool(turn)
	default:
		return turn.Content
	}
}

func (r *MessageRenderer) renderUser(turn model.Turn) string {
	header := r.theme.HeaderBrand.Render(turn.Role.DisplayName())
	body := r.theme.UserBubble.Width(contentWidth(r.width)).Render(turn.Content)
	return header + "\n" + body
}

func (r *MessageRenderer) renderAssistant(turn model.Turn, streaming bool) string {
	var parts []string

	content := turn.Content
	if content == "" && streaming {
		content = "…"
	}
	if content != "" {
		if r.markdown != nil && !streaming {
			if rendered, err := r.markdown.Render(content); err == nil {
				content = strings.TrimRight(rendered, "\n")
			}
		}
		parts = append(parts, r.theme.AssistantBubble.Width(contentWidth(r.width)).Render(content))
	}

	for _, call := range turn.ToolCalls {
		parts = append(parts, r.theme.ToolHeader.Render(fmt.Sprintf("⚙ %s", call.Name)))
	}

	header := r.theme.Timestamp.Render(turn.Role.DisplayName())
	if len(parts) == 0 {
		return header
	}
	return header + "\n" + strings.Join(parts, "\n")
}

func (r *MessageRenderer) renderTool(turn model.Turn) string {
	result := turn.ToolResult
	if result == nil {
		return ""
	}

	status := r.theme.ToolSuccess.Render("✓")
	if result.IsError {
		status = r.theme.ToolError.Render("✗")
	}
	header := fmt.Sprintf("%s %s", status, r.theme.ToolHeader.Render(result.Name))

	block := NewResultBlock(result.Result)
	block.SetMaxWidth(contentWidth(r.width))
	return header + "\n" + block.Render()
}
