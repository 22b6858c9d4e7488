// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/voyantic/farewatch-tui/internal/push"
	"github.com/voyantic/farewatch-tui/internal/util"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Starting farewatch…"
	}

	sections := []string{
		m.renderHeader(),
		m.viewport.View(),
	}

	if m.showPrices {
		sections = append(sections, m.priceTable.Render())
	}
	if m.snapshot.Elicitation != nil {
		sections = append(sections, m.renderElicitation())
	}
	if m.snapshot.Err != nil {
		sections = append(sections, m.renderError())
	}

	sections = append(sections,
		m.theme.InputContainer.Width(m.width-2).Render(m.input.View()),
		m.renderStatusBar(),
	)
	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	brand := m.theme.HeaderBrand.Render("farewatch")
	thread := ""
	if id := m.snapshot.ThreadID; id != "" {
		thread = m.theme.Timestamp.Render("  session " + util.TruncateRunes(id, 11))
	}
	return m.theme.Header.Width(m.width).Render(brand + thread)
}

func (m Model) renderElicitation() string {
	e := m.snapshot.Elicitation
	prompt := fmt.Sprintf("%s needs more details", e.ToolName)
	if len(e.MissingFields) > 0 {
		prompt += ": " + strings.Join(e.MissingFields, ", ")
	}
	return m.theme.Elicitation.Width(m.width - 2).Render(prompt)
}

func (m Model) renderError() string {
	msg := m.snapshot.Err.Error()
	hint := m.theme.Timestamp.Render("  (ctrl+r to retry)")
	return m.theme.ErrorBanner.Width(m.width - 2).Render(msg + hint)
}

func (m Model) renderStatusBar() string {
	var left string
	if m.snapshot.Loading {
		left = m.spinner.View() + " thinking…"
	} else {
		left = m.theme.Timestamp.Render("enter send · ctrl+r retry · ctrl+n new · ctrl+p prices · ctrl+f refresh · ctrl+c quit")
	}

	right := m.renderConnState()
	if m.toast.Message != "" {
		right = m.toast.Render(m.theme)
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderConnState() string {
	switch m.connState {
	case push.StateConnected:
		return m.theme.StatusOK.Render("● live prices")
	case push.StateConnecting:
		return m.theme.StatusWarn.Render("◌ connecting")
	case push.StateError:
		return m.theme.StatusErr.Render("✗ offline")
	default:
		return m.theme.Timestamp.Render("○ idle")
	}
}
