// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/voyantic/farewatch-tui/internal/push"
	"github.com/voyantic/farewatch-tui/internal/ui/components"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SnapshotMsg:
		m.snapshot = msg.Snapshot
		m.refreshViewport()
		return m, nil

	case PriceUpdatesMsg:
		m.priceTable.SetUpdates(msg.Updates)
		return m, nil

	case ConnectionMsg:
		return m.handleConnection(msg.State)

	case ConfigMsg:
		m.renderer.SetMarkdown(msg.Markdown)
		m.refreshViewport()
		return m, nil

	case NoticeMsg:
		kind := components.ToastKindStatus
		if msg.IsError {
			kind = components.ToastKindError
		}
		m.toast = components.NewToast(msg.Message, kind)
		return m, nil

	case toastTickMsg:
		if m.toast.Message != "" && m.toast.Expired(time.Time(msg)) {
			m.toast = components.Toast{}
		}
		return m, toastTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.Resize(msg.Width, msg.Height)
	m.renderer.SetWidth(msg.Width)
	m.input.Width = msg.Width - 6

	viewportHeight := m.transcriptHeight()
	if !m.ready {
		m.viewport = viewport.New(msg.Width, viewportHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = viewportHeight
	}
	m.refreshViewport()
	return m, nil
}

// transcriptHeight is the terminal height minus header, input, status bar
// and, when visible, the price panel.
func (m Model) transcriptHeight() int {
	h := m.height - 6
	if m.showPrices {
		h -= m.pricePanelHeight()
	}
	if h < 3 {
		h = 3
	}
	return h
}

func (m Model) pricePanelHeight() int {
	if m.priceTable.Empty() {
		return 3
	}
	return strings.Count(m.priceTable.Render(), "\n") + 1
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Send):
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.Reset()
		m.chat.Send(text)
		return m, nil

	case key.Matches(msg, m.keyMap.Retry):
		m.chat.RetryLastMessage()
		return m, nil

	case key.Matches(msg, m.keyMap.NewSession):
		m.chat.StartNewSession()
		m.toast = components.NewToast("Started a new session", components.ToastKindStatus)
		return m, nil

	case key.Matches(msg, m.keyMap.Clear):
		m.chat.ClearMessages()
		return m, nil

	case key.Matches(msg, m.keyMap.TogglePrices):
		m.showPrices = !m.showPrices
		if m.ready {
			m.viewport.Height = m.transcriptHeight()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Refresh):
		if m.refresh != nil {
			m.refresh()
			m.toast = components.NewToast("Refreshing prices…", components.ToastKindStatus)
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Dismiss):
		if m.snapshot.Elicitation != nil {
			m.chat.Store().ClearElicitation()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.ScrollUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.ScrollDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleConnection(state push.ConnectionState) (tea.Model, tea.Cmd) {
	prev := m.connState
	m.connState = state

	switch state {
	case push.StateConnecting:
		if prev == push.StateConnected {
			m.toast = components.NewToast("Price updates interrupted, reconnecting…", components.ToastKindStatus)
		}
	case push.StateError:
		m.toast = components.NewToast("Price updates unavailable; falling back to manual refresh", components.ToastKindError)
	}
	return m, nil
}

// refreshViewport re-renders the transcript and follows the tail.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	wasAtBottom := m.viewport.AtBottom()

	var blocks []string
	for i, turn := range m.snapshot.Turns {
		streaming := m.snapshot.Streaming && i == len(m.snapshot.Turns)-1
		blocks = append(blocks, m.renderer.RenderTurn(turn, streaming))
	}
	m.viewport.SetContent(strings.Join(blocks, "\n\n"))

	if wasAtBottom || m.snapshot.Streaming {
		m.viewport.GotoBottom()
	}
}
