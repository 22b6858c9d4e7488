// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/voyantic/farewatch-tui/internal/assistant"
	"github.com/voyantic/farewatch-tui/internal/push"
	"github.com/voyantic/farewatch-tui/internal/session"
	"github.com/voyantic/farewatch-tui/internal/ui/components"
	"github.com/voyantic/farewatch-tui/internal/ui/styles"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the farewatch chat view.
type Model struct {
	theme *styles.Theme

	// Collaborators. The model issues commands; state comes back as
	// messages posted from the wiring layer.
	chat    *assistant.Chat
	refresh func()

	// Dimensions
	width  int
	height int
	ready  bool

	// Latest transcript snapshot
	snapshot session.Snapshot

	// Push channel state
	connState push.ConnectionState

	// UI components
	viewport   viewport.Model
	input      textinput.Model
	spinner    spinner.Model
	renderer   *components.MessageRenderer
	priceTable *components.PriceTable
	toast      components.Toast

	showPrices bool
	keyMap     KeyMap
}

// New creates the chat view. markdown enables glamour rendering of
// assistant replies.
func New(theme *styles.Theme, chatSession *assistant.Chat, markdown bool) Model {
	input := textinput.New()
	input.Placeholder = "Ask about your trips, or track a new one…"
	input.Prompt = theme.InputPrompt.Render("> ")
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	return Model{
		theme:      theme,
		chat:       chatSession,
		input:      input,
		spinner:    sp,
		renderer:   components.NewMessageRenderer(theme, 80, markdown),
		priceTable: components.NewPriceTable(theme),
		showPrices: true,
		keyMap:     DefaultKeyMap(),
		connState:  push.StateDisconnected,
	}
}

// SetRefreshAction installs the manual price-refresh action, invoked from
// the price panel's refresh key. Call before handing the model to the
// program.
func (m *Model) SetRefreshAction(fn func()) {
	m.refresh = fn
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, toastTick())
}

func toastTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}
