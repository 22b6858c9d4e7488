// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the application. It detects the
// terminal's color capability once and every view reads from it.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER AND STATUS
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	StatusBar   lipgloss.Style
	StatusOK    lipgloss.Style
	StatusWarn  lipgloss.Style
	StatusErr   lipgloss.Style

	// ==========================================================================
	// MESSAGE BUBBLES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	ToolHeader      lipgloss.Style
	ToolSuccess     lipgloss.Style
	ToolError       lipgloss.Style
	Timestamp       lipgloss.Style

	// ==========================================================================
	// INPUT AREA
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// PRICE PANEL
	// ==========================================================================

	PriceHeader lipgloss.Style
	PriceRow    lipgloss.Style
	PriceDrop   lipgloss.Style
	PriceRise   lipgloss.Style
	PricePanel  lipgloss.Style

	// ==========================================================================
	// NOTICES
	// ==========================================================================

	ErrorBanner lipgloss.Style
	Toast       lipgloss.Style
	ToastError  lipgloss.Style
	Spinner     lipgloss.Style
	Elicitation lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       lipgloss.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}

	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextPrimary).
		Padding(0, 1)
	t.HeaderBrand = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.StatusOK = lipgloss.NewStyle().Foreground(Emerald)
	t.StatusWarn = lipgloss.NewStyle().Foreground(Amber)
	t.StatusErr = lipgloss.NewStyle().Foreground(Rose)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Teal).
		Padding(0, 1)
	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Sky).
		Padding(0, 1)
	t.ToolHeader = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)
	t.ToolSuccess = lipgloss.NewStyle().Foreground(Emerald)
	t.ToolError = lipgloss.NewStyle().Foreground(Rose)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)

	t.InputContainer = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)
	t.InputPlaceholder = lipgloss.NewStyle().Foreground(TextMuted)

	t.PriceHeader = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true)
	t.PriceRow = lipgloss.NewStyle().Foreground(TextPrimary)
	t.PriceDrop = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.PriceRise = lipgloss.NewStyle().Foreground(Rose)
	t.PricePanel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.ErrorBanner = lipgloss.NewStyle().
		Foreground(Rose).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(0, 1)
	t.Toast = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextPrimary).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.ToastError = t.Toast.
		BorderForeground(Rose).
		Foreground(Rose)
	t.Spinner = lipgloss.NewStyle().Foreground(Sky)
	t.Elicitation = lipgloss.NewStyle().
		Foreground(Amber).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Amber).
		Padding(0, 1)

	return t
}

// Resize records the current terminal dimensions.
func (t *Theme) Resize(width, height int) {
	t.Width = width
	t.Height = height
}
