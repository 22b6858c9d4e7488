// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// THEME CREATION TESTS
// =============================================================================

func TestNewTheme(t *testing.T) {
	theme := NewTheme()

	if theme == nil {
		t.Fatal("NewTheme() returned nil")
	}

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"UserBubble", theme.UserBubble},
		{"AssistantBubble", theme.AssistantBubble},
		{"StatusBar", theme.StatusBar},
		{"InputContainer", theme.InputContainer},
		{"PriceRow", theme.PriceRow},
		{"ErrorBanner", theme.ErrorBanner},
		{"Toast", theme.Toast},
		{"Elicitation", theme.Elicitation},
	}
	for _, tc := range styles {
		if rendered := tc.style.Render("test"); rendered == "" {
			t.Errorf("%s style should render non-empty output", tc.name)
		}
	}
}

func TestTheme_Resize(t *testing.T) {
	theme := NewTheme()
	theme.Resize(120, 40)

	if theme.Width != 120 || theme.Height != 40 {
		t.Errorf("Resize() = %dx%d, want 120x40", theme.Width, theme.Height)
	}
}
