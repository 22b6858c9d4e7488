// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/voyantic/farewatch-tui/internal/assistant"
	"github.com/voyantic/farewatch-tui/internal/model"
	"github.com/voyantic/farewatch-tui/internal/push"
	"github.com/voyantic/farewatch-tui/internal/session"
	"github.com/voyantic/farewatch-tui/internal/ui/styles"
)

// newTestModel builds a ready model at a fixed terminal size. The chat
// session points at an unroutable endpoint; these tests never send.
func newTestModel(t *testing.T) Model {
	t.Helper()
	client := assistant.NewClient("http://127.0.0.1:0/v1/chat/stream")
	store := session.NewStore()
	chatSession := assistant.NewChat(client, store)
	t.Cleanup(chatSession.Close)

	m := New(styles.NewTheme(), chatSession, false)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model)
}

func TestUpdate_SnapshotRendersTranscript(t *testing.T) {
	m := newTestModel(t)

	snap := session.Snapshot{
		ThreadID: "f47ac10b-58cc-4372-a567-0e02b2c3d479",
		Turns: []model.Turn{
			*model.NewUserTurn("Track my Tokyo trip"),
		},
	}
	updated, _ := m.Update(SnapshotMsg{Snapshot: snap})
	m = updated.(Model)

	view := m.View()
	if !strings.Contains(view, "Track my Tokyo trip") {
		t.Error("view should contain the user turn content")
	}
	if !strings.Contains(view, "f47ac10b") {
		t.Error("header should show the session id")
	}
}

func TestUpdate_ErrorBannerAndRetryHint(t *testing.T) {
	m := newTestModel(t)

	snap := session.Snapshot{Err: errors.New("backend unavailable")}
	updated, _ := m.Update(SnapshotMsg{Snapshot: snap})
	view := updated.(Model).View()

	if !strings.Contains(view, "backend unavailable") {
		t.Error("view should surface the session error")
	}
	if !strings.Contains(view, "ctrl+r") {
		t.Error("error banner should hint at retry")
	}
}

func TestUpdate_ElicitationBanner(t *testing.T) {
	m := newTestModel(t)

	snap := session.Snapshot{
		Elicitation: &model.ElicitationRequest{
			ToolName:      "create_trip",
			MissingFields: []string{"start_date", "end_date"},
		},
	}
	updated, _ := m.Update(SnapshotMsg{Snapshot: snap})
	view := updated.(Model).View()

	if !strings.Contains(view, "create_trip needs more details") {
		t.Errorf("view missing elicitation prompt:\n%s", view)
	}
	if !strings.Contains(view, "start_date, end_date") {
		t.Error("elicitation banner should list missing fields")
	}
}

func TestUpdate_ConnectionStates(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(ConnectionMsg{State: push.StateConnected})
	m = updated.(Model)
	if !strings.Contains(m.View(), "live prices") {
		t.Error("connected state should show the live indicator")
	}

	// A drop from connected to connecting announces the reconnect.
	updated, _ = m.Update(ConnectionMsg{State: push.StateConnecting})
	m = updated.(Model)
	if !strings.Contains(m.toast.Message, "reconnecting") {
		t.Errorf("toast = %q", m.toast.Message)
	}

	updated, _ = m.Update(ConnectionMsg{State: push.StateError})
	m = updated.(Model)
	if !strings.Contains(m.View(), "manual refresh") {
		t.Error("error state should announce the fallback")
	}
}

func TestUpdate_NoticeBecomesToastAndExpires(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(NoticeMsg{Message: "configuration reloaded"})
	m = updated.(Model)
	if m.toast.Message != "configuration reloaded" {
		t.Fatalf("toast = %q", m.toast.Message)
	}

	// Not expired yet.
	updated, _ = m.Update(toastTickMsg(m.toast.CreatedAt.Add(time.Second)))
	m = updated.(Model)
	if m.toast.Message == "" {
		t.Fatal("toast expired too early")
	}

	updated, _ = m.Update(toastTickMsg(m.toast.CreatedAt.Add(time.Minute)))
	m = updated.(Model)
	if m.toast.Message != "" {
		t.Error("toast should expire")
	}
}

func TestUpdate_PricePanelToggle(t *testing.T) {
	m := newTestModel(t)

	updates := []model.PriceUpdate{{
		TripID:     "trip-1",
		TripName:   "Tokyo Spring",
		TotalPrice: &model.Money{Value: 1400, Currency: "USD"},
	}}
	updated, _ := m.Update(PriceUpdatesMsg{Updates: updates})
	m = updated.(Model)
	if !strings.Contains(m.View(), "Tokyo Spring") {
		t.Error("price panel should list the trip")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	m = updated.(Model)
	if strings.Contains(m.View(), "Tokyo Spring") {
		t.Error("ctrl+p should hide the price panel")
	}
}

func TestUpdate_TypedInputReachesTextField(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})
	m = updated.(Model)
	if m.input.Value() != "hi" {
		t.Errorf("input value = %q", m.input.Value())
	}
}

func TestUpdate_RefreshKeyInvokesAction(t *testing.T) {
	m := newTestModel(t)

	var calls int
	m.SetRefreshAction(func() { calls++ })

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	m = updated.(Model)
	if calls != 1 {
		t.Fatalf("refresh action ran %d times", calls)
	}
	if !strings.Contains(m.toast.Message, "Refreshing") {
		t.Errorf("toast = %q", m.toast.Message)
	}
}

func TestUpdate_RefreshKeyWithoutActionIsQuiet(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	m = updated.(Model)
	if m.toast.Message != "" {
		t.Errorf("no action installed, toast = %q", m.toast.Message)
	}
}

func TestUpdate_EscDismissesElicitation(t *testing.T) {
	m := newTestModel(t)

	store := m.chat.Store()
	store.SetElicitation(model.ElicitationRequest{ToolCallID: "call_1", ToolName: "create_trip"})
	updated, _ := m.Update(SnapshotMsg{Snapshot: store.Snapshot()})
	m = updated.(Model)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	if store.Elicitation() != nil {
		t.Error("esc should dismiss the pending input request")
	}
}

func TestUpdate_ConfigReloadTogglesMarkdown(t *testing.T) {
	m := newTestModel(t)

	answer := model.NewAssistantTurn()
	answer.Content = "Found a **great** fare."
	snap := session.Snapshot{Turns: []model.Turn{*answer}}
	updated, _ := m.Update(SnapshotMsg{Snapshot: snap})
	m = updated.(Model)
	if !strings.Contains(m.View(), "**great**") {
		t.Fatal("markdown off should render the raw content")
	}

	updated, _ = m.Update(ConfigMsg{Markdown: true})
	m = updated.(Model)
	if strings.Contains(m.View(), "**") {
		t.Error("markdown on should strip the markers")
	}

	updated, _ = m.Update(ConfigMsg{Markdown: false})
	m = updated.(Model)
	if !strings.Contains(m.View(), "**great**") {
		t.Error("markdown off again should restore the raw content")
	}
}
