// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/voyantic/farewatch-tui/internal/ui/styles"
)

// =============================================================================
// TOASTS
// =============================================================================

// ToastKind selects the toast styling.
type ToastKind int

const (
	// ToastKindStatus is an informational toast
	ToastKindStatus ToastKind = iota
	// ToastKindError is an error toast
	ToastKindError
)

// DefaultToastDuration is the auto-dismiss duration for status toasts.
const DefaultToastDuration = 4 * time.Second

// ErrorToastDuration keeps error toasts up longer so they can be read.
const ErrorToastDuration = 8 * time.Second

// Toast is a transient, non-blocking notice rendered over the status bar.
// Connection hiccups surface here without interrupting the conversation.
type Toast struct {
	Message   string
	Kind      ToastKind
	CreatedAt time.Time
}

// NewToast creates a toast stamped with the current time.
func NewToast(message string, kind ToastKind) Toast {
	return Toast{Message: message, Kind: kind, CreatedAt: time.Now()}
}

// Expired reports whether the toast should be dismissed.
func (t Toast) Expired(now time.Time) bool {
	d := DefaultToastDuration
	if t.Kind == ToastKindError {
		d = ErrorToastDuration
	}
	return now.Sub(t.CreatedAt) >= d
}

// Render returns the styled toast, or empty when there is no message.
func (t Toast) Render(theme *styles.Theme) string {
	if t.Message == "" {
		return ""
	}
	style := theme.Toast
	if t.Kind == ToastKindError {
		style = theme.ToastError
	}
	return style.Render(t.Message)
}
