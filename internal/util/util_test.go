// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAtomicWriteFile_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.toml")

	if err := AtomicWriteFile(path, []byte("hello"), 0600); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("unexpected content %q", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
	}
}

func TestAtomicWriteFile_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "out.db")

	if err := AtomicWriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not created: %v", err)
	}
}

func TestAtomicWriteFile_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.toml")

	if err := AtomicWriteFile(path, []byte("old"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := AtomicWriteFile(path, []byte("new"), 0600); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Errorf("expected overwrite, got %q", data)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestTruncateWidth(t *testing.T) {
	tests := []struct {
		in       string
		maxWidth int
		want     string
	}{
		{"Lisbon", 10, "Lisbon"},
		{"Lisbon long weekend", 10, "Lisbon lo…"},
		{"東京旅行", 4, "東…"},
		{"東京旅行", 5, "東京…"},
		{"anything", 0, ""},
	}
	for _, tt := range tests {
		if got := TruncateWidth(tt.in, tt.maxWidth); got != tt.want {
			t.Errorf("TruncateWidth(%q, %d) = %q, want %q", tt.in, tt.maxWidth, got, tt.want)
		}
	}
}

func TestPadWidth(t *testing.T) {
	if got := PadWidth("Oslo", 8); got != "Oslo    " {
		t.Errorf("PadWidth = %q", got)
	}
	if got := PadWidth("東京", 6); got != "東京  " {
		t.Errorf("PadWidth wide = %q", got)
	}
	if got := PadLeftWidth("€ 850", 10); StringWidth(got) != 10 {
		t.Errorf("PadLeftWidth width = %d", StringWidth(got))
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("réservation", 8); got != "réser..." {
		t.Errorf("TruncateRunes = %q", got)
	}
	if got := TruncateRunes("ok", 8); got != "ok" {
		t.Errorf("TruncateRunes short = %q", got)
	}
}
