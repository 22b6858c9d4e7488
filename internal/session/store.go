// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"

	"github.com/voyantic/farewatch-tui/internal/model"
)

// =============================================================================
// SNAPSHOT TYPE
// =============================================================================

// Snapshot is a point-in-time read-only view of the session state. Turns are
// copied so consumers can never mutate the transcript through a snapshot.
type Snapshot struct {
	Turns       []model.Turn
	ThreadID    string
	Loading     bool
	Streaming   bool
	Err         error
	Elicitation *model.ElicitationRequest
}

// LastTurn returns the final turn of the snapshot, or nil if empty.
func (s *Snapshot) LastTurn() *model.Turn {
	if len(s.Turns) == 0 {
		return nil
	}
	return &s.Turns[len(s.Turns)-1]
}

// =============================================================================
// SESSION STORE
// =============================================================================

// Store is the single owner of one chat session's mutable state.
//
// Even though the surrounding runtime serializes access through the stream
// reader, the store keeps its own lock so the transcript invariants hold no
// matter which goroutine a callback lands on.
type Store struct {
	mu sync.Mutex

	turns       []*model.Turn
	threadID    string
	loading     bool
	streaming   bool
	err         error
	elicitation *model.ElicitationRequest

	subscribers []func(Snapshot)
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{}
}

// Subscribe registers a listener invoked synchronously after every state
// change, with the snapshot that change produced.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// ThreadID returns the current thread identity, or empty if none is set.
func (s *Store) ThreadID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threadID
}

// Loading reports whether a request is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Streaming reports whether the trailing assistant turn is still growing.
// This is the unambiguous "still thinking" signal; a trailing empty
// assistant turn after completion is a legitimate empty response.
func (s *Store) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// Err returns the session error, or nil.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Elicitation returns the pending user-input request, or nil.
func (s *Store) Elicitation() *model.ElicitationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.elicitation == nil {
		return nil
	}
	req := *s.elicitation
	return &req
}

// TurnCount returns the number of transcript turns.
func (s *Store) TurnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// =============================================================================
// TRANSCRIPT COMMANDS
// =============================================================================

// AppendTurn appends a turn to the transcript.
func (s *Store) AppendTurn(turn *model.Turn) {
	s.mu.Lock()
	s.turns = append(s.turns, turn)
	s.notifyLocked()
}

// AppendAssistantDelta appends a content delta to the in-progress assistant
// turn. If the trailing turn is not an assistant turn (the placeholder was
// already consumed by a tool event), a fresh assistant turn is appended so
// there is always exactly one growing assistant turn per request.
func (s *Store) AppendAssistantDelta(delta string) {
	s.mu.Lock()
	s.trailingAssistantLocked().AppendContent(delta)
	s.notifyLocked()
}

// AddToolCall attaches a tool call to the in-progress assistant turn,
// creating it if necessary.
func (s *Store) AddToolCall(call model.ToolCall) {
	s.mu.Lock()
	s.trailingAssistantLocked().AddToolCall(call)
	s.notifyLocked()
}

// HasToolCall reports whether any assistant turn carries a tool call with
// the given ID. Used to drop dangling tool results.
func (s *Store) HasToolCall(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, turn := range s.turns {
		if turn.FindToolCall(id) != nil {
			return true
		}
	}
	return false
}

// AppendToolResult appends a tool turn carrying the given result.
func (s *Store) AppendToolResult(result model.ToolResult) {
	s.mu.Lock()
	s.turns = append(s.turns, model.NewToolTurn(result))
	s.notifyLocked()
}

// TruncateFromLastUser removes the most recent user turn and everything
// after it, returning the removed user content. Returns false when no user
// turn exists.
func (s *Store) TruncateFromLastUser() (string, bool) {
	s.mu.Lock()
	idx := -1
	for i := len(s.turns) - 1; i >= 0; i-- {
		if s.turns[i].Role == model.RoleUser {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return "", false
	}
	content := s.turns[idx].Content
	s.turns = s.turns[:idx]
	s.notifyLocked()
	return content, true
}

// ReplaceTranscript swaps in a whole transcript, used when switching to a
// session loaded from history. The request the old transcript belonged to is
// gone, so the loading and streaming flags reset with it.
func (s *Store) ReplaceTranscript(threadID string, turns []*model.Turn) {
	s.mu.Lock()
	s.threadID = threadID
	s.turns = turns
	s.err = nil
	s.loading = false
	s.streaming = false
	s.elicitation = nil
	s.notifyLocked()
}

// Clear resets the transcript, error, thread identity, and loading flag.
// Calling it twice in a row yields the same empty state as once.
func (s *Store) Clear() {
	s.mu.Lock()
	s.turns = nil
	s.threadID = ""
	s.err = nil
	s.loading = false
	s.streaming = false
	s.elicitation = nil
	s.notifyLocked()
}

// =============================================================================
// FLAG AND SLOT COMMANDS
// =============================================================================

// SetThreadID fixes the session identity.
func (s *Store) SetThreadID(id string) {
	s.mu.Lock()
	s.threadID = id
	s.notifyLocked()
}

// SetLoading toggles the in-flight flag.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	if !loading {
		s.streaming = false
	}
	s.notifyLocked()
}

// SetStreaming toggles the "assistant turn still growing" flag.
func (s *Store) SetStreaming(streaming bool) {
	s.mu.Lock()
	s.streaming = streaming
	s.notifyLocked()
}

// SetError records the session error.
func (s *Store) SetError(err error) {
	s.mu.Lock()
	s.err = err
	s.notifyLocked()
}

// SetElicitation installs the pending user-input request, superseding any
// prior one.
func (s *Store) SetElicitation(req model.ElicitationRequest) {
	s.mu.Lock()
	s.elicitation = &req
	s.notifyLocked()
}

// ClearElicitation drops the pending user-input request. Called by the
// consumer on form submit or cancel.
func (s *Store) ClearElicitation() {
	s.mu.Lock()
	s.elicitation = nil
	s.notifyLocked()
}

// =============================================================================
// INTERNAL
// =============================================================================

// trailingAssistantLocked returns the trailing assistant turn, appending a
// fresh one when the tail is missing or has another role.
func (s *Store) trailingAssistantLocked() *model.Turn {
	if n := len(s.turns); n > 0 && s.turns[n-1].Role == model.RoleAssistant {
		return s.turns[n-1]
	}
	turn := model.NewAssistantTurn()
	s.turns = append(s.turns, turn)
	return turn
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Turns:     make([]model.Turn, len(s.turns)),
		ThreadID:  s.threadID,
		Loading:   s.loading,
		Streaming: s.streaming,
		Err:       s.err,
	}
	for i, turn := range s.turns {
		snap.Turns[i] = *turn
	}
	if s.elicitation != nil {
		req := *s.elicitation
		snap.Elicitation = &req
	}
	return snap
}

// notifyLocked snapshots under the lock, releases it, then invokes the
// subscribers. Callbacks run outside the lock so they may call back into the
// store.
func (s *Store) notifyLocked() {
	snap := s.snapshotLocked()
	subscribers := make([]func(Snapshot), len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(snap)
	}
}
