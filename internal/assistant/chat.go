// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/voyantic/farewatch-tui/internal/model"
	"github.com/voyantic/farewatch-tui/internal/session"
	"github.com/voyantic/farewatch-tui/internal/sse"
)

// Callbacks are the side-effect hooks invoked while folding a response
// stream. Nil hooks are skipped. They are called synchronously, in frame
// arrival order.
type Callbacks struct {
	OnToolCall    func(model.ToolCall)
	OnToolResult  func(model.ToolResult)
	OnElicitation func(model.ElicitationRequest)
	OnRateLimit   func(model.RateLimitNotice)
	OnError       func(error)
}

// =============================================================================
// CHAT SESSION
// =============================================================================

// Chat owns one conversation with the assistant: the session store, the
// cancellation token of the in-flight request, and the callbacks.
//
// Issuing a new Send while a previous request is still streaming cancels the
// previous request; a superseded request never mutates the store again, which
// the generation counter enforces even if its goroutine is still draining.
type Chat struct {
	client    *Client
	history   *HistoryClient
	store     *session.Store
	callbacks Callbacks

	mu         sync.Mutex
	generation int
	cancel     context.CancelFunc
	closed     bool

	wg sync.WaitGroup
}

// ChatOption configures a Chat.
type ChatOption func(*Chat)

// WithCallbacks sets the side-effect hooks.
func WithCallbacks(cb Callbacks) ChatOption {
	return func(c *Chat) { c.callbacks = cb }
}

// WithHistory sets the history-fetch collaborator backing session switches.
func WithHistory(h *HistoryClient) ChatOption {
	return func(c *Chat) { c.history = h }
}

// NewChat creates a chat session over the given transport and store.
func NewChat(client *Client, store *session.Store, opts ...ChatOption) *Chat {
	chat := &Chat{
		client: client,
		store:  store,
	}
	for _, opt := range opts {
		opt(chat)
	}
	return chat
}

// Store returns the session store consumers read from.
func (c *Chat) Store() *session.Store {
	return c.store
}

// =============================================================================
// PUBLIC COMMANDS
// =============================================================================

// Send posts a message and starts streaming the response. A message that is
// empty after trimming is a no-op. Any in-flight request is canceled first.
func (c *Chat) Send(message string) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return
	}

	gen, ctx, ok := c.beginRequest()
	if !ok {
		return
	}

	c.store.SetError(nil)
	c.store.AppendTurn(model.NewUserTurn(message))
	c.store.AppendTurn(model.NewAssistantTurn())

	threadID := c.store.ThreadID()
	if threadID == "" {
		threadID = uuid.NewString()
		c.store.SetThreadID(threadID)
	}

	c.store.SetLoading(true)
	c.store.SetStreaming(true)

	c.wg.Add(1)
	go c.run(ctx, gen, trimmed, threadID)
}

// ClearMessages cancels any in-flight request and resets the transcript,
// error, session identity, and loading flag.
func (c *Chat) ClearMessages() {
	c.cancelInflight()
	c.store.Clear()
}

// RetryLastMessage removes the most recent user turn and everything after it,
// then re-sends the same content through the normal send path. No-op when no
// user turn exists.
func (c *Chat) RetryLastMessage() {
	content, ok := c.store.TruncateFromLastUser()
	if !ok {
		return
	}
	c.Send(content)
}

// SwitchSession cancels any in-flight request and replaces the transcript
// with the history of the given thread. Requires a history collaborator.
func (c *Chat) SwitchSession(ctx context.Context, threadID string) error {
	c.cancelInflight()
	// The canceled request is superseded and can no longer clear the flag
	// itself, so the switch owns it now.
	c.store.SetLoading(false)
	if c.history == nil {
		return errors.New("no history client configured")
	}

	turns, err := c.history.Fetch(ctx, threadID)
	if err != nil {
		c.store.SetError(err)
		c.emitError(err)
		return err
	}

	c.store.ReplaceTranscript(threadID, turns)
	return nil
}

// StartNewSession cancels any in-flight request and begins a fresh session
// with a new thread identity.
func (c *Chat) StartNewSession() string {
	c.cancelInflight()
	c.store.Clear()
	threadID := uuid.NewString()
	c.store.SetThreadID(threadID)
	return threadID
}

// Close tears the session down: the in-flight request is canceled and no
// further sends are accepted.
func (c *Chat) Close() {
	c.mu.Lock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// Wait blocks until no request is in flight. Intended for tests.
func (c *Chat) Wait() {
	c.wg.Wait()
}

// =============================================================================
// STREAM PROCESSING
// =============================================================================

// run performs one request lifecycle: transport call, frame loop, cleanup.
func (c *Chat) run(ctx context.Context, gen int, message, threadID string) {
	defer c.wg.Done()
	defer c.finish(gen)

	body, err := c.client.Stream(ctx, message, threadID)
	if err != nil {
		c.fail(gen, err)
		return
	}
	defer body.Close()

	reader := sse.NewReader(body)
	for {
		if ctx.Err() != nil {
			return
		}

		event, err := reader.ReadEvent()
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				c.fail(gen, err)
			}
			return
		}

		if event.IsDone() {
			// A still-empty assistant turn at this point is a legitimate
			// empty response; it stays in the transcript.
			return
		}

		frame, err := model.ParseStreamFrame([]byte(event.Data))
		if err != nil {
			// Malformed frames are skipped, never fatal for the stream.
			continue
		}

		if !c.apply(gen, frame) {
			return
		}
	}
}

// apply folds one decoded frame into the store. Returns false when reading
// should stop: a terminal error frame, or a superseded request.
func (c *Chat) apply(gen int, frame *model.StreamFrame) bool {
	switch frame.Type {
	case model.FrameContent:
		return c.mutate(gen, func(s *session.Store) {
			s.AppendAssistantDelta(frame.Content)
		})

	case model.FrameToolCall:
		if frame.ToolCall == nil {
			return c.current(gen)
		}
		call, err := frame.ToolCall.Materialize()
		if err != nil {
			// Bad argument payloads are treated like malformed frames.
			return c.current(gen)
		}
		if !c.mutate(gen, func(s *session.Store) {
			s.AddToolCall(call)
		}) {
			return false
		}
		if c.callbacks.OnToolCall != nil {
			c.callbacks.OnToolCall(call)
		}

	case model.FrameToolResult:
		if frame.ToolResult == nil {
			return c.current(gen)
		}
		result := frame.ToolResult.Materialize()
		applied := false
		if !c.mutate(gen, func(s *session.Store) {
			// A result whose call is unknown is dangling and dropped.
			if s.HasToolCall(result.ToolCallID) {
				s.AppendToolResult(result)
				applied = true
			}
		}) {
			return false
		}
		if applied && c.callbacks.OnToolResult != nil {
			c.callbacks.OnToolResult(result)
		}

	case model.FrameElicitation:
		if frame.Elicitation == nil {
			return c.current(gen)
		}
		req := frame.Elicitation.Materialize()
		if !c.mutate(gen, func(s *session.Store) {
			s.SetElicitation(req)
		}) {
			return false
		}
		if c.callbacks.OnElicitation != nil {
			c.callbacks.OnElicitation(req)
		}

	case model.FrameRateLimited:
		// Status only: the transcript is untouched and processing continues.
		if !c.current(gen) {
			return false
		}
		if frame.RateLimit != nil && c.callbacks.OnRateLimit != nil {
			c.callbacks.OnRateLimit(*frame.RateLimit)
		}

	case model.FrameError:
		// A normal terminal frame, not an exception.
		err := errors.New(frame.Error)
		if c.mutate(gen, func(s *session.Store) {
			s.SetError(err)
		}) {
			c.emitError(err)
		}
		return false

	default:
		// Unknown frame kinds are ignored for forward compatibility.
		return c.current(gen)
	}

	return true
}

// =============================================================================
// REQUEST LIFECYCLE INTERNALS
// =============================================================================

// beginRequest cancels the previous request and registers a new one.
func (c *Chat) beginRequest() (int, context.Context, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, nil, false
	}

	if c.cancel != nil {
		c.cancel()
	}

	c.generation++
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	return c.generation, ctx, true
}

// cancelInflight cancels the current request, if any, and supersedes it so
// its goroutine can no longer mutate the store.
func (c *Chat) cancelInflight() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
}

// current reports whether gen is still the live request.
func (c *Chat) current(gen int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.generation && !c.closed
}

// mutate runs a store write only if gen is still the live request, holding
// the chat lock across the check and the write so a request superseded
// between them can never land a mutation on its successor's transcript.
// Store subscribers therefore run under this lock and must not call back
// into Chat commands.
func (c *Chat) mutate(gen int, fn func(*session.Store)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || c.closed {
		return false
	}
	fn(c.store)
	return true
}

// fail surfaces a transport or read failure as session error state. Stale
// and canceled requests surface nothing.
func (c *Chat) fail(gen int, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	if c.mutate(gen, func(s *session.Store) {
		s.SetError(err)
	}) {
		c.emitError(err)
	}
}

// finish clears the loading flag, exactly once per live request. Superseded
// requests must not clear the flag the newer request owns.
func (c *Chat) finish(gen int) {
	c.mutate(gen, func(s *session.Store) {
		s.SetLoading(false)
	})
}

func (c *Chat) emitError(err error) {
	if c.callbacks.OnError != nil {
		c.callbacks.OnError(err)
	}
}
