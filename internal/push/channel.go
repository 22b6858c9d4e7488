// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package push

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/voyantic/farewatch-tui/internal/model"
	"github.com/voyantic/farewatch-tui/internal/sse"
)

// =============================================================================
// CONNECTION STATE
// =============================================================================

// ConnectionState is the lifecycle state of the push subscription.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateError
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// =============================================================================
// CONFIGURATION
// =============================================================================

const (
	// DefaultBaseDelay is the backoff unit: the Nth automatic reconnect
	// waits DefaultBaseDelay << (N-1).
	DefaultBaseDelay = time.Second

	// DefaultMaxReconnectAttempts bounds automatic reconnects before the
	// channel parks in the error state.
	DefaultMaxReconnectAttempts = 5

	// DefaultHeartbeatInterval is the requested server keep-alive cadence.
	DefaultHeartbeatInterval = 30 * time.Second

	// DefaultPollInterval is the requested server-side price poll cadence.
	DefaultPollInterval = 60 * time.Second
)

// Callbacks are side-effect hooks invoked from the channel's event loop.
// All fields are optional. Callbacks run outside the channel's lock but on
// the reading goroutine, so they must not block.
type Callbacks struct {
	OnConnectionStateChange func(ConnectionState)
	OnConnected             func(model.ConnectedEvent)
	OnPriceUpdate           func(model.PriceUpdate)
	OnHeartbeat             func(model.HeartbeatEvent)
	OnError                 func(error)
}

// scheduleFunc runs fn after d and returns a cancel function. Injectable so
// backoff is testable without real timers.
type scheduleFunc func(d time.Duration, fn func()) (cancel func())

func realSchedule(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Option configures a Channel.
type Option func(*Channel)

// WithHTTPClient replaces the transport, typically to share a cookie jar
// with the chat client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Channel) { c.httpClient = client }
}

// WithBaseDelay sets the backoff unit.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Channel) { c.baseDelay = d }
}

// WithMaxReconnectAttempts sets the automatic reconnect cap.
func WithMaxReconnectAttempts(n int) Option {
	return func(c *Channel) { c.maxAttempts = n }
}

// WithIntervals sets the heartbeat and poll intervals requested from the
// server.
func WithIntervals(heartbeat, poll time.Duration) Option {
	return func(c *Channel) {
		c.heartbeatInterval = heartbeat
		c.pollInterval = poll
	}
}

// WithCallbacks registers side-effect hooks.
func WithCallbacks(cb Callbacks) Option {
	return func(c *Channel) { c.callbacks = cb }
}

func withScheduler(s scheduleFunc) Option {
	return func(c *Channel) { c.schedule = s }
}

// =============================================================================
// CHANNEL
// =============================================================================

// Channel is an auto-reconnecting subscription to the price-update stream.
// It exclusively owns its update set and connection state; consumers read
// snapshots and register callbacks, never write.
type Channel struct {
	endpoint          string
	httpClient        *http.Client
	baseDelay         time.Duration
	maxAttempts       int
	heartbeatInterval time.Duration
	pollInterval      time.Duration
	callbacks         Callbacks
	schedule          scheduleFunc

	mu          sync.Mutex
	state       ConnectionState
	attempt     int
	generation  int
	updates     []model.PriceUpdate
	connCancel  context.CancelFunc
	timerCancel func()
	closed      bool

	wg sync.WaitGroup
}

// NewChannel creates a disconnected channel for baseURL's updates endpoint.
func NewChannel(baseURL string, opts ...Option) *Channel {
	c := &Channel{
		endpoint:          baseURL + "/v1/sse/updates",
		httpClient:        &http.Client{},
		baseDelay:         DefaultBaseDelay,
		maxAttempts:       DefaultMaxReconnectAttempts,
		heartbeatInterval: DefaultHeartbeatInterval,
		pollInterval:      DefaultPollInterval,
		schedule:          realSchedule,
		state:             StateDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current connection state.
func (c *Channel) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Updates returns a copy of the latest-per-trip update set.
func (c *Channel) Updates() []model.PriceUpdate {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.PriceUpdate, len(c.updates))
	copy(out, c.updates)
	return out
}

// ClearUpdates empties the update set. Connection state is untouched.
func (c *Channel) ClearUpdates() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = nil
}

// Connect starts (or restarts) the subscription. Any existing connection or
// pending reconnect is torn down first, the retry counter resets, and state
// moves to connecting before Connect returns.
func (c *Channel) Connect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.teardownLocked()
	c.generation++
	gen := c.generation
	c.attempt = 0
	notify := c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	notify()
	c.dial(gen)
}

// Disconnect cancels any pending reconnect, closes the connection, resets
// the retry counter, and moves state to disconnected.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.teardownLocked()
	c.generation++
	c.attempt = 0
	notify := c.setStateLocked(StateDisconnected)
	c.mu.Unlock()

	notify()
}

// Close disconnects and waits for the reader goroutine to exit. The channel
// cannot be reused afterwards.
func (c *Channel) Close() {
	c.mu.Lock()
	c.teardownLocked()
	c.generation++
	c.closed = true
	notify := c.setStateLocked(StateDisconnected)
	c.mu.Unlock()

	notify()
	c.wg.Wait()
}

// teardownLocked cancels the pending reconnect timer and the live
// connection, synchronously.
func (c *Channel) teardownLocked() {
	if c.timerCancel != nil {
		c.timerCancel()
		c.timerCancel = nil
	}
	if c.connCancel != nil {
		c.connCancel()
		c.connCancel = nil
	}
}

// setStateLocked records the state and returns the notification to run
// after the lock is released.
func (c *Channel) setStateLocked(state ConnectionState) func() {
	if c.state == state {
		return func() {}
	}
	c.state = state
	cb := c.callbacks.OnConnectionStateChange
	if cb == nil {
		return func() {}
	}
	return func() { cb(state) }
}

// =============================================================================
// DIAL AND READ LOOP
// =============================================================================

func (c *Channel) dial(gen int) {
	ctx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	if gen != c.generation || c.closed {
		c.mu.Unlock()
		cancel()
		return
	}
	c.connCancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run(ctx, gen)
}

func (c *Channel) run(ctx context.Context, gen int) {
	defer c.wg.Done()

	seconds := func(d time.Duration) string {
		return strconv.Itoa(int(d / time.Second))
	}
	query := url.Values{
		"heartbeat_interval": {seconds(c.heartbeatInterval)},
		"poll_interval":      {seconds(c.pollInterval)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		c.connectionLost(gen, err)
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.connectionLost(gen, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		c.connectionLost(gen, fmt.Errorf("updates stream returned HTTP %d", resp.StatusCode))
		return
	}

	reader := sse.NewReader(resp.Body)
	for {
		event, err := reader.ReadEvent()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if err == io.EOF {
				err = fmt.Errorf("updates stream closed by server")
			}
			c.connectionLost(gen, err)
			return
		}
		if event.IsDone() {
			c.connectionLost(gen, fmt.Errorf("updates stream ended"))
			return
		}
		c.handleEvent(gen, event)
	}
}

func (c *Channel) handleEvent(gen int, event sse.Event) {
	switch event.Name {
	case model.PushEventConnected:
		var ack model.ConnectedEvent
		if err := json.Unmarshal([]byte(event.Data), &ack); err != nil {
			return
		}
		c.mu.Lock()
		if gen != c.generation {
			c.mu.Unlock()
			return
		}
		c.attempt = 0
		notify := c.setStateLocked(StateConnected)
		cb := c.callbacks.OnConnected
		c.mu.Unlock()
		notify()
		if cb != nil {
			cb(ack)
		}

	case model.PushEventPriceUpdate:
		c.applyUpdate(gen, []byte(event.Data), false)

	case model.PushEventHeartbeat:
		var beat model.HeartbeatEvent
		if err := json.Unmarshal([]byte(event.Data), &beat); err != nil {
			return
		}
		if cb := c.callbacks.OnHeartbeat; cb != nil {
			cb(beat)
		}

	case model.PushEventError:
		var serverErr model.PushErrorEvent
		if err := json.Unmarshal([]byte(event.Data), &serverErr); err != nil {
			return
		}
		if cb := c.callbacks.OnError; cb != nil {
			cb(fmt.Errorf("server: %s", serverErr.Error))
		}

	case "":
		// Unnamed message events are the degraded-delivery fallback and
		// carry the price_update shape with a type discriminator.
		c.applyUpdate(gen, []byte(event.Data), true)
	}
}

// applyUpdate upserts one price update into the set. A new trip appends; a
// known trip is replaced in place so consumption order stays stable.
func (c *Channel) applyUpdate(gen int, payload []byte, fallback bool) {
	update, err := model.ParsePriceUpdate(payload)
	if err != nil || update.TripID == "" {
		return
	}
	if fallback && update.Type != model.PushEventPriceUpdate {
		return
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	replaced := false
	for i := range c.updates {
		if c.updates[i].TripID == update.TripID {
			c.updates[i] = *update
			replaced = true
			break
		}
	}
	if !replaced {
		c.updates = append(c.updates, *update)
	}
	cb := c.callbacks.OnPriceUpdate
	c.mu.Unlock()

	if cb != nil {
		cb(*update)
	}
}

// =============================================================================
// RECONNECT
// =============================================================================

// connectionLost cleans up after a transport failure and either schedules a
// backoff reconnect or, past the attempt cap, parks in the error state.
func (c *Channel) connectionLost(gen int, cause error) {
	c.mu.Lock()
	if gen != c.generation || c.closed {
		c.mu.Unlock()
		return
	}
	if c.connCancel != nil {
		c.connCancel()
		c.connCancel = nil
	}
	errCB := c.callbacks.OnError

	if c.attempt >= c.maxAttempts {
		notify := c.setStateLocked(StateError)
		c.mu.Unlock()
		notify()
		if errCB != nil {
			errCB(fmt.Errorf("updates stream gave up after %d reconnect attempts: %w", c.maxAttempts, cause))
		}
		return
	}

	delay := c.baseDelay << c.attempt
	c.attempt++
	notify := c.setStateLocked(StateConnecting)
	c.timerCancel = c.schedule(delay, func() {
		c.mu.Lock()
		stale := gen != c.generation || c.closed
		if !stale {
			c.timerCancel = nil
		}
		c.mu.Unlock()
		if stale {
			return
		}
		c.dial(gen)
	})
	c.mu.Unlock()

	notify()
	if errCB != nil {
		errCB(cause)
	}
}
