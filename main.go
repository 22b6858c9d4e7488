// farewatch TUI - terminal companion for the farewatch travel assistant.
//
// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/voyantic/farewatch-tui/internal/assistant"
	"github.com/voyantic/farewatch-tui/internal/config"
	"github.com/voyantic/farewatch-tui/internal/model"
	"github.com/voyantic/farewatch-tui/internal/push"
	"github.com/voyantic/farewatch-tui/internal/session"
	"github.com/voyantic/farewatch-tui/internal/storage"
	"github.com/voyantic/farewatch-tui/internal/trips"
	"github.com/voyantic/farewatch-tui/internal/ui/chat"
	"github.com/voyantic/farewatch-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference for async delivery from network callbacks
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

// send posts a message to the running program, if any. Callbacks fire from
// network goroutines before and after the program's lifetime, so the nil
// check matters.
func send(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	serverURL := flag.String("server", "", "backend base URL (overrides config)")
	dbPath := flag.String("db", "", "path to the history database (overrides config)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("farewatch %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "farewatch requires an interactive terminal")
		os.Exit(1)
	}

	if err := runTUI(*serverURL, *dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(serverURL, dbPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if serverURL != "" {
		cfg.Server.BaseURL = serverURL
	}
	if dbPath != "" {
		cfg.Storage.DatabasePath = dbPath
	}
	config.SetGlobal(cfg)
	lipgloss.SetHasDarkBackground(cfg.UI.Theme != "light")

	// Hot-reload config.toml edits; the watcher installs the new global,
	// and render-relevant settings are pushed to the running view.
	if path, err := config.ConfigPath(); err == nil {
		if w, werr := config.NewWatcher(path, func(*config.Config) {
			send(chat.ConfigMsg{Markdown: config.Global().UI.Markdown})
			send(chat.NoticeMsg{Message: "configuration reloaded"})
		}); werr == nil {
			if werr = w.Watch(); werr != nil {
				w.Close()
			} else {
				defer w.Close()
			}
		}
	}

	dbFile := cfg.Storage.DatabasePath
	if dbFile == "" {
		dbFile, err = storage.DefaultPath()
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
	}
	db, err := storage.Open(dbFile)
	if err != nil {
		return fmt.Errorf("open history database: %w", err)
	}
	defer db.Close()

	// One cookie jar for everything that talks to the backend, so the
	// session cookie and CSRF token ride along on every request.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("cookie jar: %w", err)
	}
	connectTimeout := time.Duration(cfg.Server.ConnectTimeoutSecs) * time.Second
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: connectTimeout}).DialContext,
		TLSHandshakeTimeout:   connectTimeout,
		ResponseHeaderTimeout: connectTimeout,
	}

	client := assistant.NewClient(cfg.Server.BaseURL + "/v1/chat/stream").
		WithHTTPClient(&http.Client{Jar: jar, Transport: transport})
	history := assistant.NewHistoryClient(
		cfg.Server.BaseURL+"/v1/chat/history",
		&http.Client{Jar: jar, Transport: transport, Timeout: 15 * time.Second},
	)

	store := session.NewStore()

	// Archive the outgoing transcript whenever the thread changes, so
	// switching or starting a session never loses the old conversation.
	var lastMu sync.Mutex
	var last session.Snapshot
	store.Subscribe(func(snap session.Snapshot) {
		lastMu.Lock()
		prev := last
		last = snap
		lastMu.Unlock()
		if prev.ThreadID != "" && prev.ThreadID != snap.ThreadID && len(prev.Turns) > 0 {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := db.ArchiveTranscript(ctx, prev.ThreadID, prev.Turns); err != nil {
					send(chat.NoticeMsg{Message: "transcript not archived: " + err.Error(), IsError: true})
				}
			}()
		}
		send(chat.SnapshotMsg{Snapshot: snap})
	})

	chatSession := assistant.NewChat(client, store,
		assistant.WithHistory(history),
		assistant.WithCallbacks(assistant.Callbacks{
			OnRateLimit: func(n model.RateLimitNotice) {
				send(chat.NoticeMsg{
					Message: fmt.Sprintf("rate limited, retrying in %.0fs (attempt %d/%d)",
						n.RetryAfter, n.Attempt, n.MaxAttempts),
				})
			},
		}))
	defer chatSession.Close()

	var channel *push.Channel
	channel = push.Shared(cfg.Server.BaseURL,
		push.WithHTTPClient(&http.Client{Jar: jar, Transport: transport}),
		push.WithBaseDelay(cfg.Push.BaseDelay()),
		push.WithMaxReconnectAttempts(cfg.Push.MaxReconnectAttempts),
		push.WithIntervals(cfg.Push.HeartbeatInterval(), cfg.Push.PollInterval()),
		push.WithCallbacks(push.Callbacks{
			OnConnectionStateChange: func(state push.ConnectionState) {
				send(chat.ConnectionMsg{State: state})
			},
			OnPriceUpdate: func(update model.PriceUpdate) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := db.RecordUpdate(ctx, update); err != nil {
					send(chat.NoticeMsg{Message: "price history not recorded: " + err.Error(), IsError: true})
				}
				cancel()
				send(chat.PriceUpdatesMsg{Updates: channel.Updates()})
			},
			OnError: func(err error) {
				send(chat.NoticeMsg{Message: err.Error(), IsError: true})
			},
		}))
	defer channel.Close()

	tripsClient := trips.NewClient(cfg.Server.BaseURL,
		trips.WithHTTPClient(&http.Client{Jar: jar, Transport: transport, Timeout: trips.DefaultTimeout}))

	theme := styles.NewTheme()
	m := chat.New(theme, chatSession, cfg.UI.Markdown)
	m.SetRefreshAction(func() {
		go refreshAllPrices(tripsClient, channel)
	})

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	programMu.Lock()
	programRef = p
	programMu.Unlock()

	channel.Connect()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run farewatch: %w", err)
	}

	programMu.Lock()
	programRef = nil
	programMu.Unlock()

	// Let the in-flight request settle, then persist the transcript so the
	// conversation can be resumed next launch.
	chatSession.Close()
	snap := store.Snapshot()
	if snap.ThreadID != "" && len(snap.Turns) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.ArchiveTranscript(ctx, snap.ThreadID, snap.Turns); err != nil {
			fmt.Fprintf(os.Stderr, "warning: transcript not archived: %v\n", err)
		}
	}
	return nil
}

// refreshAllPrices asks the backend to re-quote every known trip. Trips seen
// on the push channel are used when available; otherwise the full list is
// fetched. Results arrive back asynchronously as price_update events.
func refreshAllPrices(client *trips.Client, channel *push.Channel) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var ids []string
	for _, u := range channel.Updates() {
		ids = append(ids, u.TripID)
	}
	if len(ids) == 0 {
		list, err := client.List(ctx)
		if err != nil {
			send(chat.NoticeMsg{Message: "refresh failed: " + err.Error(), IsError: true})
			return
		}
		for _, t := range list {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) == 0 {
		send(chat.NoticeMsg{Message: "no trips to refresh"})
		return
	}

	for _, id := range ids {
		if _, err := client.RefreshPrices(ctx, id); err != nil {
			send(chat.NoticeMsg{Message: "refresh failed: " + err.Error(), IsError: true})
			return
		}
	}
}
