// Copyright (c) 2025-2026 Voyantic Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/voyantic/farewatch-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete farewatch configuration.
type Config struct {
	Version string `toml:"version"`

	// Server holds backend endpoint settings
	Server ServerConfig `toml:"server"`

	// Push holds push-channel reconnect settings
	Push PushConfig `toml:"push"`

	// Storage holds local database settings
	Storage StorageConfig `toml:"storage"`

	// UI holds terminal rendering settings
	UI UIConfig `toml:"ui"`
}

// ServerConfig contains backend endpoint configuration.
type ServerConfig struct {
	// BaseURL is the backend base URL, e.g. https://app.farewatch.dev
	BaseURL string `toml:"base_url"`
	// ConnectTimeoutSecs bounds dialing and response headers
	ConnectTimeoutSecs int `toml:"connect_timeout_secs"`
}

// PushConfig contains push-channel reconnect configuration.
type PushConfig struct {
	// HeartbeatIntervalSecs is the requested server keep-alive cadence
	HeartbeatIntervalSecs int `toml:"heartbeat_interval_secs"`
	// PollIntervalSecs is the requested server price-poll cadence
	PollIntervalSecs int `toml:"poll_interval_secs"`
	// BaseDelayMs is the reconnect backoff unit in milliseconds
	BaseDelayMs int `toml:"base_delay_ms"`
	// MaxReconnectAttempts bounds automatic reconnects before giving up
	MaxReconnectAttempts int `toml:"max_reconnect_attempts"`
}

// StorageConfig contains local database configuration.
type StorageConfig struct {
	// DatabasePath is the SQLite file (empty = ~/.farewatch/history.db)
	DatabasePath string `toml:"database_path"`
	// HistoryLimit caps observations returned per trip (0 = unlimited)
	HistoryLimit int `toml:"history_limit"`
}

// UIConfig contains terminal rendering configuration.
type UIConfig struct {
	// Theme selects the color theme: "dark", "light"
	Theme string `toml:"theme"`
	// Markdown enables rendered markdown in assistant replies
	Markdown bool `toml:"markdown"`
	// SyntaxTheme is the highlighting style for code blocks
	SyntaxTheme string `toml:"syntax_theme"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: "1.0",
		Server: ServerConfig{
			BaseURL:            "http://localhost:8080",
			ConnectTimeoutSecs: 30,
		},
		Push: PushConfig{
			HeartbeatIntervalSecs: 30,
			PollIntervalSecs:      60,
			BaseDelayMs:           1000,
			MaxReconnectAttempts:  5,
		},
		Storage: StorageConfig{
			HistoryLimit: 100,
		},
		UI: UIConfig{
			Theme:       "dark",
			Markdown:    true,
			SyntaxTheme: "monokai",
		},
	}
}

// BaseDelay returns the reconnect backoff unit as a duration.
func (p PushConfig) BaseDelay() time.Duration {
	return time.Duration(p.BaseDelayMs) * time.Millisecond
}

// HeartbeatInterval returns the keep-alive cadence as a duration.
func (p PushConfig) HeartbeatInterval() time.Duration {
	return time.Duration(p.HeartbeatIntervalSecs) * time.Second
}

// PollInterval returns the price-poll cadence as a duration.
func (p PushConfig) PollInterval() time.Duration {
	return time.Duration(p.PollIntervalSecs) * time.Second
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the farewatch config directory (~/.farewatch).
func ConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".farewatch"), nil
}

// ConfigPath returns the path to config.toml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from config.toml, falling back to defaults when
// the file is absent. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file. A missing
// file is not an error; defaults are used.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to config.toml atomically.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString("# farewatch configuration\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid config field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects all validation failures.
type ValidateErrors []ValidationError

// Error implements the error interface.
func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Server.BaseURL == "" {
		errs = append(errs, ValidationError{"server.base_url", "must not be empty"})
	} else if u, err := url.Parse(c.Server.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, ValidationError{"server.base_url", "must be an http(s) URL"})
	}
	if c.Server.ConnectTimeoutSecs <= 0 {
		errs = append(errs, ValidationError{"server.connect_timeout_secs", "must be positive"})
	}
	if c.Push.BaseDelayMs <= 0 {
		errs = append(errs, ValidationError{"push.base_delay_ms", "must be positive"})
	}
	if c.Push.MaxReconnectAttempts < 0 {
		errs = append(errs, ValidationError{"push.max_reconnect_attempts", "must not be negative"})
	}
	if c.Push.HeartbeatIntervalSecs <= 0 {
		errs = append(errs, ValidationError{"push.heartbeat_interval_secs", "must be positive"})
	}
	if c.Push.PollIntervalSecs <= 0 {
		errs = append(errs, ValidationError{"push.poll_interval_secs", "must be positive"})
	}
	if c.Storage.HistoryLimit < 0 {
		errs = append(errs, ValidationError{"storage.history_limit", "must not be negative"})
	}
	if c.UI.Theme != "dark" && c.UI.Theme != "light" {
		errs = append(errs, ValidationError{"ui.theme", "must be \"dark\" or \"light\""})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - FAREWATCH_BASE_URL: overrides server.base_url
//   - FAREWATCH_DB_PATH: overrides storage.database_path
//   - FAREWATCH_MAX_RECONNECTS: overrides push.max_reconnect_attempts
//   - FAREWATCH_THEME: overrides ui.theme
//   - FAREWATCH_NO_MARKDOWN: set to "1" or "true" to disable markdown
func (c *Config) ApplyEnvOverrides() {
	if baseURL := os.Getenv("FAREWATCH_BASE_URL"); baseURL != "" {
		c.Server.BaseURL = baseURL
	}
	if dbPath := os.Getenv("FAREWATCH_DB_PATH"); dbPath != "" {
		c.Storage.DatabasePath = dbPath
	}
	if maxReconnects := os.Getenv("FAREWATCH_MAX_RECONNECTS"); maxReconnects != "" {
		if n, err := strconv.Atoi(maxReconnects); err == nil && n >= 0 {
			c.Push.MaxReconnectAttempts = n
		}
	}
	if theme := os.Getenv("FAREWATCH_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if noMarkdown := os.Getenv("FAREWATCH_NO_MARKDOWN"); noMarkdown != "" {
		c.UI.Markdown = !(noMarkdown == "1" || strings.ToLower(noMarkdown) == "true")
	}
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
			cfg.ApplyEnvOverrides()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// ResetGlobalForTesting resets the global config state between tests.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
