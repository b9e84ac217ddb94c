// Package browse manages the Chrome headless lifecycle for crawling and
// extraction: launch or connect via Rod, open stealth pages with bounded
// navigation timeouts, and release every page handle on every exit path.
package browse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// ErrNavigateTimeout indicates a page did not reach DOM-ready within the
// navigation timeout. Callers treat it as a contained, per-URL failure.
var ErrNavigateTimeout = errors.New("browse: navigation timeout")

// Config configures the browser manager.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string `json:"remote_url" yaml:"remote_url"`

	// NavigateTimeout bounds navigation plus DOM-ready wait per page.
	// Default: 30s.
	NavigateTimeout time.Duration `json:"navigate_timeout" yaml:"navigate_timeout"`

	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.NavigateTimeout <= 0 {
		c.NavigateTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Manager owns one Chrome process (or remote connection) and hands out
// sessions bound to it.
type Manager struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewManager creates a browser Manager. Call Start to launch Chrome.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// Start launches Chrome (or connects to a remote instance).
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("browse: manager is closed")
	}
	if m.browser != nil {
		return nil
	}

	log := m.cfg.Logger
	var wsURL string

	if m.cfg.RemoteURL != "" {
		wsURL = m.cfg.RemoteURL
		log.Info("browse: connecting to remote chrome", "url", wsURL)
	} else {
		l := launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("browse: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		log.Info("browse: launched local chrome")
	}

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("browse: connect: %w", err)
	}
	if err := b.IgnoreCertErrors(true); err != nil {
		log.Warn("browse: ignore cert errors failed", "error", err)
	}

	m.browser = b
	return nil
}

// NewSession returns a Session scoped to one crawl-and-index run or one
// single-page extraction. The caller owns it exclusively and must Close it
// on every exit path.
func (m *Manager) NewSession() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.browser == nil || m.closed {
		return nil, fmt.Errorf("browse: manager not started")
	}
	return &Session{
		browser: m.browser,
		timeout: m.cfg.NavigateTimeout,
		logger:  m.cfg.Logger,
	}, nil
}

// Close shuts down Chrome.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	if m.browser != nil {
		m.browser.Close()
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	return nil
}
