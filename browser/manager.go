// Package browser manages a headless Chromium via Rod and exposes open
// tabs as core.PageHandle implementations for the capture pipeline.
package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/rs/zerolog"
)

// Config configures the browser manager.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chromium via the Rod launcher.
	RemoteURL string

	// Headless toggles headless mode for locally launched browsers.
	// Default: true.
	Headless *bool

	// Stealth opens tabs through go-rod/stealth to look less like
	// automation. Job boards are aggressive about blocking bots.
	Stealth bool

	// ViewportWidth/ViewportHeight fix the tab viewport. Defaults: 1280x720.
	ViewportWidth  int
	ViewportHeight int

	Logger zerolog.Logger
}

func (c *Config) defaults() {
	if c.Headless == nil {
		headless := true
		c.Headless = &headless
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = 1280
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = 720
	}
}

// Manager owns the Chromium process and its Rod connection.
type Manager struct {
	cfg Config

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewManager creates a Manager. Call Start before opening tabs.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// Start launches Chromium (or connects to a remote instance).
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("browser: manager is closed")
	}
	if m.browser != nil {
		return nil
	}

	controlURL := m.cfg.RemoteURL
	if controlURL == "" {
		m.lnch = launcher.New().Headless(*m.cfg.Headless)
		u, err := m.lnch.Launch()
		if err != nil {
			return fmt.Errorf("browser: launch: %w", err)
		}
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("browser: connect: %w", err)
	}
	m.browser = b

	m.cfg.Logger.Info().Bool("headless", *m.cfg.Headless).Bool("remote", m.cfg.RemoteURL != "").
		Msg("browser started")
	return nil
}

// Browser returns the active Rod browser, or nil before Start.
func (m *Manager) Browser() *rod.Browser {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.browser
}

// Close shuts the browser and the launched Chromium process down.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	return err
}
