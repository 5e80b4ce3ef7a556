package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/headlines/pkg/types"
)

// ErrNotInitialized is returned by Open before Initialize succeeded.
var ErrNotInitialized = errors.New("browser manager not initialized")

// Manager owns the Playwright driver and the registry of open pages. It is
// safe for concurrent use; each Open creates its own browser, context and
// page.
type Manager struct {
	mu          sync.RWMutex
	opts        Options
	sessions    map[string]*Session
	playwright  *playwright.Playwright
	initialized bool
}

// NewManager creates a manager. Zero option values take package defaults.
func NewManager(opts Options) *Manager {
	if opts.Mode == "" {
		opts.Mode = ModeLocal
	}
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = DefaultNavigationTimeout
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.Viewport == nil {
		opts.Viewport = &Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		}
	}
	return &Manager{
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Options returns the effective options.
func (m *Manager) Options() Options {
	return m.opts
}

// Initialize installs (unless skipped) and starts the Playwright driver.
// It must be called before Open.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	if m.opts.Mode == ModeRemote && m.opts.Credentials.Empty() {
		return fmt.Errorf("remote mode requires grid credentials")
	}

	// Driver output would interleave with the run report.
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if m.opts.Mode == ModeRemote {
		// Browsers live on the grid; only the driver is needed.
		runOpts.SkipInstallBrowsers = true
	}

	if !m.opts.SkipInstall {
		if err := playwright.Install(runOpts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	m.playwright = pw
	m.initialized = true
	return nil
}

// Open starts a browser for cfg and returns its page.
func (m *Manager) Open(ctx context.Context, cfg types.SessionConfig) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	pw, initialized := m.playwright, m.initialized
	m.mu.RUnlock()
	if !initialized {
		return nil, ErrNotInitialized
	}

	browser, err := m.connect(ctx, pw, cfg)
	if err != nil {
		return nil, err
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  m.opts.Viewport.Width,
			Height: m.opts.Viewport.Height,
		},
	})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	page.SetDefaultTimeout(float64(m.opts.NavigationTimeout.Milliseconds()))

	session := &Session{
		ID:         uuid.NewString(),
		Name:       cfg.Name,
		BrowserTag: cfg.Browser,
		Browser:    browser,
		Context:    bctx,
		Page:       page,
		Remote:     m.opts.Mode == ModeRemote,
		CreatedAt:  time.Now(),
		navTimeout: m.opts.NavigationTimeout,
		release:    m.forget,
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	return session, nil
}

func (m *Manager) connect(ctx context.Context, pw *playwright.Playwright, cfg types.SessionConfig) (playwright.Browser, error) {
	deadline, hasDeadline := ctx.Deadline()
	timeout := timeoutMillis(m.opts.ConnectTimeout, deadline, hasDeadline)
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	browserType := pw.Chromium
	switch engineFor(cfg.Browser) {
	case engineFirefox:
		browserType = pw.Firefox
	case engineWebKit:
		browserType = pw.WebKit
	}

	if m.opts.Mode == ModeRemote {
		caps := BuildCaps(cfg, m.opts.Credentials, m.opts.Build)
		wsURL, err := ConnectURL(m.opts.Endpoint, caps)
		if err != nil {
			return nil, err
		}
		browser, err := browserType.Connect(wsURL, playwright.BrowserTypeConnectOptions{
			Timeout: playwright.Float(timeout),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to grid: %w", err)
		}
		return browser, nil
	}

	browser, err := browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(m.opts.Headless),
		Timeout:  playwright.Float(timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return browser, nil
}

// forget removes a closed session from the registry.
func (m *Manager) forget(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// ListSessions returns the open pages ordered by creation time.
func (m *Manager) ListSessions() []SessionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(m.sessions))
	for _, session := range m.sessions {
		infos = append(infos, session.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// HasSessions returns true if there are any open pages.
func (m *Manager) HasSessions() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions) > 0
}

// Shutdown closes every open page and stops Playwright.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		open = append(open, session)
	}
	m.mu.Unlock()

	var errs []error
	for _, session := range open {
		if err := session.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized && m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		m.initialized = false
		m.playwright = nil
	}

	return errors.Join(errs...)
}
