package browser

import (
	"context"
	"time"

	"github.com/entrhq/headlines/pkg/types"
)

// Mode selects where browsers come from.
type Mode string

const (
	// ModeLocal launches browsers on this machine.
	ModeLocal Mode = "local"

	// ModeRemote connects to a Playwright grid endpoint.
	ModeRemote Mode = "remote"
)

// Status is the result reported back to a remote session.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// Page is one live browser page.
type Page interface {
	// Navigate loads url and waits for the DOM to be ready.
	Navigate(ctx context.Context, url string) error

	// DismissConsent clicks the element matching selector if it shows up
	// within wait. It reports whether a click happened; absence is not an
	// error. After a click the page is given up to wait to settle.
	DismissConsent(ctx context.Context, selector string, wait time.Duration) (bool, error)

	// Content returns the current document HTML.
	Content(ctx context.Context) (string, error)

	// URL returns the current page URL.
	URL() string

	// ReportStatus tells a remote grid how the session went.
	ReportStatus(ctx context.Context, status Status, reason string) error

	// Close releases the page and everything opened for it.
	Close() error
}

// Driver opens pages for session configurations.
type Driver interface {
	Open(ctx context.Context, cfg types.SessionConfig) (Page, error)
}

// Credentials authenticate against a remote grid.
type Credentials struct {
	Username  string
	AccessKey string
}

// Empty reports whether no credentials were given.
func (c Credentials) Empty() bool {
	return c.Username == "" && c.AccessKey == ""
}

// Options configures a Manager.
type Options struct {
	// Mode selects local launch or remote connect.
	Mode Mode

	// Headless controls whether local browsers show a window.
	Headless bool

	// Endpoint is the remote grid websocket URL.
	Endpoint string

	// Credentials for the remote grid.
	Credentials Credentials

	// Build groups remote sessions of one run on the grid dashboard.
	Build string

	// NavigationTimeout bounds page loads.
	NavigationTimeout time.Duration

	// ConnectTimeout bounds browser launch and remote connect.
	ConnectTimeout time.Duration

	// Viewport sets the page size.
	Viewport *Viewport

	// SkipInstall skips downloading the driver and browsers.
	SkipInstall bool
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// SessionInfo contains metadata about an open page.
type SessionInfo struct {
	ID         string
	Name       string
	Browser    string
	CurrentURL string
	CreatedAt  time.Time
}

// Default values for various operations
const (
	DefaultEndpoint          = "wss://cdp.browserstack.com/playwright"
	DefaultNavigationTimeout = 30 * time.Second
	DefaultConnectTimeout    = 60 * time.Second
	DefaultViewportWidth     = 1280
	DefaultViewportHeight    = 720
)
