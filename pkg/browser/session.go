package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Session is a Page backed by Playwright.
type Session struct {
	// ID is the registry key. Names may repeat within a run; IDs do not.
	ID string

	// Name is the session configuration name
	Name string

	// BrowserTag is the configured browser name
	BrowserTag string

	Browser playwright.Browser
	Context playwright.BrowserContext
	Page    playwright.Page

	// Remote is true for grid sessions
	Remote bool

	CreatedAt time.Time

	navTimeout time.Duration
	release    func(id string)
	closeOnce  sync.Once
	closeErr   error
}

var _ Page = (*Session)(nil)

// Info returns the session metadata.
func (s *Session) Info() SessionInfo {
	return SessionInfo{
		ID:         s.ID,
		Name:       s.Name,
		Browser:    s.BrowserTag,
		CurrentURL: s.URL(),
		CreatedAt:  s.CreatedAt,
	}
}

func (s *Session) timeout(ctx context.Context, d time.Duration) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	deadline, ok := ctx.Deadline()
	ms := timeoutMillis(d, deadline, ok)
	if ms <= 0 {
		return 0, context.DeadlineExceeded
	}
	return ms, nil
}

// Navigate implements Page.
func (s *Session) Navigate(ctx context.Context, url string) error {
	ms, err := s.timeout(ctx, s.navTimeout)
	if err != nil {
		return err
	}

	waitUntil := playwright.WaitUntilState("domcontentloaded")
	resp, err := s.Page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: &waitUntil,
		Timeout:   &ms,
	})
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if resp != nil && resp.Status() >= 400 {
		return fmt.Errorf("navigation failed: %s returned status %d", url, resp.Status())
	}
	return nil
}

// DismissConsent implements Page.
func (s *Session) DismissConsent(ctx context.Context, selector string, wait time.Duration) (bool, error) {
	if selector == "" {
		return false, nil
	}

	ms, err := s.timeout(ctx, wait)
	if err != nil {
		return false, err
	}

	button := s.Page.Locator(selector).First()
	state := playwright.WaitForSelectorState("visible")
	err = button.WaitFor(playwright.LocatorWaitForOptions{
		State:   &state,
		Timeout: &ms,
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return false, nil
		}
		return false, fmt.Errorf("consent prompt: %w", err)
	}

	if err := button.Click(playwright.LocatorClickOptions{Timeout: &ms}); err != nil {
		return false, fmt.Errorf("consent click failed: %w", err)
	}

	// Settling is best effort; pages with long-polling never go idle.
	if ms, err = s.timeout(ctx, wait); err == nil {
		loadState := playwright.LoadState("networkidle")
		_ = s.Page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
			State:   &loadState,
			Timeout: &ms,
		})
	}
	return true, nil
}

// Content implements Page.
func (s *Session) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	html, err := s.Page.Content()
	if err != nil {
		return "", fmt.Errorf("content extraction failed: %w", err)
	}
	return html, nil
}

// URL implements Page.
func (s *Session) URL() string {
	if s.Page == nil {
		return ""
	}
	return s.Page.URL()
}

// ReportStatus implements Page. Local sessions have nobody to tell.
func (s *Session) ReportStatus(ctx context.Context, status Status, reason string) error {
	if !s.Remote {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	script, err := statusScript(status, reason)
	if err != nil {
		return fmt.Errorf("status payload: %w", err)
	}
	if _, err := s.Page.Evaluate("_ => {}", script); err != nil {
		return fmt.Errorf("status report failed: %w", err)
	}
	return nil
}

// Close implements Page. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.Page != nil {
			if err := s.Page.Close(); err != nil {
				errs = append(errs, fmt.Errorf("page: %w", err))
			}
		}
		if s.Context != nil {
			if err := s.Context.Close(); err != nil {
				errs = append(errs, fmt.Errorf("context: %w", err))
			}
		}
		if s.Browser != nil {
			if err := s.Browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("browser: %w", err))
			}
		}
		if s.release != nil {
			s.release(s.ID)
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
