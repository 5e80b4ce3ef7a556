// Package browser provides the browser sessions a run drives, backed by
// Playwright.
//
// # Architecture
//
// The package is built around three concepts:
//
// 1. Page: one live page in one browser, the unit a session runner works on
// 2. Manager: the registry of open pages and owner of the Playwright driver
// 3. Mode: where browsers come from, either launched locally or connected on
// a remote grid
//
// # Session Lifecycle
//
// The manager is initialized once per process, which installs (optionally)
// and starts the Playwright driver. Each session then calls Open, works on the
// returned Page and closes it. Close releases the page, its context and its
// browser, and removes the handle from the registry. Shutdown closes whatever
// is still open and stops the driver.
//
//	manager := browser.NewManager(browser.Options{Mode: browser.ModeLocal, Headless: true})
//	if err := manager.Initialize(); err != nil {
//	    return err
//	}
//	defer manager.Shutdown()
//
//	page, err := manager.Open(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer page.Close()
//
// # Remote Grids
//
// In ModeRemote every Open connects to a Playwright websocket endpoint. The
// session's platform descriptor, its browser, its name and the grid
// credentials are encoded as a JSON "caps" query parameter, which is the
// format BrowserStack's Playwright endpoint accepts. ReportStatus sends the
// result back through the grid's executor hook; locally it does nothing.
//
// # Timeouts
//
// Playwright calls are not context aware. Every call is given an explicit
// timeout, shortened to the context deadline when that is sooner, and the
// context is checked before each call.
package browser
