package browser

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/entrhq/headlines/pkg/types"
)

// engine is the Playwright browser type a session runs on.
type engine string

const (
	engineChromium engine = "chromium"
	engineFirefox  engine = "firefox"
	engineWebKit   engine = "webkit"
)

// engineFor maps a configured browser name to a Playwright browser type.
// Unknown and Chromium-family names run on Chromium.
func engineFor(browserName string) engine {
	name := strings.ToLower(strings.TrimSpace(browserName))
	name = strings.TrimPrefix(name, "playwright-")
	switch name {
	case "firefox":
		return engineFirefox
	case "safari", "webkit":
		return engineWebKit
	default:
		return engineChromium
	}
}

// gridBrowser is the browser name the grid expects. Grid Safari sessions
// run on Playwright's WebKit build.
func gridBrowser(browserName string) string {
	name := strings.ToLower(strings.TrimSpace(browserName))
	switch name {
	case "":
		return "chrome"
	case "safari", "webkit":
		return "playwright-webkit"
	case "firefox":
		return "playwright-firefox"
	default:
		return name
	}
}

// BuildCaps returns the capability set sent to a remote grid for cfg.
// Platform entries are copied verbatim and win over derived keys, except for
// the credentials.
func BuildCaps(cfg types.SessionConfig, creds Credentials, build string) map[string]string {
	caps := map[string]string{
		"browser": gridBrowser(cfg.Browser),
		"name":    cfg.Name,
	}
	if build != "" {
		caps["build"] = build
	}
	for k, v := range cfg.Platform {
		caps[k] = v
	}
	if creds.Username != "" {
		caps["browserstack.username"] = creds.Username
	}
	if creds.AccessKey != "" {
		caps["browserstack.accessKey"] = creds.AccessKey
	}
	return caps
}

// ConnectURL encodes caps onto the grid endpoint.
func ConnectURL(endpoint string, caps map[string]string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid grid endpoint: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("invalid grid endpoint %q: scheme must be ws or wss", endpoint)
	}

	data, err := json.Marshal(caps)
	if err != nil {
		return "", fmt.Errorf("failed to encode capabilities: %w", err)
	}

	q := u.Query()
	q.Set("caps", string(data))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// statusScript is the argument BrowserStack's executor hook expects.
func statusScript(status Status, reason string) (string, error) {
	payload := map[string]interface{}{
		"action": "setSessionStatus",
		"arguments": map[string]string{
			"status": string(status),
			"reason": reason,
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return "browserstack_executor: " + string(data), nil
}

// timeoutMillis converts d to Playwright milliseconds, shortened to the
// context deadline when that comes first. A non-positive result means the
// deadline has passed.
func timeoutMillis(d time.Duration, deadline time.Time, hasDeadline bool) float64 {
	if hasDeadline {
		if remaining := time.Until(deadline); remaining < d {
			d = remaining
		}
	}
	return float64(d.Milliseconds())
}
