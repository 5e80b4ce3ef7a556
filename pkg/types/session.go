// Package types defines the values that flow between the session runner,
// the aggregator and the frequency analyzer.
package types

import (
	"fmt"
	"net/url"
	"strings"
)

// SessionConfig identifies one browser session in a run.
//
// A SessionConfig is consumed by exactly one session runner and must not be
// modified after the run starts.
type SessionConfig struct {
	// Name is the human-readable session name, unique within a run.
	Name string `yaml:"name" json:"name"`

	// Browser selects the browser engine (chrome, edge, firefox, safari, webkit).
	Browser string `yaml:"browser" json:"browser"`

	// Platform is the opaque capability set forwarded to the remote grid.
	Platform map[string]string `yaml:"platform" json:"platform,omitempty"`

	// URL is the page the session navigates to.
	URL string `yaml:"url" json:"url"`
}

// NewSessionConfig creates a session config for the given name, browser and URL.
func NewSessionConfig(name, browser, target string) SessionConfig {
	return SessionConfig{
		Name:     name,
		Browser:  browser,
		URL:      target,
		Platform: make(map[string]string),
	}
}

// WithPlatform returns a copy of the config with the capability key set.
// The receiver's platform map is never mutated.
func (c SessionConfig) WithPlatform(key, value string) SessionConfig {
	platform := make(map[string]string, len(c.Platform)+1)
	for k, v := range c.Platform {
		platform[k] = v
	}
	platform[key] = value
	c.Platform = platform
	return c
}

// Validate reports whether the session can be started at all.
func (c SessionConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("session name is required")
	}
	if c.URL == "" {
		return fmt.Errorf("session %q: url is required", c.Name)
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("session %q: invalid url: %w", c.Name, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("session %q: url must be absolute (got %q)", c.Name, c.URL)
	}
	return nil
}

// DuplicateNames returns the session names that appear more than once,
// in first-seen order.
func DuplicateNames(configs []SessionConfig) []string {
	seen := make(map[string]int, len(configs))
	var dups []string
	for _, c := range configs {
		seen[c.Name]++
		if seen[c.Name] == 2 {
			dups = append(dups, c.Name)
		}
	}
	return dups
}
