package config

import (
	"fmt"
	"net/url"
	"sync"
)

const (
	// SectionIDGrid is the identifier for the remote grid section
	SectionIDGrid = "grid"
)

// GridSection holds remote browser grid credentials.
type GridSection struct {
	Username  string
	AccessKey string
	Endpoint  string
	mu        sync.RWMutex
}

// NewGridSection creates an empty grid section.
func NewGridSection() *GridSection {
	return &GridSection{}
}

func (s *GridSection) ID() string    { return SectionIDGrid }
func (s *GridSection) Title() string { return "Remote Grid" }

func (s *GridSection) Description() string {
	return "Credentials and websocket endpoint of the remote Playwright grid."
}

func (s *GridSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"username":   s.Username,
		"access_key": s.AccessKey,
		"endpoint":   s.Endpoint,
	}
}

func (s *GridSection) SetData(data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := data["username"].(string); ok {
		s.Username = v
	}
	if v, ok := data["access_key"].(string); ok {
		s.AccessKey = v
	}
	if v, ok := data["endpoint"].(string); ok {
		s.Endpoint = v
	}
	return nil
}

// Validate checks the endpoint, when one is set, is a websocket URL.
func (s *GridSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Endpoint == "" {
		return nil
	}
	u, err := url.Parse(s.Endpoint)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return fmt.Errorf("grid endpoint must be a ws:// or wss:// URL, got %q", s.Endpoint)
	}
	return nil
}

func (s *GridSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Username = ""
	s.AccessKey = ""
	s.Endpoint = ""
}

// Credentials returns the stored username, access key and endpoint.
func (s *GridSection) Credentials() (username, accessKey, endpoint string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Username, s.AccessKey, s.Endpoint
}
