package config

import (
	"fmt"

	"github.com/gobwas/glob"

	"github.com/entrhq/headlines/pkg/types"
)

// SessionFilter selects sessions by name with glob patterns such as
// "*_Windows_Test" or "{Chrome,Edge}*".
type SessionFilter struct {
	patterns []glob.Glob
}

// NewSessionFilter compiles the patterns. No patterns matches everything.
func NewSessionFilter(patterns []string) (*SessionFilter, error) {
	f := &SessionFilter{}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid session pattern '%s': %w", pattern, err)
		}
		f.patterns = append(f.patterns, g)
	}
	return f, nil
}

// Match reports whether name matches any pattern.
func (f *SessionFilter) Match(name string) bool {
	if len(f.patterns) == 0 {
		return true
	}
	for _, pattern := range f.patterns {
		if pattern.Match(name) {
			return true
		}
	}
	return false
}

// Apply returns the sessions whose names match, in their original order.
func (f *SessionFilter) Apply(sessions []types.SessionConfig) []types.SessionConfig {
	var kept []types.SessionConfig
	for _, s := range sessions {
		if f.Match(s.Name) {
			kept = append(kept, s)
		}
	}
	return kept
}
