package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/entrhq/headlines/pkg/types"
)

// RenderSessions lists session configurations, one block per session.
func RenderSessions(sessions []types.SessionConfig) string {
	if len(sessions) == 0 {
		return mutedStyle.Render("No sessions selected.") + "\n"
	}

	var b strings.Builder
	heading := fmt.Sprintf("%d sessions", len(sessions))
	if len(sessions) == 1 {
		heading = "1 session"
	}
	b.WriteString(headerStyle.Render(heading))
	b.WriteString("\n")
	for i, s := range sessions {
		b.WriteString(fmt.Sprintf("\n%s %s\n", mutedStyle.Render(fmt.Sprintf("%d.", i+1)), textStyle.Render(s.Name)))
		b.WriteString(fmt.Sprintf("   browser:  %s\n", orNone(s.Browser)))
		b.WriteString(fmt.Sprintf("   url:      %s\n", orNone(s.URL)))
		if len(s.Platform) > 0 {
			b.WriteString(fmt.Sprintf("   platform: %s\n", platformString(s.Platform)))
		}
		if err := s.Validate(); err != nil {
			b.WriteString("   " + errorStyle.Render("invalid: "+err.Error()) + "\n")
		}
	}
	return b.String()
}

func platformString(platform map[string]string) string {
	keys := make([]string, 0, len(platform))
	for k := range platform {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + platform[k]
	}
	return strings.Join(parts, " ")
}

func orNone(s string) string {
	if s == "" {
		return mutedStyle.Render("(none)")
	}
	return s
}
