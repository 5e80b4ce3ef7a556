package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/headlines/pkg/analysis"
	"github.com/entrhq/headlines/pkg/types"
)

// ConsoleOptions selects what Render prints.
type ConsoleOptions struct {
	// Details prints every item of every session.
	Details bool

	// Titles lists the collected titles before the frequency report.
	Titles bool
}

// Render writes the run report to w.
func Render(w io.Writer, run *Run, opts ConsoleOptions) error {
	var b strings.Builder

	b.WriteString(renderSummary(run))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Sessions"))
	b.WriteString("\n")
	for _, o := range run.Outcomes {
		b.WriteString(renderOutcome(o))
		b.WriteString("\n")
	}

	if opts.Details {
		for _, o := range run.Outcomes {
			if len(o.Items) == 0 {
				continue
			}
			b.WriteString(sectionStyle.Render(fmt.Sprintf("Articles from %s", o.Name)))
			b.WriteString("\n")
			for _, item := range o.Items {
				b.WriteString(renderItem(item))
			}
		}
	}

	if opts.Titles {
		b.WriteString(sectionStyle.Render("Translated titles collected"))
		b.WriteString("\n")
		if len(run.Titles) == 0 {
			b.WriteString(mutedStyle.Render("  (none)"))
			b.WriteString("\n")
		}
		for i, t := range run.Titles {
			line := fmt.Sprintf("%3d. %s", i+1, t.Text)
			if t.Fallback {
				line += mutedStyle.Render("  [untranslated]")
			}
			fmt.Fprintf(&b, "%s %s\n", line, mutedStyle.Render("("+t.Session+")"))
		}
	}

	b.WriteString(RenderFrequency(run.Analysis))

	_, err := io.WriteString(w, b.String())
	return err
}

func renderSummary(run *Run) string {
	status := okStyle.Render(strings.ToUpper(run.Status()))
	if run.Status() != "success" {
		status = errorStyle.Render(strings.ToUpper(run.Status()))
	}

	lines := []string{
		headerStyle.Render("Headlines run ") + mutedStyle.Render(run.RunID),
		fmt.Sprintf("Status:   %s", status),
		fmt.Sprintf("Sessions: %d succeeded, %d failed", run.Succeeded(), run.Failed()),
		fmt.Sprintf("Titles:   %d", len(run.Titles)),
	}
	if run.TargetURL != "" {
		lines = append(lines, fmt.Sprintf("Target:   %s", run.TargetURL))
	}
	if run.Duration > 0 {
		lines = append(lines, fmt.Sprintf("Duration: %s", run.Duration.Round(time.Millisecond)))
	}
	return summaryBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func renderOutcome(o types.SessionOutcome) string {
	if o.Succeeded {
		line := fmt.Sprintf("  %s %s  %d items", okStyle.Render("✓"), textStyle.Render(o.Name), o.ItemCount)
		if o.Fallbacks > 0 {
			line += mutedStyle.Render(fmt.Sprintf(", %d untranslated", o.Fallbacks))
		}
		if o.ReleaseErr != nil {
			line += mutedStyle.Render(" (release failed: " + o.ReleaseErr.Error() + ")")
		}
		return line
	}

	reason := "unknown error"
	if o.Err != nil {
		reason = o.Err.Error()
	}
	return fmt.Sprintf("  %s %s  %s", errorStyle.Render("✗"), textStyle.Render(o.Name), errorStyle.Render(reason))
}

func renderItem(item types.ItemResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %s\n", textStyle.Render(fmt.Sprintf("Article %d", item.Index+1)))
	fmt.Fprintf(&b, "    Title (original):   %s\n", item.Item.Title)
	fmt.Fprintf(&b, "    Title (translated): %s\n", item.Translated.Text)

	desc := item.Item.Description
	if desc == "" {
		desc = mutedStyle.Render("No description")
	}
	fmt.Fprintf(&b, "    Description:        %s\n", desc)

	switch {
	case item.ImagePath != "":
		fmt.Fprintf(&b, "    Image:              %s\n", item.ImagePath)
	case item.ImageError != "":
		fmt.Fprintf(&b, "    Image:              %s\n", errorStyle.Render(item.ImageError))
	case item.Item.ImageURL != "":
		fmt.Fprintf(&b, "    Image:              %s\n", item.Item.ImageURL)
	default:
		fmt.Fprintf(&b, "    Image:              %s\n", mutedStyle.Render("No image"))
	}
	return b.String()
}

// RenderFrequency formats a frequency report, or the "no data" notice.
func RenderFrequency(r analysis.Report) string {
	var b strings.Builder

	title := "Word frequency"
	switch r.Mode {
	case analysis.ModeThreshold:
		title = fmt.Sprintf("Words repeated more than %d times", r.Threshold)
	case analysis.ModeTop:
		title = fmt.Sprintf("Top %d words", r.TopN)
	}
	b.WriteString(sectionStyle.Render(title))
	b.WriteString("\n")

	if r.NoData {
		b.WriteString(mutedStyle.Render("  No words found in translated titles."))
		b.WriteString("\n")
		return b.String()
	}
	if len(r.Words) == 0 {
		b.WriteString(mutedStyle.Render("  No word passes the threshold."))
		b.WriteString("\n")
		return b.String()
	}

	width := 0
	for _, wc := range r.Words {
		if n := lipgloss.Width(wc.Word); n > width {
			width = n
		}
	}
	for _, wc := range r.Words {
		pad := strings.Repeat(" ", width-lipgloss.Width(wc.Word))
		fmt.Fprintf(&b, "  %s%s  %d\n", textStyle.Render(wc.Word), pad, wc.Count)
	}
	if r.FallbackTitles > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  (%d untranslated titles excluded)", r.FallbackTitles)))
		b.WriteString("\n")
	}
	return b.String()
}
