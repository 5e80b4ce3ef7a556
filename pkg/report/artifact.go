package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrhq/headlines/pkg/analysis"
	"github.com/entrhq/headlines/pkg/metrics"
)

// Artifact file names inside the output directory.
const (
	RunFile     = "run.json"
	SummaryFile = "summary.md"
	MetricsFile = "metrics.prom"
)

// ArtifactWriter handles writing run artifacts
type ArtifactWriter struct {
	outputDir string
}

// NewArtifactWriter creates a new artifact writer
func NewArtifactWriter(outputDir string) *ArtifactWriter {
	return &ArtifactWriter{
		outputDir: outputDir,
	}
}

// Dir returns the output directory.
func (w *ArtifactWriter) Dir() string {
	return w.outputDir
}

// WriteAll writes the run JSON, the markdown summary and, when m is not
// nil, the metrics.
func (w *ArtifactWriter) WriteAll(run *Run, m *metrics.Metrics) error {
	if err := w.Prepare(); err != nil {
		return err
	}

	if err := w.WriteRunJSON(run); err != nil {
		return err
	}

	if err := w.WriteSummaryMarkdown(run); err != nil {
		return err
	}

	if m != nil {
		if err := w.WriteMetrics(m); err != nil {
			return err
		}
	}

	return nil
}

// Prepare creates the output directory.
func (w *ArtifactWriter) Prepare() error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// WriteRunJSON writes the full run as JSON
func (w *ArtifactWriter) WriteRunJSON(run *Run) error {
	path := filepath.Join(w.outputDir, RunFile)

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return fmt.Errorf("failed to write run JSON: %w", writeErr)
	}

	return nil
}

// WriteSummaryMarkdown writes a human-readable markdown summary
func (w *ArtifactWriter) WriteSummaryMarkdown(run *Run) error {
	path := filepath.Join(w.outputDir, SummaryFile)

	if writeErr := os.WriteFile(path, []byte(SummaryMarkdown(run)), 0600); writeErr != nil {
		return fmt.Errorf("failed to write summary markdown: %w", writeErr)
	}

	return nil
}

// WriteMetrics writes the metrics in the Prometheus text format.
func (w *ArtifactWriter) WriteMetrics(m *metrics.Metrics) error {
	path := filepath.Join(w.outputDir, MetricsFile)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create metrics file: %w", err)
	}
	if err := m.WriteText(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// SummaryMarkdown renders the run as markdown.
func SummaryMarkdown(run *Run) string {
	var md strings.Builder

	md.WriteString("# Headlines Run Summary\n\n")
	md.WriteString(fmt.Sprintf("**Run:** %s\n\n", run.RunID))
	md.WriteString(fmt.Sprintf("**Status:** %s\n\n", run.Status()))
	if run.TargetURL != "" {
		md.WriteString(fmt.Sprintf("**Target:** %s\n\n", run.TargetURL))
	}
	md.WriteString(fmt.Sprintf("**Started:** %s\n\n", run.StartedAt.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Duration:** %s\n\n", run.Duration.Round(time.Millisecond)))

	md.WriteString("## Sessions\n\n")
	md.WriteString("| Session | Browser | Result | Items | Untranslated |\n")
	md.WriteString("|---|---|---|---|---|\n")
	for _, o := range run.Outcomes {
		result := "✅ passed"
		if !o.Succeeded {
			result = "❌ " + string(o.Kind())
		}
		md.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %d |\n",
			escapeCell(o.Name), escapeCell(o.Browser), result, o.ItemCount, o.Fallbacks))
	}
	md.WriteString("\n")

	var failures []string
	for _, o := range run.Outcomes {
		if o.Err != nil {
			failures = append(failures, fmt.Sprintf("- **%s:** %s", o.Name, o.Err.Error()))
		}
	}
	if len(failures) > 0 {
		md.WriteString("## Failures\n\n")
		md.WriteString(strings.Join(failures, "\n"))
		md.WriteString("\n\n")
	}

	if len(run.Titles) > 0 {
		md.WriteString("## Translated Titles\n\n")
		for i, t := range run.Titles {
			line := fmt.Sprintf("%d. %s _(%s)_", i+1, t.Text, t.Session)
			if t.Fallback {
				line += " (untranslated)"
			}
			md.WriteString(line + "\n")
		}
		md.WriteString("\n")
	}

	md.WriteString("## Word Frequency\n\n")
	if run.Analysis.NoData {
		md.WriteString("No words found in translated titles.\n")
		return md.String()
	}
	switch run.Analysis.Mode {
	case analysis.ModeThreshold:
		md.WriteString(fmt.Sprintf("Words repeated more than %d times.\n\n", run.Analysis.Threshold))
	default:
		md.WriteString(fmt.Sprintf("Top %d words.\n\n", run.Analysis.TopN))
	}
	if len(run.Analysis.Words) == 0 {
		md.WriteString("No word passes the threshold.\n")
		return md.String()
	}
	md.WriteString("| Word | Count |\n|---|---|\n")
	for _, wc := range run.Analysis.Words {
		md.WriteString(fmt.Sprintf("| %s | %d |\n", escapeCell(wc.Word), wc.Count))
	}

	return md.String()
}

// LoadRun reads a run.json written by WriteRunJSON. path may be the file or
// the output directory containing it.
func LoadRun(path string) (*Run, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, RunFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to parse run file: %w", err)
	}
	return &run, nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
