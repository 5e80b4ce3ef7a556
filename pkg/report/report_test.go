package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/headlines/pkg/analysis"
	"github.com/entrhq/headlines/pkg/metrics"
	"github.com/entrhq/headlines/pkg/types"
)

func sampleRun() *Run {
	titles := []types.TranslatedTitle{
		{Session: "Chrome_Windows_Test", Index: 0, Original: "Hola mundo", Text: "Hello world"},
		{Session: "Chrome_Windows_Test", Index: 1, Original: "Adiós", Text: "untranslated Adiós", Fallback: true},
		{Session: "Edge_Windows_Test", Index: 0, Original: "Hola", Text: "hello"},
	}
	return &Run{
		RunID:     "run-123",
		TargetURL: "https://elpais.com/opinion/",
		StartedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Duration:  42 * time.Second,
		Outcomes: []types.SessionOutcome{
			{
				Name: "Chrome_Windows_Test", Browser: "chrome", Succeeded: true, ItemCount: 2, Fallbacks: 1,
				Items: []types.ItemResult{
					{Index: 0, Item: types.RawItem{Title: "Hola mundo", Description: "Un saludo", ImageURL: "https://x/a.jpg"}, Translated: titles[0], ImagePath: "images/Chrome_Windows_Test/article_1.jpg"},
					{Index: 1, Item: types.RawItem{Title: "Adiós"}, Translated: titles[1]},
				},
			},
			{Name: "Edge_Windows_Test", Browser: "edge", Succeeded: true, ItemCount: 1},
			types.FailedOutcome("Safari_Mac_Test", types.NewSessionError(types.KindNavigation, "Safari_Mac_Test", assert.AnError)),
		},
		Titles:   titles,
		Analysis: analysis.Analyze(titles, analysis.DefaultOptions()),
	}
}

func TestRun_Status(t *testing.T) {
	run := sampleRun()
	assert.Equal(t, 2, run.Succeeded())
	assert.Equal(t, 1, run.Failed())
	assert.Equal(t, "partial", run.Status())

	assert.Equal(t, "failed", (&Run{}).Status())
	assert.Equal(t, "success", (&Run{Outcomes: []types.SessionOutcome{{Succeeded: true}}}).Status())
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleRun(), ConsoleOptions{Details: true, Titles: true}))
	out := buf.String()

	assert.Contains(t, out, "run-123")
	assert.Contains(t, out, "2 succeeded, 1 failed")
	assert.Contains(t, out, "Chrome_Windows_Test")
	assert.Contains(t, out, "1 untranslated")
	assert.Contains(t, out, "navigation")
	assert.Contains(t, out, "Title (original):   Hola mundo")
	assert.Contains(t, out, "Title (translated): Hello world")
	assert.Contains(t, out, "images/Chrome_Windows_Test/article_1.jpg")
	assert.Contains(t, out, "No description")
	assert.Contains(t, out, "Translated titles collected")
	assert.Contains(t, out, "Top 10 words")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "(1 untranslated titles excluded)")
}

func TestRender_Compact(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleRun(), ConsoleOptions{}))
	out := buf.String()
	assert.NotContains(t, out, "Title (original)")
	assert.NotContains(t, out, "Translated titles collected")
}

func TestRenderFrequency(t *testing.T) {
	assert.Contains(t, RenderFrequency(analysis.Analyze(nil, analysis.DefaultOptions())), "No words found")

	opts := analysis.Options{Mode: analysis.ModeThreshold, Threshold: 2}
	out := RenderFrequency(analysis.AnalyzeStrings([]string{"a b", "a"}, opts))
	assert.Contains(t, out, "more than 2 times")
	assert.Contains(t, out, "No word passes the threshold")

	out = RenderFrequency(analysis.AnalyzeStrings([]string{"war war war peace"}, opts))
	assert.Contains(t, out, "war")
	assert.NotContains(t, out, "peace")
}

func TestArtifactWriter_WriteAllAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := NewArtifactWriter(dir)
	m := metrics.New()
	m.Translation(false)

	run := sampleRun()
	require.NoError(t, w.WriteAll(run, m))

	for _, name := range []string{RunFile, SummaryFile, MetricsFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	summary, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "| Safari_Mac_Test |  | ❌ navigation | 0 | 0 |")
	assert.Contains(t, string(summary), "2. untranslated Adiós _(Chrome_Windows_Test)_ (untranslated)")
	assert.Contains(t, string(summary), "| hello | 2 |")

	prom, err := os.ReadFile(filepath.Join(dir, MetricsFile))
	require.NoError(t, err)
	assert.Contains(t, string(prom), `headlines_translations_total{result="ok"} 1`)

	loaded, err := LoadRun(dir)
	require.NoError(t, err)
	assert.Equal(t, run.RunID, loaded.RunID)
	assert.Equal(t, run.Titles, loaded.Titles)
	assert.Equal(t, run.Analysis, loaded.Analysis)
	require.Len(t, loaded.Outcomes, 3)
	assert.Equal(t, types.KindNavigation, loaded.Outcomes[2].Kind())
}

func TestArtifactWriter_WithoutMetrics(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewArtifactWriter(dir).WriteAll(sampleRun(), nil))
	_, err := os.Stat(filepath.Join(dir, MetricsFile))
	assert.True(t, os.IsNotExist(err))
}

func TestLoadRun_Errors(t *testing.T) {
	_, err := LoadRun(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0600))
	_, err = LoadRun(bad)
	assert.Error(t, err)
}

func TestRenderSessions(t *testing.T) {
	sessions := []types.SessionConfig{
		types.NewSessionConfig("Chrome_Windows_Test", "chrome", "https://example.com/").
			WithPlatform("os_version", "10").
			WithPlatform("os", "Windows"),
		{Name: "broken", Browser: "firefox"},
	}

	out := RenderSessions(sessions)
	assert.Contains(t, out, "2 sessions")
	assert.Contains(t, out, "Chrome_Windows_Test")
	assert.Contains(t, out, "platform: os=Windows os_version=10")
	assert.Contains(t, out, "invalid:")

	assert.Contains(t, RenderSessions(nil), "No sessions selected.")
}
