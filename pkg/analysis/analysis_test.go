package analysis

import (
	"encoding/json"
	"testing"

	"github.com/entrhq/headlines/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_Empty(t *testing.T) {
	report := Analyze(nil, DefaultOptions())
	assert.True(t, report.NoData)
	assert.Empty(t, report.Words)
	assert.Equal(t, 0, report.TotalTitles)

	report = Analyze([]types.TranslatedTitle{}, Options{Mode: ModeThreshold, Threshold: 2})
	assert.True(t, report.NoData)
}

func TestAnalyze_OnlyPunctuation(t *testing.T) {
	report := AnalyzeStrings([]string{"!!!", " -- ", ""}, DefaultOptions())
	assert.True(t, report.NoData)
	assert.Equal(t, 3, report.TotalTitles)
	assert.Equal(t, 0, report.AnalyzedTitles)
}

func TestAnalyze_TopRanksByCountThenFirstSeen(t *testing.T) {
	report := AnalyzeStrings([]string{"Hello World", "hello world!", "Goodbye"}, DefaultOptions())

	require.False(t, report.NoData)
	assert.Equal(t, []WordCount{
		{Word: "hello", Count: 2},
		{Word: "world", Count: 2},
		{Word: "goodbye", Count: 1},
	}, report.Words)
	assert.Equal(t, 3, report.TotalTitles)
	assert.Equal(t, 3, report.AnalyzedTitles)
}

func TestAnalyze_TopNTruncates(t *testing.T) {
	report := AnalyzeStrings([]string{"a b c d e", "e d", "e"}, Options{Mode: ModeTop, TopN: 2})

	assert.Equal(t, []WordCount{{Word: "e", Count: 3}, {Word: "d", Count: 2}}, report.Words)
	assert.Equal(t, 5, report.DistinctWords)
}

func TestAnalyze_Threshold(t *testing.T) {
	titles := []string{
		"The war and the peace",
		"The peace talks",
		"Peace, at last: the end",
	}
	report := AnalyzeStrings(titles, Options{Mode: ModeThreshold, Threshold: 2})

	assert.Equal(t, []WordCount{{Word: "the", Count: 4}, {Word: "peace", Count: 3}}, report.Words)
	assert.False(t, report.NoData)
}

func TestAnalyze_ThresholdNothingRepeated(t *testing.T) {
	report := AnalyzeStrings([]string{"one two", "three"}, Options{Mode: ModeThreshold, Threshold: 2})

	assert.False(t, report.NoData)
	assert.Empty(t, report.Words)
}

func TestAnalyze_ExcludesFallbackTitles(t *testing.T) {
	titles := []types.TranslatedTitle{
		{Session: "s1", Index: 0, Text: "Europe votes"},
		{Session: "s1", Index: 1, Original: "La guerra", Text: "untranslated La guerra", Fallback: true},
		{Session: "s2", Index: 0, Text: "Europe waits"},
	}
	report := Analyze(titles, DefaultOptions())

	assert.Equal(t, 3, report.TotalTitles)
	assert.Equal(t, 2, report.AnalyzedTitles)
	assert.Equal(t, 1, report.FallbackTitles)
	assert.Equal(t, 2, report.Get("europe"))
	assert.Equal(t, 0, report.Get("untranslated"))
	assert.Equal(t, 0, report.Get("guerra"))
}

func TestAnalyze_AllFallbackIsNoData(t *testing.T) {
	titles := []types.TranslatedTitle{{Text: "untranslated x", Fallback: true}}
	report := Analyze(titles, DefaultOptions())

	assert.True(t, report.NoData)
	assert.Equal(t, 1, report.TotalTitles)
	assert.Equal(t, 1, report.FallbackTitles)
}

func TestAnalyze_Deterministic(t *testing.T) {
	titles := []string{
		"Opinion: the state of the union",
		"Union talks stall; state responds",
		"The end of an era",
		"An era of unions",
	}
	for _, opts := range []Options{DefaultOptions(), {Mode: ModeThreshold, Threshold: 1}} {
		first, err := json.Marshal(AnalyzeStrings(titles, opts))
		require.NoError(t, err)
		second, err := json.Marshal(AnalyzeStrings(titles, opts))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(second))
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Hello, World!", []string{"hello", "world"}},
		{"  multiple   spaces\tand\ttabs ", []string{"multiple", "spaces", "and", "tabs"}},
		{"¿Qué pasó?", []string{"qué", "pasó"}},
		{"snake_case stays", []string{"snake_case", "stays"}},
		{"2024: year-end review", []string{"2024", "yearend", "review"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.input))
		})
	}
}

func TestOptions_Validate(t *testing.T) {
	opts := Options{}
	require.NoError(t, opts.Validate())
	assert.Equal(t, ModeTop, opts.Mode)
	assert.Equal(t, DefaultTopN, opts.TopN)

	bad := Options{Mode: "median"}
	assert.Error(t, bad.Validate())

	negative := Options{Mode: ModeThreshold, Threshold: -1}
	assert.Error(t, negative.Validate())
}
