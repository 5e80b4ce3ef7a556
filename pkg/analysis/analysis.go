// Package analysis counts word frequencies across translated titles.
package analysis

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/entrhq/headlines/pkg/types"
)

// Mode selects how the report filters word counts.
type Mode string

const (
	// ModeTop keeps the N most frequent words.
	ModeTop Mode = "top"

	// ModeThreshold keeps words occurring more than Threshold times.
	ModeThreshold Mode = "threshold"
)

const (
	DefaultTopN      = 10
	DefaultThreshold = 2
)

// Options configures Analyze.
type Options struct {
	Mode      Mode `yaml:"mode" json:"mode"`
	TopN      int  `yaml:"top_n" json:"top_n"`
	Threshold int  `yaml:"threshold" json:"threshold"`
}

// DefaultOptions returns top-10 analysis.
func DefaultOptions() Options {
	return Options{Mode: ModeTop, TopN: DefaultTopN, Threshold: DefaultThreshold}
}

// Validate checks the options, filling zero values with defaults.
func (o *Options) Validate() error {
	if o.Mode == "" {
		o.Mode = ModeTop
	}
	switch o.Mode {
	case ModeTop:
		if o.TopN < 0 {
			return fmt.Errorf("top_n cannot be negative")
		}
		if o.TopN == 0 {
			o.TopN = DefaultTopN
		}
	case ModeThreshold:
		if o.Threshold < 0 {
			return fmt.Errorf("threshold cannot be negative")
		}
	default:
		return fmt.Errorf("invalid analysis mode: %s (must be 'top' or 'threshold')", o.Mode)
	}
	return nil
}

// WordCount is one word and its number of occurrences.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Report is the result of one analysis pass.
type Report struct {
	Mode      Mode        `json:"mode"`
	TopN      int         `json:"top_n,omitempty"`
	Threshold int         `json:"threshold,omitempty"`
	Words     []WordCount `json:"words"`

	// TotalTitles counts every input title, fallback-marked ones included.
	TotalTitles int `json:"total_titles"`

	// AnalyzedTitles counts titles that contributed words.
	AnalyzedTitles int `json:"analyzed_titles"`

	// FallbackTitles counts titles excluded because translation failed.
	FallbackTitles int `json:"fallback_titles"`

	// DistinctWords is the number of distinct words before filtering.
	DistinctWords int `json:"distinct_words"`

	// NoData is set when the input produced no words at all.
	NoData bool `json:"no_data"`
}

// Analyze counts normalized words across titles.
//
// Fallback-marked titles are excluded from the word counts. Results are
// deterministic: ties are broken by the order words were first seen.
func Analyze(titles []types.TranslatedTitle, opts Options) Report {
	if err := opts.Validate(); err != nil {
		opts = DefaultOptions()
	}

	report := Report{
		Mode:        opts.Mode,
		TotalTitles: len(titles),
		Words:       []WordCount{},
	}
	switch opts.Mode {
	case ModeTop:
		report.TopN = opts.TopN
	case ModeThreshold:
		report.Threshold = opts.Threshold
	}

	counts := make(map[string]int)
	var order []string
	for _, title := range titles {
		if title.Fallback {
			report.FallbackTitles++
			continue
		}
		words := Tokenize(title.Text)
		if len(words) > 0 {
			report.AnalyzedTitles++
		}
		for _, w := range words {
			if counts[w] == 0 {
				order = append(order, w)
			}
			counts[w]++
		}
	}

	report.DistinctWords = len(order)
	if len(order) == 0 {
		report.NoData = true
		return report
	}

	switch opts.Mode {
	case ModeTop:
		ranked := make([]WordCount, len(order))
		for i, w := range order {
			ranked[i] = WordCount{Word: w, Count: counts[w]}
		}
		// Stable sort keeps first-seen order among equal counts.
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Count > ranked[j].Count
		})
		if len(ranked) > opts.TopN {
			ranked = ranked[:opts.TopN]
		}
		report.Words = ranked
	case ModeThreshold:
		for _, w := range order {
			if counts[w] > opts.Threshold {
				report.Words = append(report.Words, WordCount{Word: w, Count: counts[w]})
			}
		}
	}

	return report
}

// AnalyzeStrings analyzes plain strings, none of them fallback-marked.
func AnalyzeStrings(titles []string, opts Options) Report {
	converted := make([]types.TranslatedTitle, len(titles))
	for i, t := range titles {
		converted[i] = types.Title(t)
	}
	return Analyze(converted, opts)
}

// Tokenize strips punctuation, lower-cases and splits on whitespace.
// Letters, numbers and underscores are word characters; everything else
// that is not whitespace is dropped.
func Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, text)
	return strings.Fields(strings.ToLower(cleaned))
}

// Get returns the count for word in the report, 0 when absent.
func (r Report) Get(word string) int {
	for _, wc := range r.Words {
		if wc.Word == word {
			return wc.Count
		}
	}
	return 0
}
