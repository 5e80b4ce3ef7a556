// Package report renders the result of a run for the console and writes run
// artifacts.
package report

import (
	"time"

	"github.com/entrhq/headlines/pkg/analysis"
	"github.com/entrhq/headlines/pkg/types"
)

// Run is everything a finished run produced.
type Run struct {
	RunID      string                  `json:"run_id"`
	TargetURL  string                  `json:"target_url,omitempty"`
	Mode       string                  `json:"mode,omitempty"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
	Duration   time.Duration           `json:"duration"`
	Outcomes   []types.SessionOutcome  `json:"outcomes"`
	Titles     []types.TranslatedTitle `json:"titles"`
	Analysis   analysis.Report         `json:"analysis"`
}

// Succeeded counts successful sessions.
func (r *Run) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Succeeded {
			n++
		}
	}
	return n
}

// Failed counts failed sessions.
func (r *Run) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}

// Status is "success" when every session succeeded, "partial" when some
// did, and "failed" otherwise.
func (r *Run) Status() string {
	switch ok := r.Succeeded(); {
	case len(r.Outcomes) > 0 && ok == len(r.Outcomes):
		return "success"
	case ok > 0:
		return "partial"
	default:
		return "failed"
	}
}
