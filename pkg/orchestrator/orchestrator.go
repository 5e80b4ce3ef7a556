// Package orchestrator fans a run out to one session per configuration and
// joins them.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/entrhq/headlines/pkg/logging"
	"github.com/entrhq/headlines/pkg/metrics"
	"github.com/entrhq/headlines/pkg/session"
	"github.com/entrhq/headlines/pkg/types"
)

// ErrNoSessions is returned by RunAll when there is nothing to run.
var ErrNoSessions = errors.New("no sessions configured")

// SessionRunner runs one session. *session.Runner satisfies it.
type SessionRunner interface {
	Run(ctx context.Context, cfg types.SessionConfig, sink session.Sink) types.SessionOutcome
}

// Sink is the shared collection every session contributes to. It is closed
// once all sessions have joined. *aggregate.Aggregator satisfies it.
type Sink interface {
	session.Sink
	Close()
}

// Orchestrator runs every configured session concurrently.
type Orchestrator struct {
	runner      SessionRunner
	sink        Sink
	concurrency int
	metrics     *metrics.Metrics
	logger      *logging.Logger
	onOutcome   func(types.SessionOutcome)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency caps how many sessions run at once. Zero or negative means
// no cap. Sessions beyond the cap wait; none are skipped.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		o.concurrency = n
	}
}

// WithMetrics records rejected sessions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithOutcomeHandler registers fn to be called as each session finishes.
// Calls are serialized.
func WithOutcomeHandler(fn func(types.SessionOutcome)) Option {
	return func(o *Orchestrator) {
		o.onOutcome = fn
	}
}

// New creates an orchestrator.
func New(runner SessionRunner, sink Sink, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		runner: runner,
		sink:   sink,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunAll runs one session per configuration and waits for all of them. It
// returns exactly one outcome per configuration, in configuration order. A
// failing session never affects its siblings. The sink is closed before
// RunAll returns.
func (o *Orchestrator) RunAll(ctx context.Context, configs []types.SessionConfig) ([]types.SessionOutcome, error) {
	if len(configs) == 0 {
		return nil, ErrNoSessions
	}
	defer o.sink.Close()

	if dups := types.DuplicateNames(configs); len(dups) > 0 {
		o.logger.Warnf("duplicate session names %v: results are attributed by name and may be ambiguous", dups)
	}

	start := time.Now()
	outcomes := make([]types.SessionOutcome, len(configs))
	var mu sync.Mutex

	var g errgroup.Group
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}

	o.logger.Infof("starting %d sessions (concurrency %s)", len(configs), concurrencyLabel(o.concurrency))

	for i, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			o.logger.Errorf("session %d not started: %v", i+1, err)
			o.metrics.SessionRejected(string(types.KindSessionSetup))
			outcome := types.FailedOutcome(cfg.Name, types.NewSessionError(types.KindSessionSetup, cfg.Name, err))
			outcome.Browser = cfg.Browser
			o.record(&mu, outcomes, i, outcome)
			continue
		}

		g.Go(func() error {
			outcome := o.runOne(ctx, cfg)
			o.record(&mu, outcomes, i, outcome)
			return nil // failures live in the outcome
		})
	}

	_ = g.Wait()

	succeeded := 0
	for _, outcome := range outcomes {
		if outcome.Succeeded {
			succeeded++
		}
	}
	o.logger.Infof("all sessions joined: %d/%d succeeded in %s", succeeded, len(outcomes), time.Since(start).Round(time.Millisecond))

	return outcomes, nil
}

// runOne converts a panic escaping the runner into a failed outcome.
func (o *Orchestrator) runOne(ctx context.Context, cfg types.SessionConfig) (outcome types.SessionOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			o.logger.Errorf("session %q panicked: %v\n%s", cfg.Name, rec, debug.Stack())
			outcome = types.FailedOutcome(cfg.Name, types.NewSessionError(types.KindUnexpected, cfg.Name, fmt.Errorf("panic: %v", rec)))
			outcome.Browser = cfg.Browser
		}
	}()
	return o.runner.Run(ctx, cfg, o.sink)
}

func (o *Orchestrator) record(mu *sync.Mutex, outcomes []types.SessionOutcome, i int, outcome types.SessionOutcome) {
	mu.Lock()
	defer mu.Unlock()
	outcomes[i] = outcome
	if o.onOutcome != nil {
		o.onOutcome(outcome)
	}
}

func concurrencyLabel(n int) string {
	if n <= 0 {
		return "unbounded"
	}
	return fmt.Sprintf("%d", n)
}
