// Package session runs one browser session end to end: open, navigate,
// dismiss the consent prompt, extract, translate, contribute to the shared
// sink, report status and release.
package session

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/entrhq/headlines/pkg/browser"
	"github.com/entrhq/headlines/pkg/extract"
	"github.com/entrhq/headlines/pkg/images"
	"github.com/entrhq/headlines/pkg/logging"
	"github.com/entrhq/headlines/pkg/metrics"
	"github.com/entrhq/headlines/pkg/translate"
	"github.com/entrhq/headlines/pkg/types"
)

// Sink receives translated titles. *aggregate.Aggregator satisfies it.
type Sink interface {
	Insert(title types.TranslatedTitle) error
}

// ImageStore persists a downloaded image. *images.Store satisfies it.
type ImageStore interface {
	Save(session string, index int, data []byte, contentType, sourceURL string) (string, error)
}

// Config holds the per-run settings shared by every session.
type Config struct {
	// MaxItems caps extracted items per session.
	MaxItems int

	// TargetLanguage is the language titles are translated into.
	TargetLanguage string

	// FallbackPrefix marks titles whose translation failed.
	FallbackPrefix string

	// ConsentSelector locates the consent prompt's accept button. Empty
	// disables consent handling.
	ConsentSelector string

	// ConsentWait bounds waiting for the consent prompt and for the page to
	// settle after dismissing it.
	ConsentWait time.Duration

	// StatusTimeout bounds the final status report.
	StatusTimeout time.Duration
}

// DefaultConfig returns the settings the runner uses when none are given.
func DefaultConfig() Config {
	return Config{
		MaxItems:        extract.DefaultMaxItems,
		TargetLanguage:  "English",
		FallbackPrefix:  translate.DefaultFallbackPrefix,
		ConsentSelector: "#didomi-notice-agree-button",
		ConsentWait:     5 * time.Second,
		StatusTimeout:   10 * time.Second,
	}
}

// Runner executes sessions. One Runner serves every session of a run; all
// per-session state lives in Run.
type Runner struct {
	driver      browser.Driver
	extractor   extract.Extractor
	translators translate.Factory
	fetcher     images.Fetcher
	store       ImageStore
	metrics     *metrics.Metrics
	logger      *logging.Logger
	config      Config
}

// Option configures a Runner.
type Option func(*Runner)

// WithConfig sets the run settings. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(r *Runner) {
		def := r.config
		if cfg.MaxItems <= 0 {
			cfg.MaxItems = def.MaxItems
		}
		if cfg.TargetLanguage == "" {
			cfg.TargetLanguage = def.TargetLanguage
		}
		if cfg.FallbackPrefix == "" {
			cfg.FallbackPrefix = def.FallbackPrefix
		}
		if cfg.ConsentWait <= 0 {
			cfg.ConsentWait = def.ConsentWait
		}
		if cfg.StatusTimeout <= 0 {
			cfg.StatusTimeout = def.StatusTimeout
		}
		r.config = cfg
	}
}

// WithImages enables downloading article images.
func WithImages(fetcher images.Fetcher, store ImageStore) Option {
	return func(r *Runner) {
		r.fetcher = fetcher
		r.store = store
	}
}

// WithMetrics records session metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithLogger sets the logger. Sessions log under "<component>/<name>".
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a runner. A nil translator factory leaves titles
// untranslated.
func NewRunner(driver browser.Driver, extractor extract.Extractor, translators translate.Factory, opts ...Option) *Runner {
	if translators == nil {
		translators = translate.Static(translate.Identity)
	}
	r := &Runner{
		driver:      driver,
		extractor:   extractor,
		translators: translators,
		logger:      logging.Discard(),
		config:      DefaultConfig(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the effective settings.
func (r *Runner) Config() Config {
	return r.config
}

// Run executes one session and always returns its outcome. Failures are
// reported in the outcome, never as a panic.
func (r *Runner) Run(ctx context.Context, cfg types.SessionConfig, sink Sink) (outcome types.SessionOutcome) {
	log := r.logger.With(cfg.Name)
	outcome = types.SessionOutcome{
		Name:      cfg.Name,
		Browser:   cfg.Browser,
		StartedAt: time.Now(),
	}

	r.metrics.SessionStarted()
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("panic: %v\n%s", rec, debug.Stack())
			outcome.Succeeded = false
			outcome.Err = types.NewSessionError(types.KindUnexpected, cfg.Name, fmt.Errorf("panic: %v", rec))
		}
		outcome.Duration = time.Since(outcome.StartedAt)
		r.metrics.SessionFinished(outcome.Succeeded, string(outcome.Kind()), outcome.Duration)

		if outcome.Succeeded {
			log.Infof("finished: %d items, %d fallbacks in %s", outcome.ItemCount, outcome.Fallbacks, outcome.Duration.Round(time.Millisecond))
		} else {
			log.Errorf("failed after %s: %v", outcome.Duration.Round(time.Millisecond), outcome.Err)
		}
	}()

	if err := ctx.Err(); err != nil {
		outcome.Err = types.NewSessionError(types.KindCanceled, cfg.Name, err)
		return outcome
	}

	log.Infof("opening %s session", orDefault(cfg.Browser, "default"))
	page, err := r.driver.Open(ctx, cfg)
	if err != nil {
		outcome.Err = r.sessionError(ctx, types.KindSessionSetup, cfg.Name, err)
		return outcome
	}

	defer func() {
		if err := page.Close(); err != nil {
			log.Warnf("release failed: %v", err)
			outcome.ReleaseErr = types.NewSessionError(types.KindResourceRelease, cfg.Name, err)
		}
	}()
	defer r.reportStatus(ctx, log, page, &outcome)

	items, serr := r.scrape(ctx, log, page, cfg)
	if serr != nil {
		outcome.Err = serr
		return outcome
	}

	results, serr := r.translate(ctx, log, cfg, items, sink)
	outcome.Fallbacks = countFallbacks(results)
	if serr != nil {
		outcome.Err = serr
		outcome.Items = results
		return outcome
	}

	r.saveImages(ctx, log, cfg, results)

	outcome.Items = results
	outcome.ItemCount = len(results)
	outcome.Succeeded = true
	return outcome
}

// scrape covers navigation, consent and extraction.
func (r *Runner) scrape(ctx context.Context, log *logging.Logger, page browser.Page, cfg types.SessionConfig) ([]types.RawItem, *types.SessionError) {
	if err := ctx.Err(); err != nil {
		return nil, types.NewSessionError(types.KindCanceled, cfg.Name, err)
	}
	log.Infof("navigating to %s", cfg.URL)
	if err := page.Navigate(ctx, cfg.URL); err != nil {
		return nil, r.sessionError(ctx, types.KindNavigation, cfg.Name, err)
	}

	if r.config.ConsentSelector != "" {
		if err := ctx.Err(); err != nil {
			return nil, types.NewSessionError(types.KindCanceled, cfg.Name, err)
		}
		dismissed, err := page.DismissConsent(ctx, r.config.ConsentSelector, r.config.ConsentWait)
		switch {
		case err != nil:
			// A prompt that cannot be dismissed may still leave the items readable.
			log.Warnf("consent prompt: %v", err)
		case dismissed:
			log.Infof("consent prompt dismissed")
		default:
			log.Debugf("no consent prompt")
		}
		r.metrics.Consent(dismissed)
	}

	if err := ctx.Err(); err != nil {
		return nil, types.NewSessionError(types.KindCanceled, cfg.Name, err)
	}
	items, err := r.extractor.Extract(ctx, page, r.config.MaxItems)
	if err != nil {
		return nil, r.sessionError(ctx, types.KindExtraction, cfg.Name, err)
	}
	if len(items) == 0 {
		log.Warnf("no items found on %s", cfg.URL)
	} else {
		log.Infof("extracted %d items", len(items))
	}
	r.metrics.ItemsExtracted(cfg.Name, len(items))
	return items, nil
}

// translate translates each title on its own, replacing failures with the
// fallback marker, and hands every result to the sink.
func (r *Runner) translate(ctx context.Context, log *logging.Logger, cfg types.SessionConfig, items []types.RawItem, sink Sink) ([]types.ItemResult, *types.SessionError) {
	if err := ctx.Err(); err != nil {
		return nil, types.NewSessionError(types.KindCanceled, cfg.Name, err)
	}

	translator := r.translators.NewTranslator(cfg.Name)
	results := make([]types.ItemResult, 0, len(items))

	for i, item := range items {
		title := types.TranslatedTitle{
			Session:  cfg.Name,
			Index:    i,
			Original: item.Title,
		}

		text, err := translator.Translate(ctx, item.Title, r.config.TargetLanguage)
		if err != nil {
			log.Warnf("%s: item %d: %v", types.KindTranslation, i+1, err)
			title.Text = translate.Fallback(r.config.FallbackPrefix, item.Title)
			title.Fallback = true
		} else {
			title.Text = text
		}
		r.metrics.Translation(title.Fallback)

		if err := sink.Insert(title); err != nil {
			return results, types.NewSessionError(types.KindUnexpected, cfg.Name, fmt.Errorf("sink rejected item %d: %w", i+1, err))
		}

		log.Debugf("item %d: %q -> %q", i+1, title.Original, title.Text)
		results = append(results, types.ItemResult{
			Index:      i,
			Item:       item,
			Translated: title,
		})
	}
	return results, nil
}

// saveImages downloads item images. Failures are recorded per item and
// never fail the session.
func (r *Runner) saveImages(ctx context.Context, log *logging.Logger, cfg types.SessionConfig, results []types.ItemResult) {
	if r.fetcher == nil || r.store == nil {
		return
	}
	for i := range results {
		res := &results[i]
		if !res.Item.HasImage() {
			continue
		}
		if err := ctx.Err(); err != nil {
			res.ImageError = err.Error()
			continue
		}

		data, contentType, err := r.fetcher.Fetch(ctx, res.Item.ImageURL)
		if err == nil {
			res.ImagePath, err = r.store.Save(cfg.Name, res.Index, data, contentType, res.Item.ImageURL)
		}
		if err != nil {
			log.Warnf("image for item %d: %v", res.Index+1, err)
			res.ImageError = err.Error()
			r.metrics.Image(false)
			continue
		}
		log.Debugf("image for item %d saved to %s", res.Index+1, res.ImagePath)
		r.metrics.Image(true)
	}
}

// reportStatus tells the remote grid how the session went. It runs even when
// the run context is canceled so the grid does not keep the session open.
func (r *Runner) reportStatus(ctx context.Context, log *logging.Logger, page browser.Page, outcome *types.SessionOutcome) {
	status, reason := browser.StatusPassed, fmt.Sprintf("extracted %d items", outcome.ItemCount)
	if !outcome.Succeeded {
		status, reason = browser.StatusFailed, "session aborted"
		if outcome.Err != nil {
			reason = outcome.Err.Error()
		}
	}

	statusCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.config.StatusTimeout)
	defer cancel()
	if err := page.ReportStatus(statusCtx, status, reason); err != nil {
		log.Warnf("status report: %v", err)
	}
}

// sessionError classifies err, preferring cancellation when the run context
// is done.
func (r *Runner) sessionError(ctx context.Context, kind types.FailureKind, name string, err error) *types.SessionError {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return types.NewSessionError(types.KindCanceled, name, err)
	}
	return types.NewSessionError(kind, name, err)
}

func countFallbacks(results []types.ItemResult) int {
	n := 0
	for _, res := range results {
		if res.Translated.Fallback {
			n++
		}
	}
	return n
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
