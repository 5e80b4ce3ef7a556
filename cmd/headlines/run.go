package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/entrhq/headlines/pkg/aggregate"
	"github.com/entrhq/headlines/pkg/analysis"
	"github.com/entrhq/headlines/pkg/browser"
	"github.com/entrhq/headlines/pkg/config"
	"github.com/entrhq/headlines/pkg/extract"
	"github.com/entrhq/headlines/pkg/images"
	"github.com/entrhq/headlines/pkg/llm/openai"
	"github.com/entrhq/headlines/pkg/logging"
	"github.com/entrhq/headlines/pkg/metrics"
	"github.com/entrhq/headlines/pkg/orchestrator"
	"github.com/entrhq/headlines/pkg/report"
	"github.com/entrhq/headlines/pkg/session"
	"github.com/entrhq/headlines/pkg/translate"
	"github.com/entrhq/headlines/pkg/types"
)

// errSessionsFailed is returned after the report when any session failed.
var errSessionsFailed = errors.New("sessions failed")

type runFlags struct {
	sessionFlags

	credentials string
	driver      string
	endpoint    string
	username    string
	accessKey   string
	headless    bool
	concurrency int
	maxItems    int
	timeout     time.Duration

	noTranslate bool
	model       string
	baseURL     string
	apiKey      string

	images    bool
	imagesDir string

	outputDir string
	details   bool
	logFile   string
	verbosity string
}

func newRunCmd(a *app) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every configured session and report the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return a.run(cmd.Context(), cmd, cfg, &flags)
		},
	}

	flags.register(cmd)
	f := cmd.Flags()
	f.StringVar(&flags.credentials, "credentials", "", "Path to the credential store (default ~/.headlines/config.json)")
	f.StringVar(&flags.driver, "driver", "", "Browser driver: local or remote")
	f.StringVar(&flags.endpoint, "endpoint", "", "Remote grid websocket endpoint")
	f.StringVar(&flags.username, "username", "", "Remote grid username (default $BROWSERSTACK_USERNAME)")
	f.StringVar(&flags.accessKey, "access-key", "", "Remote grid access key (default $BROWSERSTACK_ACCESS_KEY)")
	f.BoolVar(&flags.headless, "headless", true, "Run local browsers without a window")
	f.IntVar(&flags.concurrency, "concurrency", 0, "Maximum sessions running at once (0 = all)")
	f.IntVar(&flags.maxItems, "max-items", 0, "Articles to extract per session")
	f.DurationVar(&flags.timeout, "timeout", 0, "Abort the run after this long")
	f.BoolVar(&flags.noTranslate, "no-translate", false, "Keep titles in the source language")
	f.StringVar(&flags.model, "model", "", "Translation model")
	f.StringVar(&flags.baseURL, "base-url", "", "OpenAI-compatible API base URL")
	f.StringVar(&flags.apiKey, "api-key", "", "API key (default $OPENAI_API_KEY)")
	f.BoolVar(&flags.images, "images", false, "Download article images")
	f.StringVar(&flags.imagesDir, "images-dir", "", "Directory for downloaded images")
	f.StringVarP(&flags.outputDir, "output-dir", "o", "", "Write run.json, summary.md and metrics.prom to this directory")
	f.BoolVar(&flags.details, "details", true, "Print every extracted article")
	f.StringVar(&flags.logFile, "log-file", "", "Log file; '-' for stderr (default ~/.headlines/logs/<run-id>-headlines.log)")
	f.StringVar(&flags.verbosity, "verbosity", "", "Logging verbosity: quiet, normal, verbose or debug")

	return cmd
}

// apply copies explicitly set flags over the file configuration.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.RunConfig) {
	changed := cmd.Flags().Changed

	if changed("driver") {
		cfg.Driver = browser.Mode(f.driver)
	}
	if changed("endpoint") {
		cfg.Endpoint = f.endpoint
	}
	if changed("headless") {
		cfg.Headless = f.headless
	}
	if changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if changed("max-items") {
		cfg.MaxItems = f.maxItems
	}
	if changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if f.noTranslate {
		cfg.Translation.Enabled = false
	}
	if changed("model") {
		cfg.Translation.Model = f.model
	}
	if changed("images") {
		cfg.Images.Enabled = f.images
	}
	if changed("images-dir") {
		cfg.Images.Dir = f.imagesDir
	}
	if changed("output-dir") {
		cfg.Artifacts.Enabled = f.outputDir != ""
		cfg.Artifacts.OutputDir = f.outputDir
	}
	if changed("log-file") {
		cfg.Logging.File = f.logFile
	}
	if changed("verbosity") {
		cfg.Logging.Verbosity = f.verbosity
	}
}

func (a *app) run(ctx context.Context, cmd *cobra.Command, cfg *config.RunConfig, flags *runFlags) error {
	logger := newLogger(cfg.Logging, cmd.ErrOrStderr())
	defer logger.Close()

	if err := config.Initialize(flags.credentials); err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}

	sessions, err := flags.sessions(cfg)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		return orchestrator.ErrNoSessions
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	translators, err := buildTranslators(cfg, flags)
	if err != nil {
		return err
	}

	creds, endpoint := config.ResolveGrid(flags.username, flags.accessKey, cfg.Endpoint)
	driver, shutdown, err := a.newDriver(browser.Options{
		Mode:              cfg.Driver,
		Headless:          cfg.Headless,
		Endpoint:          endpoint,
		Credentials:       creds,
		Build:             cfg.Build,
		NavigationTimeout: cfg.NavigationTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to start browser driver: %w", err)
	}
	defer func() {
		if err := shutdown(); err != nil {
			logger.Warnf("browser shutdown: %v", err)
		}
	}()

	m := metrics.New()
	runnerOpts := []session.Option{
		session.WithConfig(cfg.RunnerConfig()),
		session.WithMetrics(m),
		session.WithLogger(logger),
	}
	if cfg.Images.Enabled {
		runnerOpts = append(runnerOpts, session.WithImages(images.NewHTTPFetcher(cfg.Images.Timeout), images.NewStore(cfg.Images.Dir)))
	}
	runner := session.NewRunner(driver, extract.NewHTMLExtractor(cfg.Selectors), translators, runnerOpts...)

	progress := cmd.ErrOrStderr()
	sink := aggregate.New()
	orch := orchestrator.New(runner, sink,
		orchestrator.WithConcurrency(cfg.Concurrency),
		orchestrator.WithMetrics(m),
		orchestrator.WithLogger(logger),
		orchestrator.WithOutcomeHandler(func(o types.SessionOutcome) {
			printProgress(progress, o)
		}),
	)

	started := time.Now()
	logger.Infof("run %s: %d sessions, driver %s", logging.GetRunID(), len(sessions), cfg.Driver)

	outcomes, err := orch.RunAll(ctx, sessions)
	if err != nil {
		return err
	}

	titles, err := sink.Snapshot()
	if err != nil {
		return err
	}
	sortTitles(titles, sessions)

	finished := time.Now()
	run := &report.Run{
		RunID:      logging.GetRunID(),
		TargetURL:  cfg.URL,
		Mode:       string(cfg.Driver),
		StartedAt:  started,
		FinishedAt: finished,
		Duration:   finished.Sub(started),
		Outcomes:   outcomes,
		Titles:     titles,
		Analysis:   analysis.Analyze(titles, cfg.Analysis),
	}

	if err := report.Render(cmd.OutOrStdout(), run, report.ConsoleOptions{Details: flags.details, Titles: true}); err != nil {
		return err
	}

	if cfg.Artifacts.Enabled {
		if err := writeArtifacts(cfg.Artifacts, run, m); err != nil {
			return err
		}
		logger.Infof("artifacts written to %s", cfg.Artifacts.OutputDir)
	}

	if failed := run.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d %w", failed, len(outcomes), errSessionsFailed)
	}
	return nil
}

func newLogger(cfg config.LoggingConfig, stderr io.Writer) *logging.Logger {
	var logger *logging.Logger
	// A failed file open yields a stderr logger; the run goes on.
	switch cfg.File {
	case "-":
		logger = logging.NewWriterLogger("headlines", stderr)
	case "":
		logger, _ = logging.NewLogger("headlines")
	default:
		logger, _ = logging.NewFileLogger("headlines", cfg.File)
	}
	logger.SetLevel(logging.ParseLevel(cfg.Level()))
	return logger
}

func buildTranslators(cfg *config.RunConfig, flags *runFlags) (translate.Factory, error) {
	if !cfg.Translation.Enabled {
		return translate.Static(translate.Identity), nil
	}

	provider, err := config.BuildProvider(cfg.Translation.Model, flags.baseURL, flags.apiKey, openai.DefaultModel)
	if err != nil {
		return nil, err
	}

	return &translate.LLMFactory{
		Provider:       provider,
		Model:          provider.GetModel(),
		RequestsPerSec: cfg.Translation.RequestsPerSec,
		Burst:          cfg.Translation.Burst,
		Timeout:        cfg.Translation.Timeout,
		SourceLanguage: cfg.SourceLanguage,
	}, nil
}

func writeArtifacts(cfg config.ArtifactConfig, run *report.Run, m *metrics.Metrics) error {
	writer := report.NewArtifactWriter(cfg.OutputDir)
	if cfg.JSON && cfg.Markdown && cfg.Metrics {
		return writer.WriteAll(run, m)
	}

	if err := writer.Prepare(); err != nil {
		return err
	}
	if cfg.JSON {
		if err := writer.WriteRunJSON(run); err != nil {
			return err
		}
	}
	if cfg.Markdown {
		if err := writer.WriteSummaryMarkdown(run); err != nil {
			return err
		}
	}
	if cfg.Metrics {
		if err := writer.WriteMetrics(m); err != nil {
			return err
		}
	}
	return nil
}

func printProgress(w io.Writer, o types.SessionOutcome) {
	if o.Succeeded {
		fmt.Fprintf(w, "✓ %s: %d items\n", o.Name, o.ItemCount)
		return
	}
	fmt.Fprintf(w, "✗ %s: %s\n", o.Name, o.Kind())
}

// sortTitles orders titles by session position in the run, then by item
// index, so reports do not depend on which session finished first.
func sortTitles(titles []types.TranslatedTitle, sessions []types.SessionConfig) {
	position := make(map[string]int, len(sessions))
	for i, s := range sessions {
		if _, seen := position[s.Name]; !seen {
			position[s.Name] = i
		}
	}
	sort.SliceStable(titles, func(i, j int) bool {
		pi, pj := position[titles[i].Session], position[titles[j].Session]
		if pi != pj {
			return pi < pj
		}
		return titles[i].Index < titles[j].Index
	})
}
