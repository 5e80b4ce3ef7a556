package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/headlines/pkg/analysis"
	"github.com/entrhq/headlines/pkg/browser"
	"github.com/entrhq/headlines/pkg/extract"
	"github.com/entrhq/headlines/pkg/session"
	"github.com/entrhq/headlines/pkg/translate"
	"github.com/entrhq/headlines/pkg/types"
)

// DefaultURL is the page every default session visits.
const DefaultURL = "https://elpais.com/opinion/"

// RunConfig describes one scraping run.
type RunConfig struct {
	// Driver selects local browsers or the remote grid.
	Driver browser.Mode `yaml:"driver" json:"driver"`

	// Headless applies to the local driver only.
	Headless bool `yaml:"headless" json:"headless"`

	// Endpoint overrides the remote grid websocket URL.
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// Build names the run on the grid dashboard.
	Build string `yaml:"build" json:"build"`

	// URL is used by sessions that do not set their own.
	URL string `yaml:"url" json:"url"`

	TargetLanguage string `yaml:"target_language" json:"target_language"`
	SourceLanguage string `yaml:"source_language" json:"source_language"`
	MaxItems       int    `yaml:"max_items" json:"max_items"`

	// Concurrency caps sessions running at once; 0 runs all together.
	Concurrency int `yaml:"concurrency" json:"concurrency"`

	// Timeout bounds the whole run; 0 means no limit.
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`

	Selectors   extract.Selectors `yaml:"selectors" json:"selectors"`
	Consent     ConsentConfig     `yaml:"consent" json:"consent"`
	Translation TranslationConfig `yaml:"translation" json:"translation"`
	Images      ImageConfig       `yaml:"images" json:"images"`
	Analysis    analysis.Options  `yaml:"analysis" json:"analysis"`
	Artifacts   ArtifactConfig    `yaml:"artifacts" json:"artifacts"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`

	Sessions []types.SessionConfig `yaml:"sessions" json:"sessions"`
}

// ConsentConfig controls consent prompt handling. An empty selector
// disables it.
type ConsentConfig struct {
	Selector string        `yaml:"selector" json:"selector"`
	Wait     time.Duration `yaml:"wait" json:"wait"`
}

// TranslationConfig controls the LLM translator.
type TranslationConfig struct {
	Enabled        bool          `yaml:"enabled" json:"enabled"`
	Model          string        `yaml:"model" json:"model"`
	RequestsPerSec float64       `yaml:"requests_per_second" json:"requests_per_second"`
	Burst          int           `yaml:"burst" json:"burst"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	FallbackPrefix string        `yaml:"fallback_prefix" json:"fallback_prefix"`
}

// ImageConfig controls image downloads.
type ImageConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	Dir     string        `yaml:"dir" json:"dir"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// ArtifactConfig defines artifact generation configuration
type ArtifactConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// Individual format flags
	JSON     bool `yaml:"json" json:"json"`
	Markdown bool `yaml:"markdown" json:"markdown"`
	Metrics  bool `yaml:"metrics" json:"metrics"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls logging level: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`

	// File is the log file. Empty uses the per-run file under
	// ~/.headlines/logs, "-" writes to stderr.
	File string `yaml:"file" json:"file"`
}

// Level maps the verbosity name to a logger level name.
func (l LoggingConfig) Level() string {
	switch l.Verbosity {
	case "quiet":
		return "warn"
	case "verbose", "debug":
		return "debug"
	default:
		return "info"
	}
}

// DefaultSessions returns the five desktop sessions run when the
// configuration names none.
func DefaultSessions(url string) []types.SessionConfig {
	platform := func(name, browserName, osName, osVersion string) types.SessionConfig {
		return types.NewSessionConfig(name, browserName, url).
			WithPlatform("os", osName).
			WithPlatform("os_version", osVersion).
			WithPlatform("browser_version", "latest")
	}
	return []types.SessionConfig{
		platform("Chrome_Windows_Test", "chrome", "Windows", "10"),
		platform("Edge_Windows_Test", "edge", "Windows", "11"),
		platform("Safari_Mac_Test", "safari", "OS X", "Monterey"),
		platform("Firefox_Mac_Test", "firefox", "OS X", "Ventura"),
		platform("Firefox_Windows_Test", "firefox", "Windows", "10"),
	}
}

// DefaultConfig returns a configuration that reproduces the standard run.
func DefaultConfig() *RunConfig {
	runner := session.DefaultConfig()
	return &RunConfig{
		Driver:            browser.ModeRemote,
		Headless:          true,
		Build:             "headlines",
		URL:               DefaultURL,
		TargetLanguage:    runner.TargetLanguage,
		SourceLanguage:    "Spanish",
		MaxItems:          runner.MaxItems,
		Timeout:           10 * time.Minute,
		NavigationTimeout: browser.DefaultNavigationTimeout,
		Selectors:         extract.DefaultSelectors(),
		Consent: ConsentConfig{
			Selector: runner.ConsentSelector,
			Wait:     runner.ConsentWait,
		},
		Translation: TranslationConfig{
			Enabled:        true,
			RequestsPerSec: 2,
			Burst:          1,
			Timeout:        30 * time.Second,
			FallbackPrefix: runner.FallbackPrefix,
		},
		Images: ImageConfig{
			Dir:     "images",
			Timeout: 10 * time.Second,
		},
		Analysis: analysis.DefaultOptions(),
		Artifacts: ArtifactConfig{
			OutputDir: ".headlines/artifacts",
			JSON:      true,
			Markdown:  true,
			Metrics:   true,
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
		Sessions: DefaultSessions(DefaultURL),
	}
}

// Validate validates the configuration, filling unset values with defaults.
// Individual sessions are not checked here: an invalid session is reported
// as a failed outcome when the run starts.
func (c *RunConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = browser.ModeRemote
	}
	if c.Driver != browser.ModeLocal && c.Driver != browser.ModeRemote {
		return fmt.Errorf("invalid driver: %s (must be 'local' or 'remote')", c.Driver)
	}

	if c.MaxItems < 0 {
		return fmt.Errorf("max_items cannot be negative")
	}
	if c.MaxItems == 0 {
		c.MaxItems = extract.DefaultMaxItems
	}

	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency cannot be negative")
	}

	if c.Timeout < 0 || c.NavigationTimeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if c.Consent.Wait < 0 {
		return fmt.Errorf("consent wait cannot be negative")
	}

	if c.TargetLanguage == "" {
		c.TargetLanguage = session.DefaultConfig().TargetLanguage
	}

	if err := c.Selectors.Validate(); err != nil {
		return fmt.Errorf("invalid selectors: %w", err)
	}

	if c.Translation.RequestsPerSec < 0 || c.Translation.Burst < 0 {
		return fmt.Errorf("translation rate limit cannot be negative")
	}
	if c.Translation.Timeout < 0 {
		return fmt.Errorf("translation timeout cannot be negative")
	}
	if c.Translation.FallbackPrefix == "" {
		c.Translation.FallbackPrefix = translate.DefaultFallbackPrefix
	}

	if c.Images.Enabled && c.Images.Dir == "" {
		return fmt.Errorf("images.dir is required when images are enabled")
	}

	if err := c.Analysis.Validate(); err != nil {
		return err
	}

	if c.Artifacts.Enabled && c.Artifacts.OutputDir == "" {
		return fmt.Errorf("artifacts.output_dir is required when artifacts are enabled")
	}

	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}
	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[c.Logging.Verbosity] {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	if len(c.Sessions) == 0 {
		return fmt.Errorf("at least one session is required")
	}

	return nil
}

// ResolvedSessions returns the sessions with the run URL filled in where a
// session has none. The configuration is not modified.
func (c *RunConfig) ResolvedSessions() []types.SessionConfig {
	resolved := make([]types.SessionConfig, len(c.Sessions))
	for i, s := range c.Sessions {
		if s.URL == "" {
			s.URL = c.URL
		}
		resolved[i] = s
	}
	return resolved
}

// RunnerConfig returns the settings shared by every session runner.
func (c *RunConfig) RunnerConfig() session.Config {
	return session.Config{
		MaxItems:        c.MaxItems,
		TargetLanguage:  c.TargetLanguage,
		FallbackPrefix:  c.Translation.FallbackPrefix,
		ConsentSelector: c.Consent.Selector,
		ConsentWait:     c.Consent.Wait,
	}
}

// Parse decodes a YAML run configuration on top of the defaults.
// A file that lists sessions replaces the default list entirely.
func Parse(data []byte) (*RunConfig, error) {
	config := DefaultConfig()
	config.Sessions = nil
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if len(config.Sessions) == 0 {
		config.Sessions = DefaultSessions(config.URL)
	}
	return config, nil
}

// LoadFile loads a run configuration from a YAML file.
func LoadFile(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}
