package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/entrhq/headlines/pkg/config"
	"github.com/entrhq/headlines/pkg/report"
	"github.com/entrhq/headlines/pkg/types"
)

// sessionFlags are shared by every command that resolves the session list.
type sessionFlags struct {
	configFile string
	url        string
	only       []string
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "Path to the run configuration file (YAML)")
	cmd.Flags().StringVar(&f.url, "url", "", "Page to scrape (overrides the configured url)")
	cmd.Flags().StringSliceVar(&f.only, "only", nil, "Run only sessions whose name matches one of these glob patterns")
}

// load reads the run configuration and applies the flags that change it.
func (f *sessionFlags) load(cmd *cobra.Command) (*config.RunConfig, error) {
	cfg := config.DefaultConfig()
	if f.configFile != "" {
		var err error
		if cfg, err = config.LoadFile(f.configFile); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("url") {
		cfg.URL = f.url
		for i := range cfg.Sessions {
			cfg.Sessions[i].URL = ""
		}
	}
	return cfg, nil
}

// sessions resolves and filters the configured session list.
func (f *sessionFlags) sessions(cfg *config.RunConfig) ([]types.SessionConfig, error) {
	filter, err := config.NewSessionFilter(f.only)
	if err != nil {
		return nil, err
	}
	return filter.Apply(cfg.ResolvedSessions()), nil
}

func newSessionsCmd() *cobra.Command {
	var flags sessionFlags

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Print the sessions a run would start",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			sessions, err := flags.sessions(cfg)
			if err != nil {
				return err
			}
			return printSessions(cmd.OutOrStdout(), cfg, sessions)
		},
	}
	flags.register(cmd)

	return cmd
}

func printSessions(w io.Writer, cfg *config.RunConfig, sessions []types.SessionConfig) error {
	if _, err := fmt.Fprintf(w, "driver: %s\n\n", cfg.Driver); err != nil {
		return err
	}
	_, err := io.WriteString(w, report.RenderSessions(sessions))
	return err
}
