package main

import (
	"github.com/spf13/cobra"

	"github.com/entrhq/headlines/pkg/browser"
)

const version = "0.1.0"

// driverFactory opens the browser layer for a run and returns the function
// that shuts it down.
type driverFactory func(opts browser.Options) (browser.Driver, func() error, error)

func playwrightDriver(opts browser.Options) (browser.Driver, func() error, error) {
	manager := browser.NewManager(opts)
	if err := manager.Initialize(); err != nil {
		return nil, nil, err
	}
	return manager, manager.Shutdown, nil
}

type app struct {
	newDriver driverFactory
}

func newRootCmd() *cobra.Command {
	return newRootCmdWithApp(&app{newDriver: playwrightDriver})
}

func newRootCmdWithApp(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "headlines",
		Short: "Scrape, translate and analyze headlines across browsers",
		Long: "headlines opens the same page in several browser sessions in parallel, extracts the first " +
			"articles of each, translates their titles and reports the words that repeat across sessions.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newRunCmd(a),
		newAnalyzeCmd(),
		newSessionsCmd(),
		newVersionCmd(),
	)

	return rootCmd
}
