package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entrhq/headlines/pkg/analysis"
	"github.com/entrhq/headlines/pkg/report"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		mode      string
		topN      int
		threshold int
		titles    bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <run.json | artifacts dir>",
		Short: "Re-run the word frequency analysis on a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := report.LoadRun(args[0])
			if err != nil {
				return err
			}

			opts := analysis.Options{Mode: analysis.Mode(mode), TopN: topN, Threshold: threshold}
			if err := opts.Validate(); err != nil {
				return err
			}
			result := analysis.Analyze(run.Titles, opts)

			out := cmd.OutOrStdout()
			if titles {
				for i, t := range run.Titles {
					suffix := ""
					if t.Fallback {
						suffix = "  [untranslated]"
					}
					if _, err := fmt.Fprintf(out, "%3d. %s%s (%s)\n", i+1, t.Text, suffix, t.Session); err != nil {
						return err
					}
				}
			}
			_, err = fmt.Fprint(out, report.RenderFrequency(result))
			return err
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(analysis.ModeTop), "Analysis mode: top or threshold")
	cmd.Flags().IntVar(&topN, "top", analysis.DefaultTopN, "Number of words in top mode")
	cmd.Flags().IntVar(&threshold, "threshold", analysis.DefaultThreshold, "Minimum repetitions (exclusive) in threshold mode")
	cmd.Flags().BoolVar(&titles, "titles", false, "List the titles before the analysis")

	return cmd
}
