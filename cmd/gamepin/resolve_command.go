package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"gamepin/internal/catalog"
	"gamepin/internal/runner"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Resolve every catalog row against the enabled providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(func(r *runner.Runner, _ *catalog.Store) error {
				summary, err := r.Resolve(cmd.Context())
				renderRunSummary(cmd.OutOrStdout(), summary)
				return err
			})
		},
	}
}

func renderRunSummary(out io.Writer, summary runner.Summary) {
	color := stdoutIsTerminal()

	if len(summary.Outcomes) > 0 {
		rows := make([][]string, 0, len(summary.Outcomes))
		for _, outcome := range summary.Outcomes {
			rows = append(rows, []string{
				outcome.RowID,
				outcome.Title,
				outcomeStatus(outcome, color),
				string(outcome.Confidence),
				strings.Join(outcome.Tags, ", "),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"ROW", "TITLE", "STATUS", "CONFIDENCE", "TAGS"},
			rows, nil))
	}

	fmt.Fprintf(out, "Run %s: %d resolved, %d need review, %d failed\n",
		summary.RunID, summary.Resolved, summary.Review, summary.Failed)

	for _, outcome := range summary.Outcomes {
		if !outcome.Failed() {
			continue
		}
		providers := make([]string, 0, len(outcome.Failures))
		for provider := range outcome.Failures {
			providers = append(providers, provider)
		}
		sort.Strings(providers)
		for _, provider := range providers {
			fmt.Fprintf(out, "  %s %s: %s\n", outcome.RowID, provider, outcome.Failures[provider])
		}
	}
}

func outcomeStatus(outcome runner.RowOutcome, color bool) string {
	switch {
	case outcome.Failed():
		return colorize("failed", ansiRed, color)
	case outcome.NeedsReview():
		return colorize("review", ansiYellow, color)
	default:
		return colorize("resolved", ansiGreen, color)
	}
}
