package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gamepin/internal/catalog"
	"gamepin/internal/repin"
	"gamepin/internal/runner"
)

func newRepinCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "repin",
		Short: "Re-search providers flagged as wrong and correct or clear their pins",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(func(r *runner.Runner, _ *catalog.Store) error {
				results, err := r.Repin(cmd.Context(), dryRun)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(results) == 0 {
					fmt.Fprintln(out, "No flagged rows")
					return nil
				}

				color := stdoutIsTerminal()
				var rows [][]string
				for _, result := range results {
					for _, action := range result.Actions {
						rows = append(rows, []string{
							result.RowID,
							action.Provider,
							actionLabel(action.Kind, color),
							action.NewID,
							action.Reason,
						})
					}
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ROW", "PROVIDER", "ACTION", "NEW ID", "REASON"},
					rows, nil))

				for _, result := range results {
					if result.Err != "" {
						fmt.Fprintf(out, "  %s: %s\n", result.RowID, result.Err)
					}
				}
				if dryRun {
					fmt.Fprintln(out, "Dry run: no pins were changed")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute actions without changing any pin")
	return cmd
}

func actionLabel(kind repin.Kind, color bool) string {
	switch kind {
	case repin.KindRepin:
		return colorize(string(kind), ansiGreen, color)
	case repin.KindUnpin:
		return colorize(string(kind), ansiYellow, color)
	default:
		return string(kind)
	}
}
