package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"gamepin/internal/catalog"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the last run and catalog confidence breakdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *catalog.Store) error {
				out := cmd.OutOrStdout()

				run, err := store.LastRun(cmd.Context())
				if err != nil {
					return err
				}
				if run == nil {
					fmt.Fprintln(out, "No runs yet")
				} else {
					fmt.Fprintf(out, "Last run %s started %s\n", run.RunID,
						run.StartedAt.Local().Format(time.RFC1123))
					if run.FinishedAt == nil {
						fmt.Fprintln(out, "  did not finish; the next resolve resumes from persisted results")
					} else {
						fmt.Fprintf(out, "  %d resolved, %d need review, %d failed\n",
							run.Resolved, run.Review, run.Failed)
					}
				}

				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if len(stats) == 0 {
					return nil
				}
				keys := make([]string, 0, len(stats))
				for key := range stats {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				var rows [][]string
				for _, key := range keys {
					label := key
					if label == "" {
						label = "(never diagnosed)"
					}
					rows = append(rows, []string{label, strconv.Itoa(stats[key])})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"CONFIDENCE", "ROWS"},
					rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}
