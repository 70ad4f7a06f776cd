package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gamepin/internal/catalog"
	"gamepin/internal/runner"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "List rows whose last diagnosis needs human attention",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *catalog.Store) error {
				rowIDs, err := store.ReviewRowIDs(cmd.Context())
				if err != nil {
					return err
				}
				if len(rowIDs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing to review")
					return nil
				}

				var rows [][]string
				for _, rowID := range rowIDs {
					row, err := store.GetRow(cmd.Context(), rowID)
					if err != nil {
						return err
					}
					report, err := store.Report(cmd.Context(), rowID)
					if err != nil {
						return err
					}
					if row == nil || report == nil {
						continue
					}
					identities, err := store.Identities(cmd.Context(), rowID)
					if err != nil {
						return err
					}
					rows = append(rows, []string{
						row.RowID,
						row.Title,
						string(report.Confidence),
						runner.SuggestTitle(identities, *report),
						strings.Join(report.Tags, ", "),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ROW", "TITLE", "CONFIDENCE", "SUGGESTED", "TAGS"},
					rows, nil))
				return nil
			})
		},
	}
}
