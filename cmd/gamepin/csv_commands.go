package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gamepin/internal/catalog"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import catalog rows from CSV, assigning row ids and preserving pins",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer file.Close()

			return ctx.withStore(func(store *catalog.Store) error {
				summary, err := store.ImportCSV(cmd.Context(), file)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported: %d created, %d updated, %d pins set\n",
					summary.Created, summary.Updated, summary.Pinned)
				return nil
			})
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog with pins, confidence, and tags as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *catalog.Store) error {
				if output == "" {
					return store.ExportCSV(cmd.Context(), cmd.OutOrStdout())
				}
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create csv: %w", err)
				}
				defer file.Close()
				if err := store.ExportCSV(cmd.Context(), file); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}
