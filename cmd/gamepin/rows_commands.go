package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gamepin/internal/catalog"
	"gamepin/internal/identity"
)

func newRowsCommand(ctx *commandContext) *cobra.Command {
	rowsCmd := &cobra.Command{
		Use:   "rows",
		Short: "Manage catalog rows",
	}

	rowsCmd.AddCommand(newRowsAddCommand(ctx))
	rowsCmd.AddCommand(newRowsListCommand(ctx))
	rowsCmd.AddCommand(newRowsPinCommand(ctx))
	rowsCmd.AddCommand(newRowsRemoveCommand(ctx))

	return rowsCmd
}

func newRowsAddCommand(ctx *commandContext) *cobra.Command {
	var year int
	var platform string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a catalog row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(args[0])
			if title == "" {
				return errors.New("title must not be empty")
			}
			return ctx.withStore(func(store *catalog.Store) error {
				row, err := store.AddRow(cmd.Context(), title, year, platform)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), row.RowID)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Release year hint")
	cmd.Flags().StringVar(&platform, "platform", "", "Platform hint")
	return cmd
}

func newRowsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *catalog.Store) error {
				rows, err := store.ListRows(cmd.Context())
				if err != nil {
					return err
				}
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Catalog is empty")
					return nil
				}
				var out [][]string
				for _, row := range rows {
					year := ""
					if row.YearHint != 0 {
						year = strconv.Itoa(row.YearHint)
					}
					out = append(out, []string{
						row.RowID, row.Title, year, row.PlatformHint, formatPins(row.Pins),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ROW", "TITLE", "YEAR", "PLATFORM", "PINS"},
					out, nil))
				return nil
			})
		},
	}
}

func newRowsPinCommand(ctx *commandContext) *cobra.Command {
	var notFound bool
	var clear bool

	cmd := &cobra.Command{
		Use:   "pin <row-id> <provider> [id]",
		Short: "Pin a row to a provider id, mark it not-found, or clear the pin",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rowID, provider := args[0], args[1]

			var pin string
			switch {
			case notFound && clear:
				return errors.New("--not-found and --clear are mutually exclusive")
			case notFound:
				pin = identity.NotFound
			case clear:
				pin = ""
			case len(args) == 3:
				pin = strings.TrimSpace(args[2])
				if pin == "" {
					return errors.New("pin id must not be empty (use --clear to remove a pin)")
				}
			default:
				return errors.New("provide a pin id, --not-found, or --clear")
			}

			return ctx.withStore(func(store *catalog.Store) error {
				row, err := store.GetRow(cmd.Context(), rowID)
				if err != nil {
					return err
				}
				if row == nil {
					return fmt.Errorf("row %q not found", rowID)
				}
				return store.SetPin(cmd.Context(), rowID, provider, pin)
			})
		},
	}

	cmd.Flags().BoolVar(&notFound, "not-found", false, "Record that the provider has no entry for this game")
	cmd.Flags().BoolVar(&clear, "clear", false, "Remove the pin")
	return cmd
}

func newRowsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <row-id>",
		Short: "Delete a catalog row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *catalog.Store) error {
				removed, err := store.DeleteRow(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("row %q not found", args[0])
				}
				return nil
			})
		},
	}
}

func formatPins(pins map[string]string) string {
	if len(pins) == 0 {
		return ""
	}
	providers := make([]string, 0, len(pins))
	for provider := range pins {
		providers = append(providers, provider)
	}
	sort.Strings(providers)

	parts := make([]string, 0, len(providers))
	for _, provider := range providers {
		parts = append(parts, provider+"="+pins[provider])
	}
	return strings.Join(parts, " ")
}
