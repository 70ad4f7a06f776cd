package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"gamepin/internal/providercache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the provider caches",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cached query and detail counts per provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var rows [][]string
			for _, name := range cfg.EnabledProviders() {
				cache := providercache.New(name, cfg.CacheFile(name), ctx.logger())
				queries, details := cache.Counts()
				rows = append(rows, []string{name, strconv.Itoa(queries), strconv.Itoa(details)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"PROVIDER", "QUERIES", "DETAILS"},
				rows, []columnAlignment{alignLeft, alignRight, alignRight}))
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop every provider's cached queries and details",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			for _, name := range cfg.EnabledProviders() {
				cache := providercache.New(name, cfg.CacheFile(name), ctx.logger())
				if err := cache.Clear(); err != nil {
					return fmt.Errorf("clear %s cache: %w", name, err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Provider caches cleared")
			return nil
		},
	}
}
