package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagBefore string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the menu cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := openPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer p.Close()

		stats, err := p.Stats(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), stats)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached menu",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := openPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer p.Close()

		if err := p.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove cached menus older than a date (default today)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := openPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer p.Close()

		n, err := p.Purge(cmd.Context(), flagBefore)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Purged %d entries\n", n)
		return nil
	},
}

func init() {
	cachePurgeCmd.Flags().StringVar(&flagBefore, "before", "", "Purge entries dated before this YYYY-MM-DD day")
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd, cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
