package main

import (
	"github.com/spf13/cobra"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <url>",
	Short: "Print today's menu for a restaurant page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer p.Close()

		res, err := p.Summarize(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Show what the analyzer extracts from a page, without calling the model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer p.Close()

		report, err := p.Inspect(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), report)
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare <url>",
	Short: "Compare static fetching with JavaScript rendering",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer p.Close()

		cmp, err := p.Compare(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), cmp)
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd, scrapeCmd, compareCmd)
}
