package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcbilson/dailymenu/menu"
)

var flagFile string

var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Summarize every URL in a list so later requests hit the cache",
	Long: `warm reads restaurant URLs from the first column of a CSV file (a plain
list of URLs, one per line, also works) and summarizes each one.
Rows whose first column is not an http(s) URL, such as a header, are skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if flagFile == "" {
			return errors.New("a URL list is required (--file)")
		}
		f, err := os.Open(flagFile)
		if err != nil {
			return err
		}
		defer f.Close()

		urls, err := parseURLs(f)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", flagFile, err)
		}

		p, err := openPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer p.Close()

		warm(cmd.Context(), p, urls, cmd.OutOrStdout())
		return nil
	},
}

func init() {
	warmCmd.Flags().StringVar(&flagFile, "file", "", "CSV file with one restaurant URL per row")
	rootCmd.AddCommand(warmCmd)
}

func parseURLs(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var urls []string
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		u := strings.TrimSpace(row[0])
		lower := strings.ToLower(u)
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			continue
		}
		urls = append(urls, u)
	}
	return urls, nil
}

type summarizer interface {
	Summarize(ctx context.Context, url string) (*menu.Result, error)
}

type warmCounts struct {
	computed, cached, failed int
}

func warm(ctx context.Context, s summarizer, urls []string, out io.Writer) warmCounts {
	var counts warmCounts
	total := len(urls)
	fmt.Fprintf(out, "Warming %d URLs...\n\n", total)

	for i, u := range urls {
		fmt.Fprintf(out, "[%d/%d] %s\n", i+1, total, u)
		res, err := s.Summarize(ctx, u)
		switch {
		case err != nil:
			fmt.Fprintf(out, "  ✗ Failed: %v\n", err)
			counts.failed++
		case res.Cached:
			fmt.Fprintf(out, "  ✓ Already cached\n")
			counts.cached++
		default:
			fmt.Fprintf(out, "  ✓ %s: %d items\n", res.Data.RestaurantName, len(res.Data.MenuItems))
			counts.computed++
		}
	}

	fmt.Fprintf(out, "\nWarm summary:\n")
	fmt.Fprintf(out, "  Total URLs: %d\n", total)
	fmt.Fprintf(out, "  Computed: %d\n", counts.computed)
	fmt.Fprintf(out, "  Already cached: %d\n", counts.cached)
	fmt.Fprintf(out, "  Failed: %d\n", counts.failed)
	return counts
}
