// menuctl drives the menu pipeline from the command line, with the same
// DAILYMENU_* configuration as the server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcbilson/dailymenu/config"
	"github.com/rcbilson/dailymenu/pipeline"
)

var flagMock bool

var rootCmd = &cobra.Command{
	Use:   "menuctl",
	Short: "Fetch, inspect and cache restaurant daily menus",
	Long: `menuctl runs the daily menu pipeline without the HTTP server.

Examples:
  menuctl summarize https://www.restaurace-hradcany.cz
  menuctl scrape https://www.restauracevlasta.cz
  menuctl compare https://spa-restaurace.cz
  menuctl cache purge --before 2025-10-01
  menuctl warm --file restaurants.csv`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagMock, "mock", false, "Use canned pages and extraction instead of the network")
}

// openPipeline builds the pipeline from the environment, honoring --mock.
func openPipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagMock {
		cfg.UseMock = true
	}
	return pipeline.FromConfig(ctx, cfg)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
