package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/ecclesia/internal/app"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Extract an event from a page and print it without storing",
	Args:  cobra.ExactArgs(1),
	RunE:  runScrape,
}

func runScrape(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, application *app.App) error {
		result, err := application.IngestService.ScrapeOnDemand(ctx, args[0])
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	})
}
