package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/ecclesia/internal/app"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sweep over every registered source",
	Long:  `Discovers, extracts and stores events from every source in order and waits for the sweep to finish.`,
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

var syncMonthsAhead int

func init() {
	syncCmd.Flags().IntVar(&syncMonthsAhead, "months-ahead", 0, "Calendar months fetched from feed sources (0 uses config)")
}

func runSync(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, application *app.App) error {
		stats, err := application.IngestService.Sweep(ctx, syncMonthsAhead)

		fmt.Printf("sources=%d discovered=%d created=%d duplicates=%d skipped=%d failed=%d\n",
			stats.Sources, stats.Discovered, stats.Created, stats.Duplicates, stats.Skipped, stats.Failed)
		return err
	})
}
