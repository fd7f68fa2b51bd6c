package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/ecclesia/internal/app"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <url>",
	Short: "Ingest a single event page",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	url := args[0]

	return withApp(func(ctx context.Context, application *app.App) error {
		ack := application.IngestService.IngestOne(ctx, url)
		if !ack.Accepted {
			return fmt.Errorf("ingestion of %s was not accepted", url)
		}

		// The work is fire-and-forget; the CLI stays alive until it ends
		if err := application.IngestService.Wait(ctx); err != nil {
			return err
		}

		task, ok := application.IngestService.Tasks().Get(ack.TaskID)
		if !ok {
			return fmt.Errorf("task %s not found", ack.TaskID)
		}
		fmt.Printf("task=%s status=%s\n", task.ID, task.Status())
		return task.Err()
	})
}
