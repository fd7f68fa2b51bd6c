package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/ternarybob/ecclesia/internal/app"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored events, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var listLimit int

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Maximum number of events")
}

func runList(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, application *app.App) error {
		events, err := application.EventStorage.List(ctx, listLimit)
		if err != nil {
			return err
		}
		total, err := application.EventStorage.Count(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tCATEGORY\tTITLE\tSOURCE")
		for _, e := range events {
			date := "-"
			if e.Date != nil {
				date = e.Date.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", date, e.Category, e.Title, e.SourceName)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Printf("%d of %d events\n", len(events), total)
		return nil
	})
}
