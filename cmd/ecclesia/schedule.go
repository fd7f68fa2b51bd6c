package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/ternarybob/ecclesia/internal/app"
	"github.com/ternarybob/ecclesia/internal/common"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run sweeps on the configured cron schedule until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runSchedule,
}

var scheduleRunNow bool

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleRunNow, "run-now", false, "Run a sweep immediately before waiting for the first tick")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, application *app.App) error {
		if config.Metrics.Enabled {
			srv := &http.Server{
				Addr:              config.Metrics.Address,
				Handler:           metricsMux(application),
				ReadHeaderTimeout: 5 * time.Second,
			}
			common.SafeGo(logger, "metrics-server", func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error().Err(err).Str("address", srv.Addr).Msg("Metrics server failed")
				}
			}, nil)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
			logger.Info().Str("address", srv.Addr).Msg("Metrics endpoint listening on /metrics")
		}

		if err := application.SchedulerService.Start(config.Scheduler.Schedule); err != nil {
			return err
		}

		if scheduleRunNow {
			common.SafeGo(logger, "initial-sweep", func() {
				application.SchedulerService.TriggerNow()
			}, nil)
		}

		logger.Info().Str("schedule", config.Scheduler.Schedule).Msg("Scheduler running - Press Ctrl+C to stop")
		<-ctx.Done()
		logger.Info().Msg("Interrupt signal received")
		return nil
	})
}

func metricsMux(application *app.App) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", application.Metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
