package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ecclesia/internal/app"
	"github.com/ternarybob/ecclesia/internal/common"
)

var (
	// Command-line flags
	configFiles []string // Later files override earlier ones
	logLevel    string

	// Global state, set in loadConfig
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:           "ecclesia",
	Short:         "Ingest Catholic community events from parish and diocesan websites",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd {
			return nil
		}
		return loadConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(&configFiles, "config", "c", nil, "Configuration file path (repeatable, later files override earlier ones)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides config)")

	rootCmd.AddCommand(syncCmd, ingestCmd, scrapeCmd, scheduleCmd, listCmd, versionCmd)
}

func main() {
	common.InstallCrashHandler("./logs")
	defer common.RecoverWithCrashFile()

	if err := rootCmd.Execute(); err != nil {
		// Falls back to a console logger when config never loaded
		common.GetLogger().Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// loadConfig runs the startup sequence: config files, env, CLI overrides,
// logger, banner
func loadConfig() error {
	if len(configFiles) == 0 {
		if _, err := os.Stat("ecclesia.toml"); err == nil {
			configFiles = append(configFiles, "ecclesia.toml")
		} else if _, err := os.Stat("deployments/local/ecclesia.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/ecclesia.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if logLevel != "" {
		config.Logging.Level = logLevel
	}

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Debug().
		Strs("config_files", configFiles).
		Str("badger_path", config.Storage.Badger.Path).
		Str("llm_provider", string(config.LLM.DefaultProvider)).
		Bool("javascript", config.Crawler.EnableJavaScript).
		Msg("Resolved configuration")

	return nil
}

// withApp builds the application, runs fn with a context cancelled on
// SIGINT/SIGTERM, and closes the application afterwards
func withApp(fn func(ctx context.Context, application *app.App) error) error {
	application, err := app.New(config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn().Err(err).Msg("Shutdown incomplete")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return fn(ctx, application)
}
