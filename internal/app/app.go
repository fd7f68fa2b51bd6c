package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ecclesia/internal/common"
	"github.com/ternarybob/ecclesia/internal/httpclient"
	"github.com/ternarybob/ecclesia/internal/interfaces"
	"github.com/ternarybob/ecclesia/internal/metrics"
	"github.com/ternarybob/ecclesia/internal/models"
	"github.com/ternarybob/ecclesia/internal/services/crawler"
	"github.com/ternarybob/ecclesia/internal/services/extraction"
	"github.com/ternarybob/ecclesia/internal/services/ingest"
	"github.com/ternarybob/ecclesia/internal/services/llm"
	"github.com/ternarybob/ecclesia/internal/services/scheduler"
	"github.com/ternarybob/ecclesia/internal/services/sources"
	"github.com/ternarybob/ecclesia/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	DB           *badger.BadgerDB
	EventStorage interfaces.EventStorage

	// Crawling
	Browser          *crawler.Browser
	Sources          *sources.Registry
	LinkExtractor    *crawler.LinkExtractor
	ContentExtractor *crawler.ContentExtractor

	// AI extraction (LLMService is nil when no provider is configured)
	LLMService interfaces.LLMService
	Extractor  *extraction.Extractor

	// Orchestration
	Metrics          *metrics.Metrics
	IngestService    *ingest.Service
	SchedulerService *scheduler.Service
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	logger.Info().
		Int("sources", app.Sources.Len()).
		Bool("javascript", cfg.Crawler.EnableJavaScript).
		Bool("ai_configured", app.Extractor.Configured()).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase opens Badger and the event storage on top of it
func (a *App) initDatabase() error {
	db, err := badger.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}

	a.DB = db
	a.EventStorage = badger.NewEventStorage(db, a.Logger)

	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")
	return nil
}

// initServices wires the pipeline bottom-up: pages, navigator, extractors,
// model, orchestrator, scheduler
func (a *App) initServices() error {
	c := a.Config.Crawler
	p := a.Config.Pipeline

	if c.EnableJavaScript {
		a.Browser = crawler.NewBrowser(crawler.BrowserConfig{
			UserAgent:      c.UserAgent,
			Headless:       c.Headless,
			NoSandbox:      c.NoSandbox,
			BlockResources: c.BlockResources,
		}, a.Logger)
	} else {
		a.Logger.Info().Msg("JavaScript rendering disabled, all sources fetched over HTTP")
	}

	httpClient, err := httpclient.NewCrawlerClient(common.Duration(c.HTTPTimeout, 10*time.Second))
	if err != nil {
		return err
	}
	pages := crawler.NewPages(a.Browser, httpClient, crawler.PagesConfig{
		UserAgent:      c.UserAgent,
		BrowserTimeout: common.Duration(c.BrowserTimeout, 30*time.Second),
		HTTPTimeout:    common.Duration(c.HTTPTimeout, 10*time.Second),
	}, a.Logger)

	navigator := crawler.NewNavigator(crawler.NavigatorConfig{
		Retries:     c.NavigationRetries,
		BackoffUnit: common.Duration(c.RetryBackoff, 2*time.Second),
	}, crawler.NewHostLimiter(c.RequestsPerSecond), a.Logger)

	wait := crawler.WaitConfig{
		ReadyTimeout: common.Duration(c.ReadyTimeout, 10*time.Second),
		IdleTimeout:  common.Duration(c.IdleTimeout, 8*time.Second),
		SettleDelay:  common.Duration(c.SettleDelay, 2*time.Second),
	}

	a.Sources = sources.Default()
	a.LinkExtractor = crawler.NewLinkExtractor(pages, navigator, wait, a.Logger)
	a.ContentExtractor = crawler.NewContentExtractor(pages, navigator, wait, p.MinContentChars, a.Logger)

	// A missing key is not fatal: duplicate pre-checks still run and each
	// candidate fails fast at extraction
	llmService, err := llm.NewLLMService(a.Config, a.Logger)
	if err != nil {
		if !errors.Is(err, models.ErrAIConfiguration) {
			return err
		}
		a.Logger.Warn().Err(err).Msg("LLM service unavailable, extraction will fail until an API key is configured")
		llmService = nil
	}
	a.LLMService = llmService
	a.Extractor = extraction.NewExtractor(llmService, p.MaxInputChars, a.Logger)

	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %s: %w", p.Timezone, err)
	}

	a.Metrics = metrics.NewMetrics(prometheus.NewRegistry())

	a.IngestService = ingest.NewService(ingest.Config{
		ItemDelay:        common.Duration(p.ItemDelay, time.Second),
		SourceDelay:      common.Duration(p.SourceDelay, 2*time.Second),
		MinHangulDensity: p.MinHangulDensity,
		MinHangulLetters: p.MinHangulLetters,
		MonthsAhead:      p.MonthsAhead,
		Location:         loc,
	}, ingest.Deps{
		Sources:   a.Sources,
		Links:     a.LinkExtractor,
		Content:   a.ContentExtractor,
		Extractor: a.Extractor,
		Storage:   a.EventStorage,
		Metrics:   a.Metrics,
	}, a.Logger)

	a.SchedulerService = scheduler.NewService(func(ctx context.Context) error {
		_, err := a.IngestService.Sweep(ctx, 0)
		return err
	}, a.Logger)

	return nil
}

// Close shuts down services in reverse order of initialization
func (a *App) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.IngestService != nil {
		timeout := common.Duration(a.Config.Pipeline.ShutdownTimeout, 30*time.Second)
		if err := a.IngestService.Shutdown(timeout); err != nil {
			a.Logger.Warn().Err(err).Msg("Background ingestion did not finish before shutdown")
		}
	}

	if a.Browser != nil {
		if err := a.Browser.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close browser")
		}
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		} else {
			a.Logger.Debug().Msg("LLM service closed")
		}
	}

	if a.EventStorage != nil {
		if err := a.EventStorage.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	} else if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}

	a.Logger.Info().Msg("Application shutdown complete")
	return nil
}
