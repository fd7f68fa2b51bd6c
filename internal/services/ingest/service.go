// Package ingest runs the event pipeline: discover links per source, fetch
// and filter page text, extract and classify with the model, then store new
// events. Triggers are fire-and-forget; work continues on the task registry.
package ingest

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ecclesia/internal/interfaces"
	"github.com/ternarybob/ecclesia/internal/metrics"
	"github.com/ternarybob/ecclesia/internal/models"
	"github.com/ternarybob/ecclesia/internal/services/dedup"
	"github.com/ternarybob/ecclesia/internal/services/sources"
	"github.com/ternarybob/ecclesia/internal/services/tasks"
)

// LinkDiscoverer yields candidate detail URLs for a source
type LinkDiscoverer interface {
	ExtractLinks(ctx context.Context, src models.Source) []string
}

// ContentFetcher returns the main text of a detail page
type ContentFetcher interface {
	ExtractText(ctx context.Context, url string, src *models.Source) (*models.ExtractedContent, error)
}

// StructuredExtractor turns page text into an event
type StructuredExtractor interface {
	Extract(ctx context.Context, text string) (*models.StructuredExtraction, error)
}

// Config holds pipeline pacing and filter thresholds
type Config struct {
	ItemDelay        time.Duration
	SourceDelay      time.Duration
	MinHangulDensity float64
	MinHangulLetters int
	MonthsAhead      int
	Location         *time.Location
}

// Service is the ingestion orchestrator
type Service struct {
	config    Config
	sources   *sources.Registry
	links     LinkDiscoverer
	content   ContentFetcher
	extractor StructuredExtractor
	gate      *dedup.Gate
	storage   interfaces.EventStorage
	tasks     *tasks.Registry
	metrics   *metrics.Metrics
	logger    arbor.ILogger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) bool
}

// Deps groups the collaborators of the service
type Deps struct {
	Sources   *sources.Registry
	Links     LinkDiscoverer
	Content   ContentFetcher
	Extractor StructuredExtractor
	Storage   interfaces.EventStorage
	Metrics   *metrics.Metrics // may be nil
}

// NewService creates the orchestrator and its task registry
func NewService(config Config, deps Deps, logger arbor.ILogger) *Service {
	if config.Location == nil {
		config.Location = time.UTC
	}

	s := &Service{
		config:    config,
		sources:   deps.Sources,
		links:     deps.Links,
		content:   deps.Content,
		extractor: deps.Extractor,
		gate:      dedup.NewGate(deps.Storage, config.Location, logger),
		storage:   deps.Storage,
		metrics:   deps.Metrics,
		logger:    logger,
		now:       time.Now,
		sleep:     sleepCtx,
	}

	s.tasks = tasks.NewRegistry(logger, tasks.Hooks{
		OnStart:  func(*tasks.Task) { s.metrics.TaskStarted() },
		OnFinish: func(*tasks.Task) { s.metrics.TaskFinished() },
	})

	return s
}

// IngestOne schedules the full pipeline for a single URL and returns at once
func (s *Service) IngestOne(ctx context.Context, url string) models.Ack {
	if ctx.Err() != nil || url == "" {
		return models.Ack{Accepted: false}
	}

	task := s.tasks.Go("ingest-one", func(ctx context.Context) error {
		var src *models.Source
		if found, ok := s.sources.ForURL(url); ok {
			src = &found
		}
		outcome, err := s.processItem(ctx, src, url)
		s.logOutcome(src, url, outcome, err)
		return ctx.Err()
	})

	if task.Status() == models.TaskStatusCancelled {
		return models.Ack{Accepted: false, TaskID: task.ID}
	}

	s.logger.Info().Str("url", url).Str("task_id", task.ID).Msg("Single URL ingestion accepted")
	return models.Ack{Accepted: true, TaskID: task.ID}
}

// IngestAll schedules a sweep over every source and returns at once.
// monthsAhead widens calendar feeds; zero uses the configured default.
func (s *Service) IngestAll(ctx context.Context, monthsAhead int) models.Ack {
	if ctx.Err() != nil {
		return models.Ack{Accepted: false}
	}

	task := s.tasks.Go("sweep", func(ctx context.Context) error {
		_, err := s.Sweep(ctx, monthsAhead)
		return err
	})

	if task.Status() == models.TaskStatusCancelled {
		return models.Ack{Accepted: false, TaskID: task.ID}
	}

	s.logger.Info().Int("sources", s.sources.Len()).Str("task_id", task.ID).Msg("Sweep accepted")
	return models.Ack{Accepted: true, TaskID: task.ID}
}

// ScrapeOnDemand extracts an event from url without storing it
func (s *Service) ScrapeOnDemand(ctx context.Context, url string) (*models.StructuredExtraction, error) {
	var src *models.Source
	if found, ok := s.sources.ForURL(url); ok {
		src = &found
	}

	content, err := s.content.ExtractText(ctx, url, src)
	if err != nil {
		return nil, err
	}
	return s.extractor.Extract(ctx, content.Text)
}

// Tasks exposes the task registry for status reporting
func (s *Service) Tasks() *tasks.Registry {
	return s.tasks
}

// Wait blocks until all accepted work has finished or ctx ends
func (s *Service) Wait(ctx context.Context) error {
	return s.tasks.Wait(ctx)
}

// Shutdown cancels outstanding work and waits for it up to timeout
func (s *Service) Shutdown(timeout time.Duration) error {
	return s.tasks.Shutdown(timeout)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
