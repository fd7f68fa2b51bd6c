package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/ecclesia/internal/common"
	"github.com/ternarybob/ecclesia/internal/metrics"
	"github.com/ternarybob/ecclesia/internal/models"
	"github.com/ternarybob/ecclesia/internal/services/classifier"
	"github.com/ternarybob/ecclesia/internal/services/crawler"
	"github.com/ternarybob/ecclesia/internal/services/dedup"
	"github.com/ternarybob/ecclesia/internal/services/extraction"
)

// Outcome of one candidate
type Outcome string

const (
	OutcomeCreated   Outcome = metrics.OutcomeCreated
	OutcomeDuplicate Outcome = metrics.OutcomeDuplicate
	OutcomeSkipped   Outcome = metrics.OutcomeSkipped
	OutcomeFailed    Outcome = metrics.OutcomeFailed
)

// Sweep processes every source in order and returns aggregate counts.
// Failures of individual sources or items are logged and counted; only
// cancellation stops the sweep early.
func (s *Service) Sweep(ctx context.Context, monthsAhead int) (models.SweepStats, error) {
	start := s.now()
	var total models.SweepStats

	for i, src := range s.sources.All() {
		if i > 0 && !s.sleep(ctx, s.config.SourceDelay) {
			break
		}

		if monthsAhead <= 0 {
			monthsAhead = s.config.MonthsAhead
		}
		if src.Feed != nil && monthsAhead > src.MonthsAhead {
			src.MonthsAhead = monthsAhead
		}

		stats := s.sweepSource(ctx, src)
		total.Add(stats)

		if ctx.Err() != nil {
			break
		}
	}

	status := "completed"
	if ctx.Err() != nil {
		status = "cancelled"
	}
	s.metrics.ObserveSweep(status, s.now().Sub(start).Seconds())

	s.logger.Info().
		Str("status", status).
		Int("sources", total.Sources).
		Int("discovered", total.Discovered).
		Int("created", total.Created).
		Int("duplicates", total.Duplicates).
		Int("skipped", total.Skipped).
		Int("failed", total.Failed).
		Dur("duration", s.now().Sub(start)).
		Msg("Sweep finished")

	return total, ctx.Err()
}

// sweepSource runs one source; a panic in any stage is contained here
func (s *Service) sweepSource(ctx context.Context, src models.Source) (stats models.SweepStats) {
	stats.Sources = 1

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("source", src.Name).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Source failed with panic, continuing sweep")
		}
	}()

	links := s.links.ExtractLinks(ctx, src)
	stats.Discovered = len(links)
	s.metrics.ObserveLinks(src.Name, len(links))

	s.logger.Info().Str("source", src.Name).Int("links", len(links)).Msg("Processing source")

	for j, link := range links {
		if j > 0 && !s.sleep(ctx, s.config.ItemDelay) {
			return stats
		}

		outcome, err := s.processItem(ctx, &src, link)
		s.logOutcome(&src, link, outcome, err)

		switch outcome {
		case OutcomeCreated:
			stats.Created++
		case OutcomeDuplicate:
			stats.Duplicates++
		case OutcomeSkipped:
			stats.Skipped++
		default:
			stats.Failed++
		}
	}
	return stats
}

// processItem runs the per-candidate pipeline. src is nil for URLs that
// belong to no registered source.
func (s *Service) processItem(ctx context.Context, src *models.Source, url string) (outcome Outcome, err error) {
	start := s.now()
	sourceName := "adhoc"
	if src != nil {
		sourceName = src.Name
	}
	defer func() {
		if r := recover(); r != nil {
			outcome, err = OutcomeFailed, fmt.Errorf("panic: %v", r)
		}
		s.metrics.ObserveItem(sourceName, string(outcome), s.now().Sub(start).Seconds())
	}()

	if dup, err := s.gate.IsDuplicate(ctx, dedup.Candidate{OriginURL: url}); err != nil {
		return OutcomeFailed, err
	} else if dup {
		return OutcomeDuplicate, nil
	}

	content, err := s.content.ExtractText(ctx, url, src)
	if err != nil {
		if errors.Is(err, models.ErrTransientNetwork) {
			return OutcomeFailed, err
		}
		return OutcomeSkipped, err
	}

	// A redirecting link is stored under its final URL; catch it here
	// before paying for the model call
	if content.OriginURL != "" && content.OriginURL != url {
		if dup, err := s.gate.IsDuplicate(ctx, dedup.Candidate{OriginURL: content.OriginURL}); err != nil {
			return OutcomeFailed, err
		} else if dup {
			return OutcomeDuplicate, nil
		}
	}

	if !crawler.PassesLanguageDensity(content.Text, s.config.MinHangulDensity, s.config.MinHangulLetters) {
		ratio, count := crawler.HangulDensity(content.Text)
		return OutcomeSkipped, fmt.Errorf("%w: language density %.2f with %d Hangul letters", models.ErrContentExtraction, ratio, count)
	}

	result, err := s.extractor.Extract(ctx, content.Text)
	if err != nil {
		return OutcomeFailed, err
	}
	if result.Skip {
		return OutcomeSkipped, models.ErrSkip
	}

	record := s.buildRecord(src, content, result)

	dup, err := s.gate.IsDuplicate(ctx, dedup.Candidate{
		OriginURL: record.URL(),
		Title:     record.Title,
		Date:      record.Date,
	})
	if err != nil {
		return OutcomeFailed, err
	}
	if dup {
		return OutcomeDuplicate, nil
	}

	if _, err := s.storage.Create(ctx, record); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return OutcomeDuplicate, nil
		}
		return OutcomeFailed, err
	}

	s.logger.Info().
		Str("id", record.ID).
		Str("title", record.Title).
		Str("category", string(record.Category)).
		Str("source", sourceName).
		Msg("Event created")

	return OutcomeCreated, nil
}

func (s *Service) buildRecord(src *models.Source, content *models.ExtractedContent, result *models.StructuredExtraction) *models.EventRecord {
	category := classifier.Classify(result.Title, "")
	sourceName := ""
	if src != nil {
		sourceName = src.Name
		if src.SkipClassify && src.DefaultCategory.IsValid() {
			category = src.DefaultCategory
		}
	}

	now := s.now()
	record := &models.EventRecord{
		ID:         common.NewEventID(),
		Title:      result.Title,
		Date:       extraction.ParseDate(result.Date, s.config.Location),
		Summary:    result.Summary,
		ThemeColor: result.ThemeColor,
		Category:   category,
		Status:     models.EventStatusPublished,
		SourceName: sourceName,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if content.OriginURL != "" {
		origin := content.OriginURL
		record.OriginURL = &origin
	}
	if result.Location != "" {
		location := result.Location
		record.Location = &location
	}
	return record
}

func (s *Service) logOutcome(src *models.Source, url string, outcome Outcome, err error) {
	sourceName := "adhoc"
	if src != nil {
		sourceName = src.Name
	}

	switch {
	case outcome == OutcomeFailed:
		s.logger.Warn().Err(err).Str("source", sourceName).Str("url", url).Msg("Candidate failed")
	case outcome == OutcomeSkipped:
		s.logger.Debug().Err(err).Str("source", sourceName).Str("url", url).Msg("Candidate skipped")
	case outcome == OutcomeDuplicate:
		s.logger.Debug().Str("source", sourceName).Str("url", url).Msg("Candidate already stored")
	}
}
