package dedup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ecclesia/internal/interfaces"
	"github.com/ternarybob/ecclesia/internal/models"
)

// Candidate is the identity of an event about to be stored
type Candidate struct {
	OriginURL string
	Title     string
	Date      *time.Time
}

// Match names the rule that found a duplicate
type Match string

const (
	MatchNone     Match = ""
	MatchURL      Match = "url"
	MatchTitleDay Match = "title_day"
	MatchTitle    Match = "title"
)

// Gate decides whether an event already exists. Identity is the origin URL
// when known, otherwise the title on the same local calendar day, otherwise
// the title alone.
type Gate struct {
	storage  interfaces.EventStorage
	location *time.Location
	logger   arbor.ILogger
}

// NewGate creates a gate. Calendar days are evaluated in loc.
func NewGate(storage interfaces.EventStorage, loc *time.Location, logger arbor.ILogger) *Gate {
	if loc == nil {
		loc = time.UTC
	}
	return &Gate{
		storage:  storage,
		location: loc,
		logger:   logger,
	}
}

// IsDuplicate reports whether the candidate matches a stored event
func (g *Gate) IsDuplicate(ctx context.Context, c Candidate) (bool, error) {
	match, err := g.Check(ctx, c)
	return match != MatchNone, err
}

// Check is IsDuplicate with the deciding rule reported
func (g *Gate) Check(ctx context.Context, c Candidate) (Match, error) {
	if c.OriginURL != "" {
		return g.lookup(MatchURL, func() (*models.EventRecord, error) {
			return g.storage.FindByOriginURL(ctx, c.OriginURL)
		})
	}

	title := strings.TrimSpace(c.Title)
	if title == "" {
		return MatchNone, nil
	}

	if c.Date != nil {
		from, to := g.DayWindow(*c.Date)
		return g.lookup(MatchTitleDay, func() (*models.EventRecord, error) {
			return g.storage.FindByTitleInRange(ctx, title, from, to)
		})
	}

	return g.lookup(MatchTitle, func() (*models.EventRecord, error) {
		return g.storage.FindByTitle(ctx, title)
	})
}

// DayWindow returns [00:00, 24:00) of t's calendar day in the gate's location
func (g *Gate) DayWindow(t time.Time) (time.Time, time.Time) {
	local := t.In(g.location)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, g.location)
	return start, start.AddDate(0, 0, 1)
}

func (g *Gate) lookup(rule Match, find func() (*models.EventRecord, error)) (Match, error) {
	record, err := find()
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return MatchNone, nil
		}
		return MatchNone, fmt.Errorf("duplicate check (%s) failed: %w", rule, err)
	}

	g.logger.Debug().
		Str("rule", string(rule)).
		Str("existing_id", record.ID).
		Msg("Duplicate event found")
	return rule, nil
}
