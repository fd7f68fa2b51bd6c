package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	badgerv4 "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ecclesia/internal/interfaces"
	"github.com/ternarybob/ecclesia/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// eventURL reserves an origin URL for exactly one event. It is written in the
// same transaction as the event, so a second insert for the URL fails.
type eventURL struct {
	URL     string
	EventID string
}

// EventStorage implements interfaces.EventStorage on Badger
type EventStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewEventStorage creates a new EventStorage instance
func NewEventStorage(db *BadgerDB, logger arbor.ILogger) interfaces.EventStorage {
	return &EventStorage{
		db:     db,
		logger: logger,
	}
}

func (s *EventStorage) FindByOriginURL(ctx context.Context, originURL string) (*models.EventRecord, error) {
	if originURL == "" {
		return nil, models.ErrNotFound
	}

	var ref eventURL
	if err := s.db.Store().Get(originURL, &ref); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up origin URL: %w", err)
	}

	var record models.EventRecord
	if err := s.db.Store().Get(ref.EventID, &record); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &record, nil
}

func (s *EventStorage) FindByTitleInRange(ctx context.Context, title string, from, to time.Time) (*models.EventRecord, error) {
	records, err := s.findByTitle(title)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		if record.Date == nil {
			continue
		}
		if !record.Date.Before(from) && record.Date.Before(to) {
			return record, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *EventStorage) FindByTitle(ctx context.Context, title string) (*models.EventRecord, error) {
	records, err := s.findByTitle(title)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, models.ErrNotFound
	}
	return records[0], nil
}

// findByTitle uses the Title index; date filtering happens in Go because
// Date is an optional pointer field
func (s *EventStorage) findByTitle(title string) ([]*models.EventRecord, error) {
	if title == "" {
		return nil, nil
	}

	var records []models.EventRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("Title").Eq(title).Index("Title")); err != nil {
		return nil, fmt.Errorf("failed to find events by title: %w", err)
	}

	result := make([]*models.EventRecord, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}

func (s *EventStorage) Create(ctx context.Context, record *models.EventRecord) (*models.EventRecord, error) {
	if record.ID == "" {
		return nil, fmt.Errorf("event ID is required")
	}

	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = record.CreatedAt
	if record.Status == "" {
		record.Status = models.EventStatusPublished
	}

	store := s.db.Store()
	err := store.Badger().Update(func(tx *badgerv4.Txn) error {
		if url := record.URL(); url != "" {
			if err := store.TxInsert(tx, url, eventURL{URL: url, EventID: record.ID}); err != nil {
				return err
			}
		}
		return store.TxInsert(tx, record.ID, record)
	})

	switch {
	case err == nil:
	case errors.Is(err, badgerhold.ErrKeyExists), errors.Is(err, badgerv4.ErrConflict):
		return nil, fmt.Errorf("%w: %s", models.ErrDuplicate, record.URL())
	default:
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.logger.Debug().
		Str("id", record.ID).
		Str("title", record.Title).
		Str("category", string(record.Category)).
		Msg("Event created")

	return record, nil
}

func (s *EventStorage) List(ctx context.Context, limit int) ([]*models.EventRecord, error) {
	var records []models.EventRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("ID").Ne("")); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	result := make([]*models.EventRecord, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}

func (s *EventStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.EventRecord{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return int(count), nil
}

func (s *EventStorage) Close() error {
	return s.db.Close()
}
