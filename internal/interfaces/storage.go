package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/ecclesia/internal/models"
)

// EventStorage is the minimal persistence surface the ingestion pipeline needs.
// Lookups return models.ErrNotFound when nothing matches.
type EventStorage interface {
	// FindByOriginURL returns the record created from the given page URL
	FindByOriginURL(ctx context.Context, originURL string) (*models.EventRecord, error)

	// FindByTitleInRange returns a record with the exact title whose date lies in [from, to)
	FindByTitleInRange(ctx context.Context, title string, from, to time.Time) (*models.EventRecord, error)

	// FindByTitle returns any record with the exact title
	FindByTitle(ctx context.Context, title string) (*models.EventRecord, error)

	// Create persists a new record. Returns models.ErrDuplicate when a record
	// with the same origin URL already exists.
	Create(ctx context.Context, record *models.EventRecord) (*models.EventRecord, error)

	// List returns the most recently created records, newest first
	List(ctx context.Context, limit int) ([]*models.EventRecord, error)

	// Count returns the number of stored records
	Count(ctx context.Context) (int, error)

	Close() error
}
