package models

import "time"

// EventStatus is the publication state of an event record
type EventStatus string

const (
	EventStatusPublished EventStatus = "published"
)

// EventRecord is a persisted event. The ingestion pipeline creates records and
// never mutates them afterwards.
type EventRecord struct {
	ID         string      `json:"id"`
	Title      string      `json:"title" badgerhold:"index"`
	Date       *time.Time  `json:"date,omitempty"`
	Location   *string     `json:"location,omitempty"`
	OriginURL  *string     `json:"origin_url,omitempty"`
	Summary    string      `json:"summary"`
	ThemeColor string      `json:"theme_color"`
	Category   Category    `json:"category"`
	Status     EventStatus `json:"status"`
	SourceName string      `json:"source_name,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// URL returns the origin URL or an empty string
func (e *EventRecord) URL() string {
	if e.OriginURL == nil {
		return ""
	}
	return *e.OriginURL
}
