package extraction

import (
	"time"

	"github.com/ternarybob/ecclesia/internal/models"
)

var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseDate interprets an extracted date as wall-clock time in loc. The
// sentinel and anything unparseable yield nil.
func ParseDate(value string, loc *time.Location) *time.Time {
	if value == "" || value == models.EpochDateSentinel {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	// The model sometimes appends an offset or fractional seconds; only the
	// wall-clock prefix accepted by validation is trusted
	value = datePattern.FindString(value)
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return &t
		}
	}
	return nil
}
