package common

import (
	"github.com/google/uuid"
)

// NewEventID generates a unique event ID with the "evt_" prefix
// Format: evt_<uuid>
func NewEventID() string {
	return "evt_" + uuid.New().String()
}
