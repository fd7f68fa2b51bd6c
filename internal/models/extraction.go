package models

// Sentinel values substituted for malformed model output
const (
	EpochDateSentinel = "1970-01-01T00:00:00"
	DefaultThemeColor = "#E63946"
)

// StructuredExtraction is the validated, model-produced view of one event
// announcement. When Skip is set the remaining fields are empty.
type StructuredExtraction struct {
	Title      string `json:"title" validate:"required"`
	Date       string `json:"date" validate:"required"`
	Location   string `json:"location" validate:"required"`
	Summary    string `json:"summary" validate:"required"`
	ThemeColor string `json:"themeColor" validate:"required"`
	Skip       bool   `json:"skip,omitempty"`
}

// HasKnownDate reports whether the date is a real value rather than the sentinel
func (s *StructuredExtraction) HasKnownDate() bool {
	return s.Date != "" && s.Date != EpochDateSentinel
}
