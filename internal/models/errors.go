package models

import (
	"errors"
	"fmt"
	"strings"
)

// Pipeline error taxonomy. Every failure is absorbed at the orchestrator
// boundary; these sentinels decide how it is counted and logged.
var (
	// ErrTransientNetwork marks navigation or fetch failures after retries are exhausted
	ErrTransientNetwork = errors.New("transient network error")

	// ErrContentExtraction marks a page with no usable text
	ErrContentExtraction = errors.New("content extraction failed")

	// ErrAIConfiguration marks a missing model credential
	ErrAIConfiguration = errors.New("AI model is not configured")

	// ErrAIExtraction marks malformed or incomplete model output
	ErrAIExtraction = errors.New("AI extraction failed")

	// ErrSkip marks content the model judged not to be a real event
	ErrSkip = errors.New("not an event")

	// ErrDuplicate is returned by storage when a record for the same origin URL exists
	ErrDuplicate = errors.New("duplicate event")

	// ErrNotFound is returned by storage lookups with no match
	ErrNotFound = errors.New("event not found")
)

// ValidationError reports the required fields missing from a model response
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: missing or empty fields: %s", strings.Join(e.Fields, ", "))
}

// Unwrap lets callers match validation failures as AI extraction failures
func (e *ValidationError) Unwrap() error {
	return ErrAIExtraction
}
