package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ecclesia/internal/interfaces"
	"github.com/ternarybob/ecclesia/internal/models"
)

// DefaultMaxInputChars bounds the page text sent to the model
const DefaultMaxInputChars = 7000

var (
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(:\d{2})?`)
	colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

// Extractor turns page text into a validated StructuredExtraction
type Extractor struct {
	llm           interfaces.LLMService
	validate      *validator.Validate
	maxInputChars int
	logger        arbor.ILogger
}

// NewExtractor creates an extractor. llm may be nil, in which case every
// call fails with ErrAIConfiguration without any network traffic.
func NewExtractor(llm interfaces.LLMService, maxInputChars int, logger arbor.ILogger) *Extractor {
	if maxInputChars <= 0 {
		maxInputChars = DefaultMaxInputChars
	}

	validate := validator.New()
	// Report json field names so errors match the model's vocabulary
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Extractor{
		llm:           llm,
		validate:      validate,
		maxInputChars: maxInputChars,
		logger:        logger,
	}
}

// Configured reports whether a model is available
func (e *Extractor) Configured() bool {
	return e.llm != nil
}

// Extract asks the model for an event record. A skip verdict is returned as
// an extraction with Skip set and a nil error.
func (e *Extractor) Extract(ctx context.Context, text string) (*models.StructuredExtraction, error) {
	if e.llm == nil {
		return nil, models.ErrAIConfiguration
	}

	messages := []interfaces.Message{
		{Role: interfaces.RoleSystem, Content: systemPrompt},
		{Role: interfaces.RoleUser, Content: userPromptPrefix + Truncate(text, e.maxInputChars)},
	}

	response, err := e.llm.Chat(ctx, messages, interfaces.ChatOptions{JSONResponse: true})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", models.ErrAIExtraction, err)
	}

	result, err := e.Parse(response)
	if err != nil {
		e.logger.Debug().
			Err(err).
			Str("provider", e.llm.Provider()).
			Int("response_length", len(response)).
			Msg("Model response rejected")
		return nil, err
	}
	return result, nil
}

// Parse decodes and validates a raw model response
func (e *Extractor) Parse(response string) (*models.StructuredExtraction, error) {
	body, err := outermostObject(stripCodeFence(response))
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %v", models.ErrAIExtraction, err)
	}

	if skip, ok := raw["skip"].(bool); ok && skip {
		return &models.StructuredExtraction{Skip: true}, nil
	}

	result := &models.StructuredExtraction{
		Title:      stringField(raw, "title"),
		Date:       stringField(raw, "date"),
		Location:   stringField(raw, "location"),
		Summary:    stringField(raw, "summary"),
		ThemeColor: stringField(raw, "themeColor"),
	}

	if err := e.validate.Struct(result); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return nil, &models.ValidationError{Fields: fields}
		}
		return nil, fmt.Errorf("%w: %v", models.ErrAIExtraction, err)
	}

	if !datePattern.MatchString(result.Date) {
		result.Date = models.EpochDateSentinel
	}
	if !colorPattern.MatchString(result.ThemeColor) {
		result.ThemeColor = models.DefaultThemeColor
	}

	return result, nil
}

// Truncate cuts s to at most max runes
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}

// stripCodeFence removes a surrounding ``` or ```json fence
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func outermostObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: no JSON object in response", models.ErrAIExtraction)
	}
	return s[start : end+1], nil
}

// stringField returns a trimmed string value; other JSON types count as missing
func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return strings.TrimSpace(s)
}
