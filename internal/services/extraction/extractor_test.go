package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ecclesia/internal/interfaces"
	"github.com/ternarybob/ecclesia/internal/models"
)

type fakeLLM struct {
	response string
	err      error
	calls    int
	last     []interfaces.Message
	opts     interfaces.ChatOptions
}

func (f *fakeLLM) Chat(ctx context.Context, messages []interfaces.Message, opts interfaces.ChatOptions) (string, error) {
	f.calls++
	f.last = messages
	f.opts = opts
	return f.response, f.err
}

func (f *fakeLLM) Provider() string { return "fake" }
func (f *fakeLLM) Close() error     { return nil }

const validResponse = `{"title":"청년 피정","date":"2025-12-06T10:00:00","location":"명동대성당","summary":"청년을 위한 대림 피정입니다.","themeColor":"#1D3557"}`

func TestExtract_Valid(t *testing.T) {
	llm := &fakeLLM{response: validResponse}
	e := NewExtractor(llm, 0, arbor.NewLogger())

	result, err := e.Extract(context.Background(), "피정 안내")

	require.NoError(t, err)
	assert.Equal(t, "청년 피정", result.Title)
	assert.Equal(t, "2025-12-06T10:00:00", result.Date)
	assert.Equal(t, "#1D3557", result.ThemeColor)
	assert.False(t, result.Skip)
	assert.True(t, llm.opts.JSONResponse)
	assert.Equal(t, interfaces.RoleSystem, llm.last[0].Role)
}

func TestExtract_NoModelConfigured(t *testing.T) {
	e := NewExtractor(nil, 0, arbor.NewLogger())

	_, err := e.Extract(context.Background(), "text")

	assert.ErrorIs(t, err, models.ErrAIConfiguration)
	assert.False(t, e.Configured())
}

func TestExtract_TruncatesInput(t *testing.T) {
	llm := &fakeLLM{response: validResponse}
	e := NewExtractor(llm, 7000, arbor.NewLogger())

	_, err := e.Extract(context.Background(), strings.Repeat("가", 9000))
	require.NoError(t, err)

	user := strings.TrimPrefix(llm.last[1].Content, userPromptPrefix)
	assert.Equal(t, 7000, utf8.RuneCountInString(user))
}

func TestExtract_ChatFailure(t *testing.T) {
	e := NewExtractor(&fakeLLM{err: errors.New("503")}, 0, arbor.NewLogger())

	_, err := e.Extract(context.Background(), "text")
	assert.ErrorIs(t, err, models.ErrAIExtraction)
}

func TestParse(t *testing.T) {
	e := NewExtractor(&fakeLLM{}, 0, arbor.NewLogger())

	tests := []struct {
		name      string
		response  string
		wantErr   error
		wantSkip  bool
		wantDate  string
		wantColor string
	}{
		{
			name:      "fenced json",
			response:  "```json\n" + validResponse + "\n```",
			wantDate:  "2025-12-06T10:00:00",
			wantColor: "#1D3557",
		},
		{
			name:      "prose around object",
			response:  "Here is the event: " + validResponse + " Thanks.",
			wantDate:  "2025-12-06T10:00:00",
			wantColor: "#1D3557",
		},
		{
			name:     "skip",
			response: `{"skip": true}`,
			wantSkip: true,
		},
		{
			name:      "minutes only date and bad colour",
			response:  `{"title":"미사","date":"2025-12-24T23:30","location":"성당","summary":"성탄 전야 미사","themeColor":"red"}`,
			wantDate:  "2025-12-24T23:30",
			wantColor: models.DefaultThemeColor,
		},
		{
			name:      "unparseable date",
			response:  `{"title":"미사","date":"12월 24일","location":"성당","summary":"요약","themeColor":"#abcdef"}`,
			wantDate:  models.EpochDateSentinel,
			wantColor: "#abcdef",
		},
		{
			name:     "malformed json",
			response: `{"title": "미사",`,
			wantErr:  models.ErrAIExtraction,
		},
		{
			name:     "no object",
			response: "I cannot help with that.",
			wantErr:  models.ErrAIExtraction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := e.Parse(tt.response)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSkip, result.Skip)
			if !tt.wantSkip {
				assert.Equal(t, tt.wantDate, result.Date)
				assert.Equal(t, tt.wantColor, result.ThemeColor)
			}
		})
	}
}

func TestParse_MissingFieldsIsValidationError(t *testing.T) {
	e := NewExtractor(&fakeLLM{}, 0, arbor.NewLogger())

	_, err := e.Parse(`{"title":"미사","date":"2025-12-24T23:30:00","location":"  ","summary":"","themeColor":"#000000"}`)

	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{"location", "summary"}, verr.Fields)
	assert.ErrorIs(t, err, models.ErrAIExtraction)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "가나", Truncate("가나다", 2))
	assert.Equal(t, "가나다", Truncate("가나다", 3))
	assert.Equal(t, "가나다", Truncate("가나다", 10))
	assert.Equal(t, "", Truncate("", 5))
}
