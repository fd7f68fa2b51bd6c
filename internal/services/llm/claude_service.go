package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ecclesia/internal/common"
	"github.com/ternarybob/ecclesia/internal/interfaces"
)

// ClaudeService implements interfaces.LLMService on the Anthropic Messages API
type ClaudeService struct {
	config    *common.ClaudeConfig
	logger    arbor.ILogger
	client    *anthropic.Client
	timeout   time.Duration
	maxTokens int
}

// NewClaudeService creates a Claude chat service. The API key comes from
// ECCLESIA_CLAUDE_API_KEY or ANTHROPIC_API_KEY, then claude.api_key.
func NewClaudeService(config *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeService, error) {
	apiKey, err := common.ResolveAPIKey("anthropic_api_key", config.APIKey)
	if err != nil {
		return nil, fmt.Errorf("Anthropic API key is required (set ANTHROPIC_API_KEY or claude.api_key in config): %w", err)
	}

	if config.Model == "" {
		config.Model = "claude-3-5-haiku-20241022"
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	logger.Debug().
		Str("model", config.Model).
		Dur("timeout", timeout).
		Float32("temperature", config.Temperature).
		Int("max_tokens", maxTokens).
		Msg("Claude LLM service initialized")

	return &ClaudeService{
		config:    config,
		logger:    logger,
		client:    &client,
		timeout:   timeout,
		maxTokens: maxTokens,
	}, nil
}

// Chat generates a completion. Claude has no JSON response mode, so a JSON
// request prefills the assistant turn with "{" and restores it on the reply.
func (s *ClaudeService) Chat(ctx context.Context, messages []interfaces.Message, opts interfaces.ChatOptions) (string, error) {
	claudeMessages, systemText, err := convertMessagesToClaude(messages)
	if err != nil {
		return "", fmt.Errorf("failed to convert messages to Claude format: %w", err)
	}

	if opts.JSONResponse {
		claudeMessages = append(claudeMessages, anthropic.NewAssistantMessage(anthropic.NewTextBlock("{")))
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.Model),
		MaxTokens: int64(s.maxTokens),
		Messages:  claudeMessages,
	}
	if s.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(s.config.Temperature))
	}
	if systemText != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemText}}
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()
	resp, err := s.client.Messages.New(timeoutCtx, params)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("message_count", len(messages)).
			Msg("Claude chat completion failed")
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	var response strings.Builder
	if opts.JSONResponse {
		response.WriteString("{")
	}
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}

	if strings.TrimSpace(response.String()) == "" || response.String() == "{" {
		return "", fmt.Errorf("no response generated from Claude API")
	}

	s.logger.Debug().
		Int("message_count", len(messages)).
		Int("response_length", response.Len()).
		Dur("duration", time.Since(startTime)).
		Msg("Claude chat completion completed")

	return response.String(), nil
}

func (s *ClaudeService) Provider() string {
	return string(common.LLMProviderClaude)
}

func (s *ClaudeService) Close() error {
	s.client = nil
	return nil
}
