package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ecclesia/internal/common"
	"github.com/ternarybob/ecclesia/internal/interfaces"
	"google.golang.org/genai"
)

// GeminiService implements interfaces.LLMService on the Gemini API
type GeminiService struct {
	config  *common.GeminiConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
	retry   rateLimitPolicy

	sleep func(ctx context.Context, d time.Duration) bool
}

// NewGeminiService creates a Gemini chat service.
//
// The API key is resolved from ECCLESIA_GEMINI_API_KEY, GEMINI_API_KEY or
// GOOGLE_API_KEY before falling back to gemini.api_key in the config file.
func NewGeminiService(config *common.GeminiConfig, logger arbor.ILogger) (*GeminiService, error) {
	apiKey, err := common.ResolveAPIKey("gemini_api_key", config.APIKey)
	if err != nil {
		return nil, fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or gemini.api_key in config): %w", err)
	}

	if config.Model == "" {
		config.Model = "gemini-2.0-flash"
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	logger.Info().
		Str("model", config.Model).
		Dur("timeout", timeout).
		Msg("Gemini LLM service initialized")

	return &GeminiService{
		config:  config,
		logger:  logger,
		client:  client,
		timeout: timeout,
		retry:   defaultRateLimitPolicy(),
		sleep:   sleepCtx,
	}, nil
}

// Chat generates a completion. Quota errors are retried within the rate
// limit policy, using the API-suggested delay when one is given.
func (s *GeminiService) Chat(ctx context.Context, messages []interfaces.Message, opts interfaces.ChatOptions) (string, error) {
	contents, systemText, err := convertMessagesToGemini(messages)
	if err != nil {
		return "", fmt.Errorf("failed to convert messages to Gemini format: %w", err)
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.config.Temperature),
	}
	if systemText != "" {
		config.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}
	if opts.JSONResponse {
		config.ResponseMIMEType = "application/json"
	}

	startTime := time.Now()
	var (
		lastErr error
		waited  time.Duration
	)
	for attempt := 1; ; attempt++ {
		response, err := s.generate(ctx, contents, config)
		if err == nil {
			s.logger.Debug().
				Int("message_count", len(messages)).
				Int("response_length", len(response)).
				Dur("duration", time.Since(startTime)).
				Msg("Gemini chat completion completed")
			return response, nil
		}
		lastErr = err

		wait, ok := s.retry.next(attempt, err, waited)
		if !ok {
			break
		}
		s.logger.Warn().
			Int("retry", attempt).
			Dur("wait", wait).
			Dur("waited", waited).
			Msg("Gemini rate limited, backing off")
		if !s.sleep(ctx, wait) {
			return "", ctx.Err()
		}
		waited += wait
	}

	s.logger.Error().
		Err(lastErr).
		Int("message_count", len(messages)).
		Msg("Gemini chat completion failed")
	return "", fmt.Errorf("chat completion failed: %w", lastErr)
}

func (s *GeminiService) generate(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.Models.GenerateContent(timeoutCtx, s.config.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("chat generation failed: %w", err)
	}

	// Use the first candidate that carries text
	var response strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from chat model")
	}
	return response.String(), nil
}

func (s *GeminiService) Provider() string {
	return string(common.LLMProviderGemini)
}

// Close drops the client reference; genai.Client holds no closable resources
func (s *GeminiService) Close() error {
	s.client = nil
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
