package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ecclesia/internal/common"
	"github.com/ternarybob/ecclesia/internal/interfaces"
	"github.com/ternarybob/ecclesia/internal/models"
)

// NewLLMService creates the provider selected by llm.default_provider. A
// missing API key or unknown provider is reported as ErrAIConfiguration so
// callers can run without AI and fail extraction fast.
func NewLLMService(cfg *common.Config, logger arbor.ILogger) (interfaces.LLMService, error) {
	provider := cfg.LLM.DefaultProvider
	if provider == "" {
		provider = common.LLMProviderGemini
	}

	logger.Info().Str("provider", string(provider)).Msg("Initializing LLM service")

	var (
		service interfaces.LLMService
		err     error
	)
	switch provider {
	case common.LLMProviderGemini:
		service, err = NewGeminiService(&cfg.Gemini, logger)
	case common.LLMProviderClaude:
		service, err = NewClaudeService(&cfg.Claude, logger)
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider '%s'", models.ErrAIConfiguration, provider)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrAIConfiguration, err)
	}
	return service, nil
}
