package llm

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ternarybob/ecclesia/internal/interfaces"
	"google.golang.org/genai"
)

// splitSystem validates the conversation and separates the first system
// message from the rest
func splitSystem(messages []interfaces.Message) ([]interfaces.Message, string, error) {
	if len(messages) == 0 {
		return nil, "", fmt.Errorf("messages cannot be empty")
	}

	hasUserMessage := false
	for _, msg := range messages {
		if msg.Role == interfaces.RoleUser {
			hasUserMessage = true
			break
		}
	}
	if !hasUserMessage {
		return nil, "", fmt.Errorf("at least one message must have role 'user'")
	}

	rest := make([]interfaces.Message, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		if msg.Role == interfaces.RoleSystem {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}
		rest = append(rest, msg)
	}
	return rest, systemText, nil
}

// convertMessagesToGemini maps the conversation to Gemini contents. The
// system message is returned separately for SystemInstruction.
func convertMessagesToGemini(messages []interfaces.Message) ([]*genai.Content, string, error) {
	rest, systemText, err := splitSystem(messages)
	if err != nil {
		return nil, "", err
	}

	contents := make([]*genai.Content, 0, len(rest))
	for _, msg := range rest {
		role := genai.RoleUser
		if msg.Role == interfaces.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
		})
	}
	return contents, systemText, nil
}

// convertMessagesToClaude maps the conversation to Claude message params.
// The system message is returned separately for the System parameter.
func convertMessagesToClaude(messages []interfaces.Message) ([]anthropic.MessageParam, string, error) {
	rest, systemText, err := splitSystem(messages)
	if err != nil {
		return nil, "", err
	}

	params := make([]anthropic.MessageParam, 0, len(rest))
	for _, msg := range rest {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == interfaces.RoleAssistant {
			params = append(params, anthropic.NewAssistantMessage(block))
		} else {
			params = append(params, anthropic.NewUserMessage(block))
		}
	}
	return params, systemText, nil
}
