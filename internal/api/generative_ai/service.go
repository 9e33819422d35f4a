package generativeAI

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"

	"github.com/meetsy/meetsy/config"
)

type AIClient struct {
	client *genai.Client
	model  string
}

func NewAIClient(ctx context.Context, cfg config.GeminiConfig) (*AIClient, error) {
	apiKey := os.Getenv("GOOGLE_GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_GEMINI_API_KEY environment variable is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &AIClient{
		client: client,
		model:  cfg.Model,
	}, nil
}

func (ai *AIClient) GenerateResponse(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	chat, err := ai.client.Chats.Create(ctx, ai.model, config, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return chat.SendMessage(ctx, genai.Part{Text: prompt})
}

// ResponseText extracts the first non-empty text part from a response.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, candidate := range resp.Candidates {
		if candidate.Content != nil && len(candidate.Content.Parts) > 0 {
			if txt := candidate.Content.Parts[0].Text; txt != "" {
				return txt
			}
		}
	}
	return ""
}
