package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIGenerator generates text through chat completions.
type OpenAIGenerator struct {
	client *openai.Client
}

// NewOpenAIGenerator creates a generator for the configured service.
func NewOpenAIGenerator(cfg Config) *OpenAIGenerator {
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.baseURL()
	oc.HTTPClient = cfg.httpClient()
	return &OpenAIGenerator{client: openai.NewClientWithConfig(oc)}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if p.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: p.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: p.User,
	})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.Model,
		Messages:    messages,
		Temperature: float32(p.Temperature),
		MaxTokens:   p.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion %s: %w", p.Model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion %s: %w", p.Model, ErrEmptyResponse)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("chat completion %s: %w", p.Model, ErrEmptyResponse)
	}
	return text, nil
}
