// Package llm adapts chat completion services to port.LLM.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"edurag/internal/domain"
)

// Provider configurations
var providers = map[string]struct {
	baseURL   string
	keyEnvVar string
}{
	"openai":   {"https://api.openai.com/v1", "OPENAI_API_KEY"},
	"groq":     {"https://api.groq.com/openai/v1", "GROQ_API_KEY"},
	"deepseek": {"https://api.deepseek.com/v1", "DEEPSEEK_API_KEY"},
	"ollama":   {"http://localhost:11434/v1", ""},
}

// Options configures a chat client.
type Options struct {
	Provider    string
	Model       string
	BaseURL     string // overrides the provider default
	APIKeyEnv   string // overrides the provider key variable
	Temperature float32
	MaxTokens   int
}

// ChatClient generates answers through an OpenAI-compatible chat endpoint.
type ChatClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func NewChatClient(opts Options) (*ChatClient, error) {
	p, ok := providers[opts.Provider]
	if !ok && opts.BaseURL == "" {
		return nil, fmt.Errorf("unknown provider: %s (set base_url for custom endpoints)", opts.Provider)
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = p.baseURL
	}

	keyEnv := opts.APIKeyEnv
	if keyEnv == "" {
		keyEnv = p.keyEnvVar
	}
	apiKey := opts.Provider // local servers ignore the key
	if keyEnv != "" {
		apiKey = os.Getenv(keyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("API key not found. Set %s environment variable", keyEnv)
		}
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL

	return &ChatClient{
		client:      openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
	}, nil
}

func (c *ChatClient) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrGenerationUnavailable, c.model, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no response from %s", domain.ErrGenerationUnavailable, c.model)
	}
	output := strings.TrimSpace(resp.Choices[0].Message.Content)
	if output == "" {
		return "", fmt.Errorf("%w: empty response from %s", domain.ErrGenerationUnavailable, c.model)
	}
	return output, nil
}

func (c *ChatClient) ModelName() string {
	return c.model
}
