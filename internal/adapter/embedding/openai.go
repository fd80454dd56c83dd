package embedding

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"edurag/internal/domain"
)

// OpenAIEmbedder calls any OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
}

func NewOpenAIEmbedder(apiKeyEnv, model string, dimension int) (*OpenAIEmbedder, error) {
	return NewOpenAICompatibleEmbedder(apiKeyEnv, model, "https://api.openai.com/v1", dimension)
}

func NewDeepSeekEmbedder(apiKeyEnv, model string, dimension int) (*OpenAIEmbedder, error) {
	return NewOpenAICompatibleEmbedder(apiKeyEnv, model, "https://api.deepseek.com/v1", dimension)
}

func NewJinaEmbedder(apiKeyEnv, model string, dimension int) (*OpenAIEmbedder, error) {
	return NewOpenAICompatibleEmbedder(apiKeyEnv, model, "https://api.jina.ai/v1", dimension)
}

func NewOllamaEmbedder(model, baseURL string, dimension int) (*OpenAIEmbedder, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	if dimension <= 0 {
		dimension = knownDimension(model, 768)
	}
	return newEmbedder("ollama", model, baseURL, dimension), nil
}

// NewOpenAICompatibleEmbedder reads the API key from apiKeyEnv. A dimension of
// 0 falls back to the known size of the model.
func NewOpenAICompatibleEmbedder(apiKeyEnv, model, baseURL string, dimension int) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	if dimension <= 0 {
		dimension = knownDimension(model, 1536)
	}
	return newEmbedder(apiKey, model, baseURL, dimension), nil
}

func newEmbedder(apiKey, model, baseURL string, dimension int) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		dimension: dimension,
	}
}

func knownDimension(model string, fallback int) int {
	switch model {
	case "text-embedding-3-small", "text-embedding-ada-002":
		return 1536
	case "text-embedding-3-large":
		return 3072
	case "jina-embeddings-v3":
		return 1024
	case "jina-embeddings-v4":
		return 2048
	case "nomic-embed-text":
		return 768
	case "mxbai-embed-large":
		return 1024
	case "all-minilm":
		return 384
	}
	return fallback
}

// Embed sends texts in a single request. Batching is left to the caller.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrEmbeddingUnavailable, e.model, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d",
			domain.ErrEmbeddingUnavailable, len(texts), len(resp.Data))
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(embeddings) || embeddings[data.Index] != nil {
			return nil, fmt.Errorf("%w: bad embedding index %d", domain.ErrEmbeddingUnavailable, data.Index)
		}
		v := make([]float32, len(data.Embedding))
		for i := range data.Embedding {
			v[i] = float32(data.Embedding[i])
		}
		embeddings[data.Index] = v
	}

	if err := checkVectors(embeddings, e.dimension); err != nil {
		return nil, err
	}
	return embeddings, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

// checkVectors rejects missing vectors and vectors of the wrong length.
func checkVectors(vectors [][]float32, dimension int) error {
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("%w: empty embedding at %d", domain.ErrEmbeddingUnavailable, i)
		}
		if len(v) != dimension {
			return fmt.Errorf("%w: embedding %d has %d components, expected %d",
				domain.ErrEmbeddingUnavailable, i, len(v), dimension)
		}
	}
	return nil
}
