package port

import "context"

// LLM represents a language model for text generation.
type LLM interface {
	// GenerateWithSystem generates text with a system prompt.
	// Failures wrap domain.ErrGenerationUnavailable.
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
