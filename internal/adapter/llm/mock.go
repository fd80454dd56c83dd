package llm

import (
	"context"
	"fmt"
	"strings"

	"edurag/internal/domain"
)

// Extractive answers with the first passage of the prompt. It lets the service
// run end to end without a model.
type Extractive struct{}

func NewExtractive() *Extractive {
	return &Extractive{}
}

func (Extractive) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}

	for _, line := range strings.Split(userPrompt, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "[") && !strings.HasPrefix(line, "Question:") &&
			!strings.HasPrefix(line, "Documents:") {
			return "According to the institution's documents: " + line, nil
		}
	}
	return "", fmt.Errorf("%w: nothing to answer from", domain.ErrGenerationUnavailable)
}

func (Extractive) ModelName() string {
	return "extractive"
}
