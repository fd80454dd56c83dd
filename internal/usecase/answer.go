package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"edurag/internal/domain"
	"edurag/internal/port"
)

// NoInformationAnswer is returned when an institution has nothing relevant.
const NoInformationAnswer = "I could not find any relevant information in this institution's documents to answer that question."

// AnswerUseCase composes grounded answers from retrieved passages.
type AnswerUseCase struct {
	retrieve *RetrieveUseCase
	packer   *Packer
	llm      port.LLM
	timeout  time.Duration
	logger   *slog.Logger
}

func NewAnswerUseCase(retrieve *RetrieveUseCase, packer *Packer, llm port.LLM, timeout time.Duration, logger *slog.Logger) *AnswerUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerUseCase{
		retrieve: retrieve,
		packer:   packer,
		llm:      llm,
		timeout:  timeout,
		logger:   logger,
	}
}

// Answer retrieves up to k passages (k <= 0 uses the default) and asks the
// generator to answer from them. Sources are the documents of the passages
// sent, in rank order, each listed once. Finding nothing is a successful
// answer with no sources, and the generator is not called.
func (u *AnswerUseCase) Answer(ctx context.Context, institutionID, query string, k int) (domain.Answer, error) {
	start := time.Now()

	passages, err := u.retrieve.Retrieve(ctx, institutionID, query, k)
	if err != nil {
		return domain.Answer{}, err
	}

	if len(passages) == 0 {
		u.logger.Info("no passages found", "institution_id", institutionID)
		return domain.Answer{
			Text:          NoInformationAnswer,
			Sources:       []domain.Source{},
			InstitutionID: institutionID,
		}, nil
	}

	packed := u.packer.Pack(institutionID, query, passages)

	gctx := ctx
	if u.timeout > 0 {
		var cancel context.CancelFunc
		gctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}
	text, err := u.llm.GenerateWithSystem(gctx, packed.System, packed.User)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generate answer: %w", domain.AsGenerationUnavailable(err))
	}

	u.logger.Info("answer generated",
		"institution_id", institutionID,
		"passages", len(packed.Passages),
		"prompt_tokens", packed.UsedTokens,
		"model", u.llm.ModelName(),
		"duration", time.Since(start))

	return domain.Answer{
		Text:          text,
		Sources:       Sources(packed.Passages),
		InstitutionID: institutionID,
	}, nil
}

// Sources lists the owning documents of passages in rank order, first occurrence wins.
func Sources(passages []domain.ScoredPassage) []domain.Source {
	seen := make(map[string]struct{}, len(passages))
	sources := make([]domain.Source, 0, len(passages))
	for _, sp := range passages {
		if _, dup := seen[sp.Passage.DocumentID]; dup {
			continue
		}
		seen[sp.Passage.DocumentID] = struct{}{}
		sources = append(sources, domain.Source{
			DocumentID: sp.Passage.DocumentID,
			Title:      sp.Passage.DocumentTitle,
		})
	}
	return sources
}
