package usecase

import (
	"fmt"
	"strings"

	"edurag/internal/domain"
	"edurag/internal/port"
)

// PackedPrompt is the generation request built from ranked passages.
type PackedPrompt struct {
	System     string
	User       string
	Passages   []domain.ScoredPassage // the passages actually sent, in rank order
	UsedTokens int
}

// Packer lays passages out in rank order and trims them to a token budget.
type Packer struct {
	counter port.TokenCounter
	budget  int // 0 = unlimited
}

func NewPacker(counter port.TokenCounter, budget int) *Packer {
	return &Packer{counter: counter, budget: budget}
}

// Pack keeps passages in rank order while they fit the budget. The top
// passage is always kept, even when it alone exceeds the budget.
func (p *Packer) Pack(institutionID, query string, passages []domain.ScoredPassage) PackedPrompt {
	selected := make([]domain.ScoredPassage, 0, len(passages))
	blocks := make([]string, 0, len(passages))
	used := 0

	for _, sp := range passages {
		block := passageBlock(len(selected)+1, sp.Passage)
		tokens := p.counter.CountTokens(block)
		if p.budget > 0 && len(selected) > 0 && used+tokens > p.budget {
			continue // Skip if it would exceed budget
		}
		selected = append(selected, sp)
		blocks = append(blocks, block)
		used += tokens
	}

	var user strings.Builder
	user.WriteString("Documents:\n\n")
	for _, b := range blocks {
		user.WriteString(b)
		user.WriteString("\n\n")
	}
	user.WriteString("Question: ")
	user.WriteString(strings.TrimSpace(query))

	return PackedPrompt{
		System:     systemPrompt(institutionID),
		User:       user.String(),
		Passages:   selected,
		UsedTokens: used,
	}
}

func systemPrompt(institutionID string) string {
	return fmt.Sprintf("You are a helpful assistant for %s. "+
		"Use only the following documents to answer the user's question. "+
		"If the information is not in the documents, say so.", institutionID)
}

func passageBlock(n int, p domain.Passage) string {
	title := p.DocumentTitle
	if title == "" {
		title = p.DocumentID
	}
	return fmt.Sprintf("[%d] %s\n%s", n, title, strings.TrimSpace(p.Text))
}
