package usecase

import (
	"strings"
	"testing"

	"edurag/internal/adapter/analyzer"
	"edurag/internal/domain"
)

func scored(doc, title, text string, ordinal int, score float64) domain.ScoredPassage {
	return domain.ScoredPassage{
		Passage: domain.Passage{
			DocumentID:    doc,
			DocumentTitle: title,
			InstitutionID: "unilag",
			Ordinal:       ordinal,
			Text:          text,
		},
		Score: score,
	}
}

func TestPackKeepsRankOrder(t *testing.T) {
	packer := NewPacker(analyzer.NewTokenizer(false), 0)
	passages := []domain.ScoredPassage{
		scored("d2", "Fees", "School fees are paid at the bursary.", 0, 0.9),
		scored("d1", "Admission", "Admission requires a WAEC certificate.", 0, 0.8),
	}

	packed := packer.Pack("unilag", " How do I pay fees? ", passages)

	if len(packed.Passages) != 2 {
		t.Fatalf("expected 2 passages, got %d", len(packed.Passages))
	}
	first := strings.Index(packed.User, "[1] Fees")
	second := strings.Index(packed.User, "[2] Admission")
	if first < 0 || second < 0 || first > second {
		t.Errorf("passages not listed in rank order:\n%s", packed.User)
	}
	if !strings.HasSuffix(packed.User, "Question: How do I pay fees?") {
		t.Errorf("question missing from prompt:\n%s", packed.User)
	}
	if !strings.Contains(packed.System, "unilag") || !strings.Contains(packed.System, "say so") {
		t.Errorf("unexpected system prompt: %s", packed.System)
	}
}

func TestPackBudget(t *testing.T) {
	tokenizer := analyzer.NewTokenizer(false)
	long := strings.Repeat("hostel allocation rules apply to all fresh students ", 20)
	passages := []domain.ScoredPassage{
		scored("d1", "A", "Admission requires a WAEC certificate.", 0, 0.9),
		scored("d2", "B", long, 0, 0.8),
		scored("d3", "C", "Fees are due in September.", 0, 0.7),
	}

	packer := NewPacker(tokenizer, 30)
	packed := packer.Pack("unilag", "q", passages)

	if packed.UsedTokens > 30 {
		t.Errorf("used %d tokens, budget is 30", packed.UsedTokens)
	}
	if len(packed.Passages) != 2 {
		t.Fatalf("expected the long passage to be skipped, got %d passages", len(packed.Passages))
	}
	if packed.Passages[0].Passage.DocumentID != "d1" || packed.Passages[1].Passage.DocumentID != "d3" {
		t.Errorf("unexpected selection: %v", packed.Passages)
	}
	if strings.Contains(packed.User, "hostel") {
		t.Error("skipped passage leaked into the prompt")
	}
}

func TestPackAlwaysKeepsTopPassage(t *testing.T) {
	long := strings.Repeat("admission ", 200)
	packer := NewPacker(analyzer.NewTokenizer(false), 5)
	packed := packer.Pack("unilag", "q", []domain.ScoredPassage{scored("d1", "A", long, 0, 1)})

	if len(packed.Passages) != 1 {
		t.Fatalf("expected the top passage to be kept, got %d", len(packed.Passages))
	}
}

func TestPackEmptyPassages(t *testing.T) {
	packer := NewPacker(analyzer.NewTokenizer(false), 100)
	packed := packer.Pack("unilag", "q", nil)
	if len(packed.Passages) != 0 || packed.UsedTokens != 0 {
		t.Errorf("expected empty pack, got %+v", packed)
	}
}

func TestPassageBlockFallsBackToDocumentID(t *testing.T) {
	block := passageBlock(3, domain.Passage{DocumentID: "doc-9", Text: " text "})
	if block != "[3] doc-9\ntext" {
		t.Errorf("unexpected block %q", block)
	}
}
