package chunker

import (
	"errors"
	"strings"
	"testing"

	"edurag/internal/domain"
)

func collect(t *testing.T, c *WindowChunker, text string) []string {
	t.Helper()
	seq, err := c.Chunk(text)
	if err != nil {
		t.Fatal(err)
	}
	var out []string
	want := 0
	for ord, chunk := range seq {
		if ord != want {
			t.Fatalf("expected ordinal %d, got %d", want, ord)
		}
		want++
		out = append(out, chunk)
	}
	return out
}

func reconstruct(chunks []string, overlap int) string {
	var b strings.Builder
	for i, c := range chunks {
		if i == 0 {
			b.WriteString(c)
			continue
		}
		b.WriteString(string([]rune(c)[overlap:]))
	}
	return b.String()
}

func TestWindowChunker_Reconstructs(t *testing.T) {
	texts := []string{
		"a",
		"short",
		"Admission requires a WAEC certificate with five credits including Mathematics and English.",
		strings.Repeat("0123456789", 37),
		"Ìbàdàn ń gba àwọn akẹ́kọ̀ọ́ tuntun lọ́dún yìí.",
	}
	params := []struct{ size, overlap int }{
		{1, 0}, {5, 0}, {5, 4}, {10, 3}, {16, 8}, {100, 99}, {1000, 10},
	}

	for _, text := range texts {
		for _, p := range params {
			c := NewWindowChunker(p.size, p.overlap)
			chunks := collect(t, c, text)
			if got := reconstruct(chunks, p.overlap); got != text {
				t.Errorf("size=%d overlap=%d: reconstructed %q, want %q", p.size, p.overlap, got, text)
			}
			for i, chunk := range chunks {
				if n := len([]rune(chunk)); n > p.size || n == 0 {
					t.Errorf("size=%d overlap=%d: chunk %d has %d runes", p.size, p.overlap, i, n)
				}
			}
		}
	}
}

func TestWindowChunker_TrailingChunk(t *testing.T) {
	c := NewWindowChunker(4, 1)
	chunks := collect(t, c, "abcdefghij")

	want := []string{"abcd", "defg", "ghij"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %q", len(want), len(chunks), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d: got %q, want %q", i, chunks[i], want[i])
		}
	}

	chunks = collect(t, NewWindowChunker(4, 0), "abcdefghij")
	if last := chunks[len(chunks)-1]; last != "ij" {
		t.Errorf("expected short trailing chunk %q, got %q", "ij", last)
	}
}

func TestWindowChunker_ShorterThanWindow(t *testing.T) {
	chunks := collect(t, NewWindowChunker(800, 100), "tiny")
	if len(chunks) != 1 || chunks[0] != "tiny" {
		t.Errorf("expected single chunk, got %q", chunks)
	}
}

func TestWindowChunker_Empty(t *testing.T) {
	if chunks := collect(t, NewWindowChunker(10, 2), ""); len(chunks) != 0 {
		t.Errorf("expected no chunks, got %q", chunks)
	}
}

func TestWindowChunker_InvalidParams(t *testing.T) {
	tests := []struct {
		name          string
		size, overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -5, 0},
		{"overlap equals size", 10, 10},
		{"overlap exceeds size", 10, 11},
		{"negative overlap", 10, -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewWindowChunker(tc.size, tc.overlap).Chunk("some text")
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestWindowChunker_Deterministic(t *testing.T) {
	c := NewWindowChunker(7, 2)
	text := "The school fees for the 2024 session are due in September."
	a := collect(t, c, text)
	b := collect(t, c, text)
	if strings.Join(a, "|") != strings.Join(b, "|") {
		t.Error("chunking is not deterministic")
	}
}

func TestWindowChunker_StopsEarly(t *testing.T) {
	seq, err := NewWindowChunker(2, 0).Chunk("abcdefgh")
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for range seq {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("expected to stop after 2 chunks, got %d", n)
	}
}

func TestPassageID(t *testing.T) {
	if PassageID("doc1", 0) != PassageID("doc1", 0) {
		t.Error("passage id is not stable")
	}
	if PassageID("doc1", 0) == PassageID("doc1", 1) {
		t.Error("ordinals should produce distinct ids")
	}
	if len(PassageID("doc1", 0)) != 16 {
		t.Errorf("expected 16 hex chars, got %q", PassageID("doc1", 0))
	}
}
