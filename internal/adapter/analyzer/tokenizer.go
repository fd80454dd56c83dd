package analyzer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Tokenizer turns document prose and questions into comparable terms: case and
// diacritics are folded, possessives dropped, and stopwords removed, with
// optional stemming.
type Tokenizer struct {
	stopwords map[string]struct{}
	useStem   bool
}

// NewTokenizer creates a new Tokenizer.
func NewTokenizer(useStemming bool) *Tokenizer {
	return &Tokenizer{
		stopwords: defaultStopwords(),
		useStem:   useStemming,
	}
}

// Tokenize splits text into terms.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(fold(text))
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.TrimSuffix(word, "'s")
		word = strings.Trim(word, "'")
		if utf8.RuneCountInString(word) < 2 {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		if t.useStem {
			word = Stem(word)
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// CountTokens returns an approximate token count for LLM budget estimation.
func (t *Tokenizer) CountTokens(text string) int {
	words := splitWords(text)
	if len(words) == 0 {
		return 0
	}
	// average English word is about 1.3 BPE tokens
	return int(float64(len(words)) * 1.3)
}

// fold lowercases text and strips combining marks, so "Ọbáfẹ́mi" and
// "Obafemi" give the same term.
func fold(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}

// splitWords splits text on anything but letters, digits and inner
// apostrophes. Curly apostrophes count as straight ones.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			current.WriteRune(r)
		case (r == '\'' || r == '’') && current.Len() > 0:
			current.WriteRune('\'')
		default:
			flush()
		}
	}
	flush()

	return words
}

// defaultStopwords returns common English function words plus the filler
// students put around questions ("please tell me ...").
func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "you", "your", "we", "our",
		"they", "their", "she", "her", "his", "if", "or", "so",
		"no", "can", "do", "does", "did", "been", "being", "would",
		"could", "should", "may", "might", "shall", "which",
		"who", "whom", "what", "when", "where", "why", "how", "all",
		"each", "every", "both", "few", "more", "most", "other",
		"some", "such", "than", "too", "very", "just", "also",
		"there", "any", "about", "into", "me", "my", "i", "am",
		"these", "those", "them", "then", "here", "us",
		"please", "tell", "know", "want", "kindly", "explain",
		"hi", "hello", "thanks", "thank",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
