package port

// Tokenizer splits text into normalized terms.
type Tokenizer interface {
	Tokenize(text string) []string

	CountTokens(text string) int
}

// TokenCounter estimates prompt size for a generation budget.
type TokenCounter interface {
	CountTokens(text string) int
}
