package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizer_Basic(t *testing.T) {
	tok := NewTokenizer(false)
	tokens := tok.Tokenize("WAEC results are required for Admission")
	assert.Equal(t, []string{"waec", "results", "required", "admission"}, tokens)
}

func TestTokenizer_Stemming(t *testing.T) {
	tok := NewTokenizer(true)

	a := tok.Tokenize("requirements")
	b := tok.Tokenize("requires")
	c := tok.Tokenize("required")
	assert.Equal(t, a, b)
	assert.Equal(t, a, c)

	assert.Equal(t, []string{"run"}, tok.Tokenize("running"))
}

func TestTokenizer_Stopwords(t *testing.T) {
	tok := NewTokenizer(false)
	tokens := tok.Tokenize("the fees of the university")
	assert.Equal(t, []string{"fees", "university"}, tokens)
}

func TestTokenizer_ShortWords(t *testing.T) {
	tok := NewTokenizer(false)
	tokens := tok.Tokenize("x y z hostel")
	assert.Equal(t, []string{"hostel"}, tokens)
}

func TestTokenizer_CountTokens(t *testing.T) {
	tok := NewTokenizer(false)
	assert.Equal(t, 0, tok.CountTokens(""))
	assert.Equal(t, 13, tok.CountTokens("one two three four five six seven eight nine ten"))
}

func TestTokenizer_EmptyInput(t *testing.T) {
	tok := NewTokenizer(true)
	assert.Empty(t, tok.Tokenize(""))
	assert.Empty(t, tok.Tokenize("   \n\t "))
}

func TestTokenizer_FoldsDiacritics(t *testing.T) {
	tok := NewTokenizer(false)
	assert.Equal(t, tok.Tokenize("Obafemi Awolowo University"), tok.Tokenize("Ọbáfẹ́mi Awólọ́wọ̀ University"))
}

func TestTokenizer_Possessives(t *testing.T) {
	tok := NewTokenizer(false)
	assert.Equal(t, []string{"student", "handbook"}, tok.Tokenize("the student's handbook"))
	assert.Equal(t, []string{"registrar", "office"}, tok.Tokenize("Registrar’s office"))
	assert.Equal(t, []string{"don't"}, tok.Tokenize("don't"))
}

func TestTokenizer_QuestionFiller(t *testing.T) {
	tok := NewTokenizer(false)
	assert.Equal(t, []string{"hostel", "fees"}, tok.Tokenize("Hello, please tell me about the hostel fees"))
}

func TestSplitWords(t *testing.T) {
	assert.Equal(t, []string{"post", "UTME", "2024", "cut", "off"}, splitWords("post-UTME (2024): cut_off!"))
	assert.Equal(t, []string{"registrar's", "office"}, splitWords("'registrar's office"))
}

func TestStem(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"requirements", "requir"},
		{"requires", "requir"},
		{"running", "run"},
		{"universities", "university"},
		{"classes", "class"},
		{"class", "class"},
		{"notes", "note"},
		{"note", "note"},
		{"processing", "process"},
		{"processed", "process"},
		{"fees", "fee"},
		{"need", "need"},
		{"bus", "bus"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Stem(tc.in))
		})
	}
}
