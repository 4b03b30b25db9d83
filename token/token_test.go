package token

import (
	"testing"
)

func TestCreateToken(t *testing.T) {
	tok := Create(LPA, 4, 4)
	if tok.Kind != LPA || tok.Lexeme != "(" || tok.First != 4 || tok.Last != 4 {
		t.Errorf("unexpected token: %v", tok)
	}
}

func TestKeywordsAreClassified(t *testing.T) {
	keywords := []string{
		"active", "class", "spawn", "if", "elif", "else", "while", "foreach",
		"in", "break", "continue", "fun", "from", "import", "true", "false",
		"nil", "and", "or", "not", "void", "this", "return",
	}
	for _, keyword := range keywords {
		if _, ok := KeyWords[keyword]; !ok {
			t.Errorf("keyword %q is not classified", keyword)
		}
	}
	if len(KeyWords) != len(keywords) {
		t.Errorf("unexpected number of keywords: %d", len(KeyWords))
	}
}

func TestLiteralTokens(t *testing.T) {
	intTok := CreateInt(42, "42", 0, 1)
	if intTok.Kind != INT || intTok.Int != 42 {
		t.Errorf("unexpected int token: %v", intTok)
	}

	floatTok := CreateFloat(1.5, "1.5", 0, 2)
	if floatTok.Kind != FLOAT || floatTok.Float != 1.5 {
		t.Errorf("unexpected float token: %v", floatTok)
	}

	strTok := CreateString("hello", 0, 6)
	if strTok.Kind != STRING || strTok.Lexeme != "hello" {
		t.Errorf("unexpected string token: %v", strTok)
	}
}
