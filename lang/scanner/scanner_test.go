package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ember-lang/ember/lang/token"
)

func scanAll(src string) []Token {
	s := New(src)
	var toks []Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks := scanAll("(){};,.-+*/!!====<<=>>=")
	want := []token.Token{
		token.LEFT_PAREN, token.RIGHT_PAREN, token.LEFT_BRACE, token.RIGHT_BRACE,
		token.SEMICOLON, token.COMMA, token.DOT, token.MINUS, token.PLUS,
		token.STAR, token.SLASH, token.BANG, token.BANG_EQUAL, token.EQUAL_EQUAL,
		token.EQUAL, token.LESS, token.LESS_EQUAL, token.GREATER, token.GREATER_EQUAL, token.EOF,
	}
	require.Len(t, toks, len(want))
	for i, tt := range want {
		assert.Equal(t, tt, toks[i].Type, "token %d", i)
	}
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	toks := scanAll("and class fooBar _x9 while")
	want := []token.Token{token.AND, token.CLASS, token.IDENT, token.IDENT, token.WHILE, token.EOF}
	require.Len(t, toks, len(want))
	for i, tt := range want {
		assert.Equal(t, tt, toks[i].Type, "token %d", i)
	}
	assert.Equal(t, "fooBar", toks[2].Lexeme)
	assert.Equal(t, "_x9", toks[3].Lexeme)
}

func TestScanNumbers(t *testing.T) {
	toks := scanAll("123 1.5 99")
	require.Len(t, toks, 4)
	assert.Equal(t, "123", toks[0].Lexeme)
	assert.Equal(t, "1.5", toks[1].Lexeme)
	assert.Equal(t, token.NUMBER, toks[1].Type)
}

func TestScanStrings(t *testing.T) {
	toks := scanAll(`"foo" "multi
line"`)
	require.Len(t, toks, 3)
	assert.Equal(t, token.STRING, toks[0].Type)
	assert.Equal(t, `"foo"`, toks[0].Lexeme)
	assert.Equal(t, 2, toks[1].Line)
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(`"oops`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.ILLEGAL, toks[0].Type)
	assert.Equal(t, "Unterminated string.", toks[0].Lexeme)
}

func TestScanUnexpectedCharacter(t *testing.T) {
	toks := scanAll("@")
	require.Len(t, toks, 2)
	assert.Equal(t, token.ILLEGAL, toks[0].Type)
	assert.Equal(t, "Unexpected character.", toks[0].Lexeme)
}

func TestScanLineCommentsSkipped(t *testing.T) {
	toks := scanAll("1 // a comment\n2")
	require.Len(t, toks, 3)
	assert.Equal(t, "1", toks[0].Lexeme)
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, "2", toks[1].Lexeme)
	assert.Equal(t, 2, toks[1].Line)
}

func TestScanEOFIsSticky(t *testing.T) {
	s := New("")
	first := s.Scan()
	second := s.Scan()
	assert.Equal(t, token.EOF, first.Type)
	assert.Equal(t, token.EOF, second.Type)
}
