// Package scanner tokenizes source text for the compiler to consume: the
// source buffer is scanned lazily, one token at a time, with at most two
// characters of lookahead, over a fixed, ASCII-only token set.
package scanner

import (
	"github.com/ember-lang/ember/lang/token"
)

// Token is a single lexeme: its kind, its source text, and the line on which
// it starts.
type Token struct {
	Type   token.Token
	Lexeme string
	Line   int
}

// Scanner tokenizes a single source buffer. The zero value is not usable;
// construct one with New.
type Scanner struct {
	src   string
	start int // start of the current lexeme
	cur   int // next byte to read
	line  int
}

// New returns a Scanner ready to tokenize src.
func New(src string) *Scanner {
	return &Scanner{src: src, line: 1}
}

// Scan returns the next token in the source. Once the source is exhausted, it
// returns EOF tokens indefinitely.
func (s *Scanner) Scan() Token {
	s.skipWhitespace()
	s.start = s.cur
	if s.atEnd() {
		return s.make(token.EOF)
	}

	c := s.advance()
	switch {
	case isDigit(c):
		return s.number()
	case isAlpha(c):
		return s.identifier()
	}

	switch c {
	case '(':
		return s.make(token.LEFT_PAREN)
	case ')':
		return s.make(token.RIGHT_PAREN)
	case '{':
		return s.make(token.LEFT_BRACE)
	case '}':
		return s.make(token.RIGHT_BRACE)
	case ';':
		return s.make(token.SEMICOLON)
	case ',':
		return s.make(token.COMMA)
	case '.':
		return s.make(token.DOT)
	case '-':
		return s.make(token.MINUS)
	case '+':
		return s.make(token.PLUS)
	case '*':
		return s.make(token.STAR)
	case '/':
		return s.make(token.SLASH)
	case '!':
		if s.match('=') {
			return s.make(token.BANG_EQUAL)
		}
		return s.make(token.BANG)
	case '=':
		if s.match('=') {
			return s.make(token.EQUAL_EQUAL)
		}
		return s.make(token.EQUAL)
	case '<':
		if s.match('=') {
			return s.make(token.LESS_EQUAL)
		}
		return s.make(token.LESS)
	case '>':
		if s.match('=') {
			return s.make(token.GREATER_EQUAL)
		}
		return s.make(token.GREATER)
	case '"':
		return s.string()
	}

	return s.errorToken("Unexpected character.")
}

func (s *Scanner) atEnd() bool { return s.cur >= len(s.src) }

func (s *Scanner) advance() byte {
	c := s.src[s.cur]
	s.cur++
	return c
}

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.src[s.cur]
}

func (s *Scanner) peekNext() byte {
	if s.cur+1 >= len(s.src) {
		return 0
	}
	return s.src[s.cur+1]
}

// match consumes the current byte only if it equals want, and reports
// whether it did.
func (s *Scanner) match(want byte) bool {
	if s.atEnd() || s.src[s.cur] != want {
		return false
	}
	s.cur++
	return true
}

func (s *Scanner) skipWhitespace() {
	for {
		switch s.peek() {
		case ' ', '\r', '\t':
			s.advance()
		case '\n':
			s.line++
			s.advance()
		case '/':
			if s.peekNext() == '/' {
				for s.peek() != '\n' && !s.atEnd() {
					s.advance()
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

func (s *Scanner) string() Token {
	for s.peek() != '"' && !s.atEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		s.advance()
	}
	if s.atEnd() {
		return s.errorToken("Unterminated string.")
	}
	s.advance() // the closing quote
	return s.make(token.STRING)
}

func (s *Scanner) number() Token {
	for isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	return s.make(token.NUMBER)
}

func (s *Scanner) identifier() Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.advance()
	}
	lit := s.src[s.start:s.cur]
	return s.makeWith(token.LookupIdent(lit))
}

func (s *Scanner) make(tt token.Token) Token {
	return s.makeWith(tt)
}

func (s *Scanner) makeWith(tt token.Token) Token {
	return Token{Type: tt, Lexeme: s.src[s.start:s.cur], Line: s.line}
}

func (s *Scanner) errorToken(msg string) Token {
	return Token{Type: token.ILLEGAL, Lexeme: msg, Line: s.line}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z')
}
