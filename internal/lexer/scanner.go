package lexer

import (
	"fmt"
	"unicode"
)

type TokenType string

const (
	// Keywords
	TokenNamespace TokenType = "NAMESPACE"
	TokenClass     TokenType = "CLASS"
	TokenFn        TokenType = "FN"
	TokenVar       TokenType = "VAR"
	TokenLet       TokenType = "LET"
	TokenUse       TokenType = "USE"
	TokenIf        TokenType = "IF"
	TokenElse      TokenType = "ELSE"
	TokenWhile     TokenType = "WHILE"
	TokenReturn    TokenType = "RETURN"
	TokenLog       TokenType = "LOG"

	// Literals
	TokenTrue   TokenType = "TRUE"
	TokenFalse  TokenType = "FALSE"
	TokenNil    TokenType = "NIL"
	TokenIdent  TokenType = "IDENT"
	TokenString TokenType = "STRING"
	TokenNumber TokenType = "NUMBER"

	// Symbols
	TokenLParen      TokenType = "("
	TokenRParen      TokenType = ")"
	TokenLBrace      TokenType = "{"
	TokenRBrace      TokenType = "}"
	TokenLBracket    TokenType = "["
	TokenRBracket    TokenType = "]"
	TokenPlus        TokenType = "+"
	TokenMinus       TokenType = "-"
	TokenStar        TokenType = "*"
	TokenSlash       TokenType = "/"
	TokenPercent     TokenType = "%"
	TokenEqual       TokenType = "="
	TokenDoubleEqual TokenType = "=="
	TokenNotEqual    TokenType = "!="
	TokenLT          TokenType = "<"
	TokenGT          TokenType = ">"
	TokenLE          TokenType = "<="
	TokenGE          TokenType = ">="
	TokenAnd         TokenType = "&&"
	TokenOr          TokenType = "||"
	TokenNot         TokenType = "!"
	TokenComma       TokenType = ","
	TokenDot         TokenType = "."
	TokenColon       TokenType = ":"
	TokenSemicolon   TokenType = ";"

	TokenError TokenType = "ERROR"
	TokenEOF   TokenType = "EOF"
)

var keywords = map[string]TokenType{
	"namespace": TokenNamespace,
	"class":     TokenClass,
	"fn":        TokenFn,
	"var":       TokenVar,
	"let":       TokenLet,
	"use":       TokenUse,
	"if":        TokenIf,
	"else":      TokenElse,
	"while":     TokenWhile,
	"return":    TokenReturn,
	"log":       TokenLog,
	"true":      TokenTrue,
	"false":     TokenFalse,
	"nil":       TokenNil,
}

// Token carries its lexeme and 1-based source position.
type Token struct {
	Type   TokenType
	Lexeme string
	Line   int
	Col    int
}

func (t Token) String() string {
	return fmt.Sprintf("[%s] '%s' at %d:%d", t.Type, t.Lexeme, t.Line, t.Col)
}

type Scanner struct {
	source  string
	tokens  []Token
	start   int
	current int
	line    int
	col     int // column of the next unread byte, 1-based
	tokCol  int // column where the current token started
}

func NewScanner(source string) *Scanner {
	return &Scanner{
		source: source,
		line:   1,
		col:    1,
	}
}

func (s *Scanner) ScanTokens() []Token {
	for !s.isAtEnd() {
		s.skipWhitespace()
		s.start = s.current
		s.tokCol = s.col
		if s.isAtEnd() {
			break
		}
		s.scanToken()
	}
	s.tokens = append(s.tokens, Token{Type: TokenEOF, Line: s.line, Col: s.col})
	return s.tokens
}

func (s *Scanner) scanToken() {
	c := s.advance()
	switch c {
	case '(':
		s.addToken(TokenLParen)
	case ')':
		s.addToken(TokenRParen)
	case '{':
		s.addToken(TokenLBrace)
	case '}':
		s.addToken(TokenRBrace)
	case '[':
		s.addToken(TokenLBracket)
	case ']':
		s.addToken(TokenRBracket)
	case '+':
		s.addToken(TokenPlus)
	case '-':
		s.addToken(TokenMinus)
	case '*':
		s.addToken(TokenStar)
	case '/':
		if s.match('/') {
			for s.peek() != '\n' && !s.isAtEnd() {
				s.advance()
			}
		} else {
			s.addToken(TokenSlash)
		}
	case '%':
		s.addToken(TokenPercent)
	case '=':
		if s.match('=') {
			s.addToken(TokenDoubleEqual)
		} else {
			s.addToken(TokenEqual)
		}
	case '!':
		if s.match('=') {
			s.addToken(TokenNotEqual)
		} else {
			s.addToken(TokenNot)
		}
	case '<':
		if s.match('=') {
			s.addToken(TokenLE)
		} else {
			s.addToken(TokenLT)
		}
	case '>':
		if s.match('=') {
			s.addToken(TokenGE)
		} else {
			s.addToken(TokenGT)
		}
	case '&':
		if s.match('&') {
			s.addToken(TokenAnd)
		} else {
			s.errorToken("unexpected character '&'")
		}
	case '|':
		if s.match('|') {
			s.addToken(TokenOr)
		} else {
			s.errorToken("unexpected character '|'")
		}
	case '"':
		s.string()
	case ',':
		s.addToken(TokenComma)
	case '.':
		s.addToken(TokenDot)
	case ':':
		s.addToken(TokenColon)
	case ';':
		s.addToken(TokenSemicolon)
	default:
		if isDigit(c) {
			s.number()
		} else if isAlpha(c) {
			s.identifier()
		} else {
			s.errorToken(fmt.Sprintf("unexpected character %q", c))
		}
	}
}

func (s *Scanner) identifier() {
	for isAlphaNumeric(s.peek()) {
		s.advance()
	}
	text := s.source[s.start:s.current]
	if kw, ok := keywords[text]; ok {
		s.addToken(kw)
		return
	}
	s.addToken(TokenIdent)
}

func (s *Scanner) number() {
	for isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	s.addToken(TokenNumber)
}

func (s *Scanner) string() {
	for s.peek() != '"' && !s.isAtEnd() {
		if s.peek() == '\n' {
			s.line++
			s.col = 0
		}
		s.advance()
	}
	if s.isAtEnd() {
		s.errorToken("unterminated string")
		return
	}
	s.advance()
	value := s.source[s.start+1 : s.current-1]
	s.tokens = append(s.tokens, Token{Type: TokenString, Lexeme: value, Line: s.line, Col: s.tokCol})
}

func (s *Scanner) addToken(t TokenType) {
	text := s.source[s.start:s.current]
	s.tokens = append(s.tokens, Token{Type: t, Lexeme: text, Line: s.line, Col: s.tokCol})
}

func (s *Scanner) errorToken(msg string) {
	s.tokens = append(s.tokens, Token{Type: TokenError, Lexeme: msg, Line: s.line, Col: s.tokCol})
}

func (s *Scanner) match(expected byte) bool {
	if s.isAtEnd() || s.source[s.current] != expected {
		return false
	}
	s.current++
	s.col++
	return true
}

func (s *Scanner) advance() byte {
	s.current++
	s.col++
	return s.source[s.current-1]
}

func (s *Scanner) peek() byte {
	if s.isAtEnd() {
		return '\000'
	}
	return s.source[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.source) {
		return '\000'
	}
	return s.source[s.current+1]
}

func (s *Scanner) isAtEnd() bool {
	return s.current >= len(s.source)
}

func (s *Scanner) skipWhitespace() {
	for !s.isAtEnd() && unicode.IsSpace(rune(s.peek())) {
		if s.peek() == '\n' {
			s.line++
			s.col = 0
		}
		s.advance()
	}
}

func isAlpha(c byte) bool {
	return unicode.IsLetter(rune(c)) || c == '_'
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || unicode.IsDigit(rune(c))
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
