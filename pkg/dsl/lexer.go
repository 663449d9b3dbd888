package dsl

import (
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokString
	tokIdent
	tokLBrace
	tokRBrace
	tokComma
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokString:
		return "string literal"
	case tokIdent:
		return "identifier"
	case tokLBrace:
		return "'{'"
	case tokRBrace:
		return "'}'"
	case tokComma:
		return "','"
	default:
		return "unknown token"
	}
}

type token struct {
	kind  tokenKind
	pos   Pos
	text  string // identifier name or unquoted string value
	flags string // string literal suffix
}

// describe names the token for error messages.
func (t token) describe() string {
	switch t.kind {
	case tokIdent:
		return "identifier " + strconv.Quote(t.text)
	case tokString:
		return "string literal " + strconv.Quote(t.text)
	default:
		return t.kind.String()
	}
}

type lexer struct {
	src  string
	off  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) pos() Pos {
	return Pos{Offset: l.off, Line: l.line, Column: l.col}
}

func (l *lexer) peekByte() byte {
	if l.off >= len(l.src) {
		return 0
	}
	return l.src[l.off]
}

func (l *lexer) advance() byte {
	c := l.src[l.off]
	l.off++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *lexer) skipSpaceAndComments() {
	for l.off < len(l.src) {
		c := l.peekByte()
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.advance()
		case c == '/' && strings.HasPrefix(l.src[l.off:], "//"):
			for l.off < len(l.src) && l.peekByte() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpaceAndComments()
	start := l.pos()
	if l.off >= len(l.src) {
		return token{kind: tokEOF, pos: start}, nil
	}

	c := l.peekByte()
	switch {
	case c == '{':
		l.advance()
		return token{kind: tokLBrace, pos: start}, nil
	case c == '}':
		l.advance()
		return token{kind: tokRBrace, pos: start}, nil
	case c == ',':
		l.advance()
		return token{kind: tokComma, pos: start}, nil
	case c == '"':
		return l.quoted(start)
	case c == '`':
		return l.raw(start)
	case isLetter(c):
		for l.off < len(l.src) && (isLetter(l.peekByte()) || isDigit(l.peekByte())) {
			l.advance()
		}
		return token{kind: tokIdent, pos: start, text: l.src[start.Offset:l.off]}, nil
	default:
		return token{}, errorf(start, "unexpected character %q", rune(c))
	}
}

// quoted scans a double-quoted literal with Go escape rules.
func (l *lexer) quoted(start Pos) (token, error) {
	l.advance()
	for {
		if l.off >= len(l.src) || l.peekByte() == '\n' {
			return token{}, errorf(start, "unterminated string literal")
		}
		c := l.advance()
		if c == '\\' {
			if l.off >= len(l.src) {
				return token{}, errorf(start, "unterminated string literal")
			}
			l.advance()
			continue
		}
		if c == '"' {
			break
		}
	}

	value, err := strconv.Unquote(l.src[start.Offset:l.off])
	if err != nil {
		return token{}, errorf(start, "invalid string literal %s (use `raw` strings for regex escapes)", l.src[start.Offset:l.off])
	}
	return token{kind: tokString, pos: start, text: value, flags: l.flags()}, nil
}

// raw scans a backquoted literal. Its content is taken verbatim.
func (l *lexer) raw(start Pos) (token, error) {
	l.advance()
	for {
		if l.off >= len(l.src) {
			return token{}, errorf(start, "unterminated raw string literal")
		}
		if l.advance() == '`' {
			break
		}
	}
	value := l.src[start.Offset+1 : l.off-1]
	return token{kind: tokString, pos: start, text: value, flags: l.flags()}, nil
}

// flags consumes the letters directly following a closing quote.
func (l *lexer) flags() string {
	begin := l.off
	for l.off < len(l.src) && isLetter(l.peekByte()) {
		l.advance()
	}
	return l.src[begin:l.off]
}

func isLetter(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
