package parser

import (
	"unicode"

	"gomc/pkg/source"
)

// Lexer holds the scanning state for a single pass over one source unit.
type Lexer struct {
	src       []rune
	pos       source.Position
	lineStart bool // the next token is the first on its line
	stmtStart bool // a `#` here introduces a macro, anywhere else it is an ident rune
}

func newLexer(src string) *Lexer {
	return &Lexer{
		src:       []rune(src),
		pos:       source.Position{Line: 1, Column: 1},
		lineStart: true,
		stmtStart: true,
	}
}

// Lex scans src into a flat token stream. The final token is always EOF.
// Every character is legal somewhere in the grammar, so scanning cannot
// fail.
func Lex(src string) []Token {
	l := newLexer(src)
	var toks []Token
	for {
		t := l.next()
		toks = append(toks, t)
		if t.Type == EOF {
			return toks
		}
	}
}

func (l *Lexer) peek() rune {
	if l.pos.Offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos.Offset]
}

func (l *Lexer) advance() rune {
	if l.pos.Offset >= len(l.src) {
		return 0
	}
	r := l.src[l.pos.Offset]
	l.pos.Offset++
	if r == '\n' {
		l.pos.Line++
		l.pos.Column = 1
	} else {
		l.pos.Column++
	}
	return r
}

func (l *Lexer) next() Token {
	for {
		if l.lineStart {
			l.lineStart = false
			if t, ok := l.scanIndent(); ok {
				return t
			}
		}
		l.skipSpace()
		start := l.pos
		switch r := l.peek(); {
		case r == 0:
			return Token{Type: EOF, Span: source.Span{Start: start, End: start}}
		case r == '\n':
			l.advance()
			l.lineStart = true
			l.stmtStart = true
			return Token{Type: EOL, Lexeme: "\n", Span: source.Span{Start: start, End: l.pos}}
		case r == ';':
			l.skipComment()
			continue
		case r == '=':
			l.advance()
			l.stmtStart = false
			return Token{Type: ASSIGN, Lexeme: "=", Span: source.Span{Start: start, End: l.pos}}
		case r == '#' && l.stmtStart:
			l.advance()
			l.stmtStart = false
			return Token{Type: HASH, Lexeme: "#", Span: source.Span{Start: start, End: l.pos}}
		default:
			l.stmtStart = false
			return l.scanIdent(start)
		}
	}
}

// scanIndent recognizes a line-leading tab or run of 4 spaces. It leaves
// stmtStart set: the statement begins after the indent.
func (l *Lexer) scanIndent() (Token, bool) {
	start := l.pos
	if l.peek() == '\t' {
		l.advance()
		return Token{Type: INDENT, Lexeme: "\t", Span: source.Span{Start: start, End: l.pos}}, true
	}
	if l.pos.Offset+4 > len(l.src) {
		return Token{}, false
	}
	for i := 0; i < 4; i++ {
		if l.src[l.pos.Offset+i] != ' ' {
			return Token{}, false
		}
	}
	for i := 0; i < 4; i++ {
		l.advance()
	}
	return Token{Type: INDENT, Lexeme: "    ", Span: source.Span{Start: start, End: l.pos}}, true
}

func (l *Lexer) scanIdent(start source.Position) Token {
	for isIdentRune(l.peek()) {
		l.advance()
	}
	return Token{
		Type:   IDENT,
		Lexeme: string(l.src[start.Offset:l.pos.Offset]),
		Span:   source.Span{Start: start, End: l.pos},
	}
}

// skipSpace consumes horizontal whitespace. Newlines are tokens, not
// whitespace.
func (l *Lexer) skipSpace() {
	for {
		switch l.peek() {
		case ' ', '\t', '\r':
			l.advance()
		default:
			return
		}
	}
}

// skipComment consumes a `;` comment up to, but not including, the
// newline that ends it.
func (l *Lexer) skipComment() {
	for l.peek() != '\n' && l.peek() != 0 {
		l.advance()
	}
}

// isIdentRune reports whether r can appear inside an identifier: anything
// but whitespace, `=` and `;`.
func isIdentRune(r rune) bool {
	return r != 0 && r != '=' && r != ';' && !unicode.IsSpace(r)
}
