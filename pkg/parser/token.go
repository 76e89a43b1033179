// Package parser turns source text into span-carrying items: defines,
// function definitions, calls and macro invocations.
package parser

import (
	"fmt"

	"gomc/pkg/source"
)

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	IDENT  // any run of non-whitespace, non-`=`, non-`;` characters
	ASSIGN // =
	HASH   // statement-initial #
	INDENT // line-leading tab or 4 spaces
	EOL    // end of line
)

var tokenNames = [...]string{
	EOF:    "EOF",
	IDENT:  "IDENT",
	ASSIGN: "ASSIGN",
	HASH:   "HASH",
	INDENT: "INDENT",
	EOL:    "EOL",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token is a single lexical unit produced by the lexer.
type Token struct {
	Type   TokenType
	Lexeme string // the exact source text that was matched
	Span   source.Span
}

func (t Token) String() string {
	return fmt.Sprintf("%-6s %q line %d", t.Type, t.Lexeme, t.Span.Start.Line)
}
