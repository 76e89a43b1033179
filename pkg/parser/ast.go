package parser

import "gomc/pkg/source"

// Ident is one identifier with the unit and span it came from.
type Ident struct {
	Literal string
	Unit    string
	Span    source.Span
}

func (id Ident) String() string { return id.Literal }

// Item is a top-level source item.
type Item interface {
	item()
}

// Stmt is a statement allowed inside a function body.
type Stmt interface {
	stmt()
}

// Define binds a name to a value for the rest of the unit:
//
//	NAME = VALUE
type Define struct {
	Name  Ident
	Value Ident
}

// Function is a named statement block, inlined at each call site:
//
//	NAME PARAM... =
//		STMT...
//
// The body runs to the first line that is not indented; it may be empty.
type Function struct {
	Name   Ident
	Params []Ident
	Body   []Stmt
}

// Calling is an instruction or function call: `NAME ARG...`.
type Calling struct {
	Called Ident
	Args   []Ident
}

// MacroCall is a compiler directive: `#NAME ARG...`.
type MacroCall struct {
	Called Ident
	Args   []Ident
}

func (*Define) item()    {}
func (*Function) item()  {}
func (*Calling) item()   {}
func (*MacroCall) item() {}

func (*Calling) stmt()   {}
func (*MacroCall) stmt() {}
