package parser

import "gomc/pkg/source"

// Parser consumes the token stream of one source unit.
type Parser struct {
	unit string
	toks []Token
	pos  int
}

// Parse lexes and parses one source unit into its items. Errors carry the
// unit name and span of the offending token.
func Parse(unit, src string) ([]Item, error) {
	p := &Parser{unit: unit, toks: Lex(src)}
	return p.parseItems()
}

func (p *Parser) peek() Token {
	return p.toks[p.pos]
}

func (p *Parser) advance() Token {
	t := p.toks[p.pos]
	if t.Type != EOF {
		p.pos++
	}
	return t
}

func (p *Parser) ident(t Token) Ident {
	return Ident{Literal: t.Lexeme, Unit: p.unit, Span: t.Span}
}

func (p *Parser) errorf(t Token, format string, args ...any) error {
	return source.Errorf(p.unit, t.Span, format, args...)
}

func (p *Parser) parseItems() ([]Item, error) {
	var items []Item
	for {
		switch p.peek().Type {
		case EOF:
			return items, nil
		case EOL, INDENT:
			// Blank lines between items, and indentation with no
			// enclosing function, carry no meaning.
			p.advance()
			continue
		}
		it, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
}

func (p *Parser) parseItem() (Item, error) {
	if p.peek().Type == HASH {
		p.advance()
		called, err := p.expectIdent("macro name")
		if err != nil {
			return nil, err
		}
		args := p.idents()
		if err := p.expectEOL(); err != nil {
			return nil, err
		}
		return &MacroCall{Called: called, Args: args}, nil
	}

	name, err := p.expectIdent("name")
	if err != nil {
		return nil, err
	}

	if p.peek().Type == ASSIGN {
		p.advance()
		if p.peek().Type == IDENT {
			// NAME = VALUE
			value := p.ident(p.advance())
			if err := p.expectEOL(); err != nil {
				return nil, err
			}
			return &Define{Name: name, Value: value}, nil
		}
		// NAME = followed by end of line: a function of no parameters.
		if err := p.expectEOL(); err != nil {
			return nil, err
		}
		body, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		return &Function{Name: name, Body: body}, nil
	}

	args := p.idents()

	if p.peek().Type == ASSIGN {
		p.advance()
		if err := p.expectEOL(); err != nil {
			return nil, err
		}
		body, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		return &Function{Name: name, Params: args, Body: body}, nil
	}

	if err := p.expectEOL(); err != nil {
		return nil, err
	}
	return &Calling{Called: name, Args: args}, nil
}

// parseBody collects indented statements. The body ends at the first line
// that is not indented, is blank, or turns out to be a new definition;
// that line is left for the caller.
func (p *Parser) parseBody() ([]Stmt, error) {
	var body []Stmt
	for {
		mark := p.pos
		if p.peek().Type != INDENT {
			return body, nil
		}
		p.advance()
		st, ok, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		if !ok {
			p.pos = mark
			return body, nil
		}
		body = append(body, st)
	}
}

// parseStmt parses one statement of a function body. ok is false when the
// line is not a statement at all, which terminates the body.
func (p *Parser) parseStmt() (Stmt, bool, error) {
	switch p.peek().Type {
	case HASH:
		p.advance()
		called, err := p.expectIdent("macro name")
		if err != nil {
			return nil, false, err
		}
		args := p.idents()
		if err := p.expectEOL(); err != nil {
			return nil, false, err
		}
		return &MacroCall{Called: called, Args: args}, true, nil
	case IDENT:
		called := p.ident(p.advance())
		args := p.idents()
		if p.peek().Type == ASSIGN {
			// An indented definition starts a new item, not a statement.
			return nil, false, nil
		}
		if err := p.expectEOL(); err != nil {
			return nil, false, err
		}
		return &Calling{Called: called, Args: args}, true, nil
	default:
		return nil, false, nil
	}
}

// idents collects consecutive identifiers.
func (p *Parser) idents() []Ident {
	var ids []Ident
	for p.peek().Type == IDENT {
		ids = append(ids, p.ident(p.advance()))
	}
	return ids
}

func (p *Parser) expectIdent(what string) (Ident, error) {
	if p.peek().Type != IDENT {
		return Ident{}, p.errorf(p.peek(), "expected %s", what)
	}
	return p.ident(p.advance()), nil
}

// expectEOL consumes the end of the current line; end of input counts.
func (p *Parser) expectEOL() error {
	switch p.peek().Type {
	case EOL:
		p.advance()
		return nil
	case EOF:
		return nil
	}
	return p.errorf(p.peek(), "invalid syntax")
}
