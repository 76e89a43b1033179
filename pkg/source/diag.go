package source

import (
	"fmt"
	"strings"
)

// Diagnostic is one (unit, span, message) record of a compile error.
type Diagnostic struct {
	Unit    string
	Span    Span
	Message string
}

// Error is a structured compile error: a primary diagnostic plus any number
// of attached notes (for example the original site of a duplicate
// definition).
type Error struct {
	Diags []Diagnostic
}

// Errorf builds an Error with a single diagnostic.
func Errorf(unit string, span Span, format string, args ...any) *Error {
	return &Error{Diags: []Diagnostic{{
		Unit:    unit,
		Span:    span,
		Message: fmt.Sprintf(format, args...),
	}}}
}

// Append attaches a further diagnostic to e and returns e.
func (e *Error) Append(unit string, span Span, format string, args ...any) *Error {
	e.Diags = append(e.Diags, Diagnostic{
		Unit:    unit,
		Span:    span,
		Message: fmt.Sprintf(format, args...),
	})
	return e
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Diags))
	for i, d := range e.Diags {
		parts[i] = fmt.Sprintf("%s:%d:%d: %s", d.Unit, d.Span.Start.Line, d.Span.Start.Column, d.Message)
	}
	return strings.Join(parts, "; ")
}

// Render formats e against the registered unit buffers: per diagnostic a
// unit:line:col header, the offending source line, and a caret run under
// the span.
func (e *Error) Render(reg *Registry) string {
	var b strings.Builder
	for _, d := range e.Diags {
		fmt.Fprintf(&b, "%s:%d:%d: %s\n", d.Unit, d.Span.Start.Line, d.Span.Start.Column, d.Message)
		if reg == nil {
			continue
		}
		f, err := reg.Lookup(d.Unit)
		if err != nil {
			continue
		}
		line := f.Line(d.Span.Start.Line)
		if line == "" {
			continue
		}
		fmt.Fprintf(&b, "    %s\n", line)
		fmt.Fprintf(&b, "    %s%s\n", strings.Repeat(" ", d.Span.Start.Column-1), strings.Repeat("^", caretWidth(d.Span)))
	}
	return b.String()
}

// caretWidth is the number of carets drawn under a span; spans reaching a
// later line are pointed at with a single caret.
func caretWidth(s Span) int {
	if s.End.Line == s.Start.Line && s.End.Column > s.Start.Column {
		return s.End.Column - s.Start.Column
	}
	return 1
}
