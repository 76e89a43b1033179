// Package source tracks the text of every compiled source unit and the
// spans compile diagnostics point into.
package source

import (
	"errors"
	"strings"
)

var ErrUnitNotFound = errors.New("source unit not found")

// Position is a location inside a source unit.
type Position struct {
	Offset int // rune offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Span is a half-open [Start, End) range inside a single source unit.
type Span struct {
	Start Position
	End   Position
}

// Union returns the smallest span covering both s and o.
func (s Span) Union(o Span) Span {
	out := s
	if o.Start.Offset < out.Start.Offset {
		out.Start = o.Start
	}
	if o.End.Offset > out.End.Offset {
		out.End = o.End
	}
	return out
}

// File is one registered source unit: an immutable named text buffer.
type File struct {
	Name string
	Text string

	lines []string
}

// NewFile builds a File and indexes its lines for rendering.
func NewFile(name, text string) *File {
	return &File{Name: name, Text: text, lines: strings.Split(text, "\n")}
}

// Line returns the 1-based line n without its trailing newline, or "" if n
// is out of range.
func (f *File) Line(n int) string {
	if n < 1 || n > len(f.lines) {
		return ""
	}
	return f.lines[n-1]
}

// Registry holds every source unit a compilation has seen, in registration
// order. Registering a name twice replaces the buffer but keeps its slot.
type Registry struct {
	files map[string]*File
	order []string
}

func NewRegistry() *Registry {
	return &Registry{files: make(map[string]*File)}
}

func (r *Registry) Register(name, text string) *File {
	f := NewFile(name, text)
	if _, ok := r.files[name]; !ok {
		r.order = append(r.order, name)
	}
	r.files[name] = f
	return f
}

func (r *Registry) Lookup(name string) (*File, error) {
	f, ok := r.files[name]
	if !ok {
		return nil, ErrUnitNotFound
	}
	return f, nil
}

// Names returns the registered unit names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
