// Package macros implements the compiler directives reachable with `#`.
//
// A macro either runs while its call site is being compiled (Preprocess)
// or is planted in the program and runs when execution reaches its
// position (Deferred).
package macros

import (
	"fmt"
	"io"
	"os"

	"gomc/pkg/parser"
	"gomc/pkg/vm"
)

// Output receives everything deferred macros print. Tests and the monitor
// redirect it.
var Output io.Writer = os.Stdout

// Meta is one macro argument as captured at compile time: the source
// identifier plus the address it resolved to, when it resolved at all.
type Meta struct {
	ID  parser.Ident
	Val *vm.Value
}

// Deferred runs against live memory when execution reaches the macro's
// position in the program.
type Deferred func(m *vm.Memory, args []Meta) error

// Compiler is the surface a preprocessing macro needs from the compiler.
type Compiler interface {
	// IncludeUnit loads and compiles another source unit. site names the
	// identifier that asked for it, for error reporting.
	IncludeUnit(name string, site parser.Ident) error
}

// Preprocess runs while the macro call is being compiled.
type Preprocess func(c Compiler, args []parser.Ident) error

// Macro is one directive. Exactly one of the two hooks is set.
type Macro struct {
	Deferred   Deferred
	Preprocess Preprocess
}

var table = map[string]Macro{
	"print_mem": {Deferred: printMem},
	"include":   {Preprocess: include},
}

// Lookup finds a macro by name.
func Lookup(name string) (Macro, bool) {
	mac, ok := table[name]
	return mac, ok
}

// printMem writes one line per argument with the current content of the
// addressed cell. Arguments that never resolved to an address print `?`.
func printMem(m *vm.Memory, args []Meta) error {
	for _, a := range args {
		if a.Val == nil {
			if _, err := fmt.Fprintf(Output, "%s: ?\n", a.ID.Literal); err != nil {
				return err
			}
			continue
		}
		v, err := m.Read16(*a.Val)
		if err != nil {
			return fmt.Errorf("%s: %w", a.ID.Literal, err)
		}
		if _, err := fmt.Fprintf(Output, "%s: %s\n", a.ID.Literal, v); err != nil {
			return err
		}
	}
	return nil
}

// include pulls every named unit into the compilation, in argument order.
func include(c Compiler, args []parser.Ident) error {
	for _, a := range args {
		if err := c.IncludeUnit(a.Literal, a); err != nil {
			return err
		}
	}
	return nil
}
