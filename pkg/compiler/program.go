package compiler

import (
	"fmt"

	"gomc/pkg/macros"
	"gomc/pkg/vm"
)

// Entry is one compiled program element, in emission order.
type Entry interface {
	entry()
}

// CmdEntry is a machine command.
type CmdEntry struct {
	Cmd vm.Command
}

// MacroEntry is a deferred macro pinned between two commands. It occupies
// no memory; loading turns it into a hook on the address of the command
// that follows it.
type MacroEntry struct {
	Name  string
	Run   macros.Deferred
	Metas []macros.Meta
}

func (CmdEntry) entry()   {}
func (MacroEntry) entry() {}

// Program is the ordered output of a compilation.
type Program []Entry

// Commands returns just the machine commands, in order.
func (p Program) Commands() []vm.Command {
	var cmds []vm.Command
	for _, e := range p {
		if ce, ok := e.(CmdEntry); ok {
			cmds = append(cmds, ce.Cmd)
		}
	}
	return cmds
}

// Load writes the program into the runner's memory starting at entry and
// registers each deferred macro as a hook on the address of the command
// that follows it. A macro after the last command hooks the address one
// past it, which execution reaches right before the halting fetch.
func (p Program) Load(r *vm.Runner, entry vm.Value) error {
	buf := r.Mem.Bytes()
	at := int(entry)
	for _, e := range p {
		switch e := e.(type) {
		case CmdEntry:
			if at+vm.CommandSize > len(buf) {
				return fmt.Errorf("program too large for memory")
			}
			e.Cmd.Encode(buf[at : at+vm.CommandSize])
			at += vm.CommandSize
		case MacroEntry:
			if at >= len(buf) {
				return fmt.Errorf("program too large for memory")
			}
			name, run, metas := e.Name, e.Run, e.Metas
			r.AddHook(vm.Value(at), func(m *vm.Memory) error {
				if err := run(m, metas); err != nil {
					return fmt.Errorf("macro %s: %w", name, err)
				}
				return nil
			})
		}
	}
	return nil
}
