package vm

import (
	"errors"
	"fmt"
	"io"
)

// Hook is a side effect bound to a memory address. The Runner fires every
// hook registered at the current program counter before decoding there;
// hooks may mutate memory, including the PC cell.
type Hook func(m *Memory) error

// Runner drives the fetch-decode-execute loop over a Memory.
//
// The loop has exactly one graceful exit: a decode failure (invalid opcode,
// or the counter running off the end of the buffer) sets Halted and records
// the Cause, and Run returns nil. Hook failures, reserved-opcode execution
// and out-of-bounds accesses inside an opcode are fatal and returned as
// errors instead.
type Runner struct {
	Mem *Memory

	Halted bool
	Cause  error

	// Trace, when non-nil, receives one line per executed command.
	Trace io.Writer

	hooks map[Value][]Hook
}

func NewRunner(mem *Memory) *Runner {
	return &Runner{Mem: mem, hooks: make(map[Value][]Hook)}
}

// AddHook binds h to addr. Multiple hooks on one address fire in
// registration order, once per loop iteration whose program counter equals
// addr, every time that address is revisited.
func (r *Runner) AddHook(addr Value, h Hook) {
	if r.hooks == nil {
		r.hooks = make(map[Value][]Hook)
	}
	r.hooks[addr] = append(r.hooks[addr], h)
}

// PC reads the live program counter cell.
func (r *Runner) PC() Value {
	pc, err := r.Mem.Read16(PCAddr)
	if err != nil {
		return 0
	}
	return pc
}

// SetPC writes the program counter cell.
func (r *Runner) SetPC(pc Value) error {
	return r.Mem.Write16(PCAddr, pc)
}

// Step runs one loop iteration: read the counter, fire due hooks, decode,
// execute, then advance the live counter by one command width.
func (r *Runner) Step() error {
	if r.Halted {
		return nil
	}

	pc, err := r.Mem.Read16(PCAddr)
	if err != nil {
		return err
	}

	for _, h := range r.hooks[pc] {
		if err := h(r.Mem); err != nil {
			return fmt.Errorf("hook at %s: %w", pc, err)
		}
	}

	if int(pc)+CommandSize > r.Mem.Len() {
		r.halt(fmt.Errorf("%w: fetch at %s", ErrOutOfBounds, pc))
		return nil
	}
	cmd, err := DecodeCommand(r.Mem.Bytes()[pc:])
	if err != nil {
		if errors.Is(err, ErrInvalidOpcode) {
			r.halt(fmt.Errorf("%w at %s", err, pc))
			return nil
		}
		return err
	}

	if r.Trace != nil {
		fmt.Fprintf(r.Trace, "eval: %s at %s\n", cmd, pc)
	}

	if err := cmd.Execute(r.Mem); err != nil {
		return fmt.Errorf("at %s: %w", pc, err)
	}

	// The executed command or a hook may have rewritten the counter, so
	// advance whatever is live in the cell now.
	cur, err := r.Mem.Read16(PCAddr)
	if err != nil {
		return err
	}
	next, ok := cur.NextCommand()
	if !ok {
		r.halt(fmt.Errorf("%w: program counter overflow past %s", ErrOutOfBounds, cur))
		return nil
	}
	return r.Mem.Write16(PCAddr, next)
}

func (r *Runner) halt(cause error) {
	r.Halted = true
	r.Cause = cause
}

// Run writes the entry address into the PC cell and steps until the machine
// halts or a fatal error occurs.
func (r *Runner) Run(entry Value) error {
	if err := r.SetPC(entry); err != nil {
		return err
	}
	for !r.Halted {
		if err := r.Step(); err != nil {
			return err
		}
	}
	return nil
}
