package vm

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// w16 writes a 16-bit value at addr, failing the test on bounds errors.
func w16(t *testing.T, m *Memory, addr, val Value) {
	t.Helper()
	if err := m.Write16(addr, val); err != nil {
		t.Fatalf("Write16(%s): %v", addr, err)
	}
}

// r16 reads the 16-bit cell at addr, failing the test on bounds errors.
func r16(t *testing.T, m *Memory, addr Value) Value {
	t.Helper()
	v, err := m.Read16(addr)
	if err != nil {
		t.Fatalf("Read16(%s): %v", addr, err)
	}
	return v
}

// loadCommands encodes cmds into m back to back starting at addr.
func loadCommands(t *testing.T, m *Memory, addr Value, cmds ...Command) {
	t.Helper()
	at := int(addr)
	for _, c := range cmds {
		if at+CommandSize > m.Len() {
			t.Fatalf("loadCommands: command at %#x past end of memory", at)
		}
		c.Encode(m.Bytes()[at : at+CommandSize])
		at += CommandSize
	}
}

func TestRunSetAndHalt(t *testing.T) {
	m := NewMemory()
	loadCommands(t, m, 0xF000,
		Command{Op: OpSET, A: 0x10, B: 7},
		Command{Op: OpSET, A: 0x12, B: 0},
	)

	r := NewRunner(m)
	if err := r.Run(0xF000); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !r.Halted {
		t.Fatalf("Run finished without halting")
	}
	if !errors.Is(r.Cause, ErrInvalidOpcode) {
		t.Errorf("Cause = %v; want ErrInvalidOpcode", r.Cause)
	}
	if got := r16(t, m, 0x10); got != 7 {
		t.Errorf("mem[0x10] = %s; want 0x0007", got)
	}
	if got := r16(t, m, 0x12); got != 0 {
		t.Errorf("mem[0x12] = %s; want 0x0000", got)
	}
	// Halted on the fetch after two commands; the counter stays there.
	if got := r.PC(); got != 0xF00A {
		t.Errorf("PC = %s; want 0xf00a", got)
	}
}

func TestRunSubWraps(t *testing.T) {
	m := NewMemory()
	w16(t, m, 0x10, 5)
	w16(t, m, 0x12, 7)
	loadCommands(t, m, 0xF000, Command{Op: OpSUB, A: 0x10, B: 0x12})

	r := NewRunner(m)
	if err := r.Run(0xF000); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := r16(t, m, 0x10); got != 0xFFFE {
		t.Errorf("mem[0x10] = %s; want 0xfffe", got)
	}
}

func TestRunLod(t *testing.T) {
	m := NewMemory()
	w16(t, m, 0x22, 0x10)
	w16(t, m, 0x10, 99)
	loadCommands(t, m, 0xF000, Command{Op: OpLOD, A: 0x20, B: 0x22})

	r := NewRunner(m)
	if err := r.Run(0xF000); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := r16(t, m, 0x20); got != 99 {
		t.Errorf("mem[0x20] = %s; want 0x0063", got)
	}
}

func TestRunStr(t *testing.T) {
	m := NewMemory()
	w16(t, m, 0x30, 0xAB)
	w16(t, m, 0x32, 0x40)
	loadCommands(t, m, 0xF000, Command{Op: OpSTR, A: 0x30, B: 0x32})

	r := NewRunner(m)
	if err := r.Run(0xF000); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := r16(t, m, 0x40); got != 0xAB {
		t.Errorf("mem[0x40] = %s; want 0x00ab", got)
	}
}

func TestJumpByWritingPC(t *testing.T) {
	// Writing T-5 into the PC cell lands execution at T: the advance step
	// re-reads the live cell and adds one command width.
	m := NewMemory()
	loadCommands(t, m, 0xF000, Command{Op: OpSET, A: 0x0000, B: 0x1000 - 5})
	loadCommands(t, m, 0x1000, Command{Op: OpSET, A: 0x50, B: 1})

	r := NewRunner(m)
	if err := r.Run(0xF000); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := r16(t, m, 0x50); got != 1 {
		t.Errorf("mem[0x50] = %s; want 0x0001 (jump target not reached)", got)
	}
	if got := r.PC(); got != 0x1005 {
		t.Errorf("PC = %s; want 0x1005", got)
	}
}

func TestHooksFireInOrderAndOnRevisit(t *testing.T) {
	m := NewMemory()
	// 0xF000: a benign store. 0xF005: jump back to 0xF000.
	loadCommands(t, m, 0xF000,
		Command{Op: OpSET, A: 0x50, B: 7},
		Command{Op: OpSET, A: 0x0000, B: 0xF000 - 5},
	)

	r := NewRunner(m)
	var fired []string
	r.AddHook(0xF000, func(mem *Memory) error {
		fired = append(fired, "a")
		return nil
	})
	r.AddHook(0xF000, func(mem *Memory) error {
		fired = append(fired, "b")
		// Break the loop on the second visit by disarming the jump.
		if len(fired) == 4 {
			Command{Op: OpSET, A: 0x52, B: 9}.Encode(mem.Bytes()[0xF005 : 0xF005+CommandSize])
		}
		return nil
	})

	if err := r.Run(0xF000); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"a", "b", "a", "b"}
	if len(fired) != len(want) {
		t.Fatalf("hooks fired %v; want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("hooks fired %v; want %v", fired, want)
		}
	}
	if got := r16(t, m, 0x52); got != 9 {
		t.Errorf("mem[0x52] = %s; want 0x0009", got)
	}
}

func TestHookErrorIsFatal(t *testing.T) {
	m := NewMemory()
	loadCommands(t, m, 0xF000, Command{Op: OpSET, A: 0x10, B: 1})

	r := NewRunner(m)
	r.AddHook(0xF000, func(mem *Memory) error {
		return errors.New("boom")
	})

	err := r.Run(0xF000)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("Run error = %v; want hook failure", err)
	}
	if r.Halted {
		t.Errorf("Halted = true; hook failures are fatal, not aborts")
	}
}

func TestReservedOpcodeIsFatal(t *testing.T) {
	m := NewMemory()
	loadCommands(t, m, 0xF000, Command{Op: OpUnk1})

	r := NewRunner(m)
	err := r.Run(0xF000)
	if !errors.Is(err, ErrUnimplementedOpcode) {
		t.Fatalf("Run error = %v; want ErrUnimplementedOpcode", err)
	}
	if r.Halted {
		t.Errorf("Halted = true; reserved opcodes are fatal, not aborts")
	}
}

func TestCounterOverflowAborts(t *testing.T) {
	// A command fits at 0xFFFB (its last byte is the last byte of memory),
	// but advancing past it overflows the counter.
	m := NewMemory()
	loadCommands(t, m, 0xFFFB, Command{Op: OpSET, A: 0x10, B: 1})

	r := NewRunner(m)
	if err := r.Run(0xFFFB); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !r.Halted || !errors.Is(r.Cause, ErrOutOfBounds) {
		t.Errorf("Halted = %v, Cause = %v; want clean out-of-bounds abort", r.Halted, r.Cause)
	}
	if got := r16(t, m, 0x10); got != 1 {
		t.Errorf("mem[0x10] = %s; want 0x0001 (command should still execute)", got)
	}
}

func TestFetchPastEndAborts(t *testing.T) {
	m := NewMemory()
	r := NewRunner(m)
	if err := r.Run(0xFFFC); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !r.Halted || !errors.Is(r.Cause, ErrOutOfBounds) {
		t.Errorf("Halted = %v, Cause = %v; want clean out-of-bounds abort", r.Halted, r.Cause)
	}
}

func TestTrace(t *testing.T) {
	m := NewMemory()
	loadCommands(t, m, 0xF000, Command{Op: OpSET, A: 0x10, B: 7})

	r := NewRunner(m)
	var trace bytes.Buffer
	r.Trace = &trace
	if err := r.Run(0xF000); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := trace.String(); !strings.Contains(got, "eval: SET 0x0010 0x0007 at 0xf000") {
		t.Errorf("trace = %q; missing eval line", got)
	}
}

func TestStepAfterHalt(t *testing.T) {
	m := NewMemory()
	r := NewRunner(m)
	if err := r.Run(0xF000); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !r.Halted {
		t.Fatalf("machine should have halted on zeroed memory")
	}
	pc := r.PC()
	if err := r.Step(); err != nil {
		t.Fatalf("Step after halt: %v", err)
	}
	if r.PC() != pc {
		t.Errorf("Step after halt moved PC from %s to %s", pc, r.PC())
	}
}

func TestSetPCRequiresCounterCell(t *testing.T) {
	r := NewRunner(WrapMemory(make([]byte, 1)))
	if err := r.SetPC(0); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("SetPC error = %v; want out of bounds", err)
	}

	r = NewRunner(NewMemory())
	if err := r.SetPC(0x1234); err != nil {
		t.Fatalf("SetPC: %v", err)
	}
	if got := r.PC(); got != 0x1234 {
		t.Errorf("PC = %s; want 0x1234", got)
	}
}
