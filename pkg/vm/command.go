package vm

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// CommandSize is the fixed width of one encoded command: 1 opcode byte plus
// two little-endian 16-bit operands.
const CommandSize = 5

var (
	ErrInvalidOpcode       = errors.New("invalid opcode")
	ErrUnimplementedOpcode = errors.New("unimplemented opcode")
)

// Command is one decoded instruction.
type Command struct {
	Op Op
	A  Value
	B  Value
}

func (c Command) String() string {
	return fmt.Sprintf("%s %s %s", c.Op, c.A, c.B)
}

// Encode writes the 5-byte form of c to the start of buf.
func (c Command) Encode(buf []byte) {
	buf[0] = byte(c.Op)
	binary.LittleEndian.PutUint16(buf[1:3], uint16(c.A))
	binary.LittleEndian.PutUint16(buf[3:5], uint16(c.B))
}

// DecodeCommand reads the command at the start of buf.
func DecodeCommand(buf []byte) (Command, error) {
	if len(buf) < CommandSize {
		return Command{}, ErrOutOfBounds
	}
	op := Op(buf[0])
	if !op.Valid() {
		return Command{}, fmt.Errorf("%w: 0x%02x", ErrInvalidOpcode, buf[0])
	}
	return Command{
		Op: op,
		A:  Value(binary.LittleEndian.Uint16(buf[1:3])),
		B:  Value(binary.LittleEndian.Uint16(buf[3:5])),
	}, nil
}

// Execute applies the opcode effect to mem. 16-bit arithmetic wraps.
func (c Command) Execute(mem *Memory) error {
	switch c.Op {
	case OpSUB:
		// mem[a] -= mem[b]
		a, err := mem.Read16(c.A)
		if err != nil {
			return err
		}
		b, err := mem.Read16(c.B)
		if err != nil {
			return err
		}
		return mem.Write16(c.A, a-b)

	case OpSET:
		// mem[a] = b
		return mem.Write16(c.A, c.B)

	case OpLOD:
		// mem[a] = mem[mem[b]]
		ptr, err := mem.Read16(c.B)
		if err != nil {
			return err
		}
		data, err := mem.Read16(ptr)
		if err != nil {
			return err
		}
		return mem.Write16(c.A, data)

	case OpSTR:
		// mem[mem[b]] = mem[a]
		data, err := mem.Read16(c.A)
		if err != nil {
			return err
		}
		ptr, err := mem.Read16(c.B)
		if err != nil {
			return err
		}
		return mem.Write16(ptr, data)

	case OpUnk1, OpUnk2:
		return fmt.Errorf("%w: %s", ErrUnimplementedOpcode, c.Op)
	}
	return fmt.Errorf("%w: 0x%02x", ErrInvalidOpcode, uint8(c.Op))
}
