package vm

import (
	"encoding/binary"
	"errors"
)

// MemorySize is the conventional memory size: the full 16-bit address space.
const MemorySize = 65536

const (
	// PCAddr is the address of the 2-byte program counter cell. It is
	// ordinary memory; nothing stops a program from writing it.
	PCAddr Value = 0x0000

	// DefaultEntry is the conventional address programs are loaded and
	// started at.
	DefaultEntry Value = 0xF000
)

var ErrOutOfBounds = errors.New("memory access out of bounds")

// Memory is a flat byte buffer shared by code and data. All 16-bit cell
// access is little-endian and bounds-checked against the buffer length.
type Memory struct {
	buf []byte
}

// NewMemory returns a zero-initialized Memory of the conventional size.
func NewMemory() *Memory {
	return WrapMemory(make([]byte, MemorySize))
}

// WrapMemory wraps an existing buffer without copying it.
func WrapMemory(buf []byte) *Memory {
	return &Memory{buf: buf}
}

func (m *Memory) Len() int { return len(m.buf) }

// Bytes exposes the underlying buffer.
func (m *Memory) Bytes() []byte { return m.buf }

// Read16 reads the little-endian 16-bit cell at addr.
func (m *Memory) Read16(addr Value) (Value, error) {
	if int(addr)+2 > len(m.buf) {
		return 0, ErrOutOfBounds
	}
	return Value(binary.LittleEndian.Uint16(m.buf[addr:])), nil
}

// Write16 writes the little-endian 16-bit cell at addr.
func (m *Memory) Write16(addr, v Value) error {
	if int(addr)+2 > len(m.buf) {
		return ErrOutOfBounds
	}
	binary.LittleEndian.PutUint16(m.buf[addr:], uint16(v))
	return nil
}
