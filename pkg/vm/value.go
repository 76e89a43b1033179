// Package vm implements the byte-addressable virtual machine: the 16-bit
// value space, the six-opcode instruction set and its 5-byte encoding, flat
// memory whose address 0 holds the live program counter, and the runner
// that drives the fetch-decode-execute loop.
package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is the machine's single 16-bit value space; the same type serves as
// literal constant and as memory address.
type Value uint16

func (v Value) String() string {
	return fmt.Sprintf("0x%04x", uint16(v))
}

// NextCommand returns the address one command width past v; ok is false
// when the addition overflows the 16-bit space.
func (v Value) NextCommand() (Value, bool) {
	next := uint32(v) + CommandSize
	if next > 0xFFFF {
		return 0, false
	}
	return Value(next), true
}

// ParseValue reads a numeric literal: decimal by default, or hexadecimal,
// binary, octal with a 0x, 0b, 0o prefix.
func ParseValue(s string) (Value, error) {
	base := 10
	digits := s
	switch {
	case strings.HasPrefix(s, "0x"):
		base, digits = 16, s[2:]
	case strings.HasPrefix(s, "0b"):
		base, digits = 2, s[2:]
	case strings.HasPrefix(s, "0o"):
		base, digits = 8, s[2:]
	}
	n, err := strconv.ParseUint(digits, base, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return Value(n), nil
}
