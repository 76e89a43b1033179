package vm

import "fmt"

// Op is a 1-byte opcode. Codes 1 and 4 are reserved: the decoder accepts
// them, but executing one is an error.
type Op uint8

const (
	OpUnk1 Op = 1 // reserved
	OpSUB  Op = 2
	OpSET  Op = 3
	OpUnk2 Op = 4 // reserved
	OpLOD  Op = 5
	OpSTR  Op = 6
)

// mnemonics maps source mnemonics to opcodes. The reserved codes have none.
var mnemonics = map[string]Op{
	"SUB": OpSUB,
	"SET": OpSET,
	"LOD": OpLOD,
	"STR": OpSTR,
}

// ParseOp resolves a source mnemonic to its opcode.
func ParseOp(s string) (Op, bool) {
	op, ok := mnemonics[s]
	return op, ok
}

// Valid reports whether op is a code the decoder accepts.
func (op Op) Valid() bool {
	return op >= OpUnk1 && op <= OpSTR
}

func (op Op) String() string {
	switch op {
	case OpUnk1:
		return "UNK1"
	case OpSUB:
		return "SUB"
	case OpSET:
		return "SET"
	case OpUnk2:
		return "UNK2"
	case OpLOD:
		return "LOD"
	case OpSTR:
		return "STR"
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}
