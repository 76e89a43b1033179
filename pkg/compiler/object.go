package compiler

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"gomc/pkg/macros"
	"gomc/pkg/parser"
	"gomc/pkg/vm"
)

// ObjectVersion is the object format version. Decoding rejects anything
// else.
const ObjectVersion = 1

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

// Object is the serialized form of a compiled program.
type Object struct {
	Version int           `cbor:"1,keyasint"`
	Entries []ObjectEntry `cbor:"2,keyasint"`
}

// ObjectEntry is one program entry.
type ObjectEntry struct {
	Kind  int          `cbor:"1,keyasint"`
	Op    uint8        `cbor:"2,keyasint,omitempty"`
	A     uint16       `cbor:"3,keyasint,omitempty"`
	B     uint16       `cbor:"4,keyasint,omitempty"`
	Macro string       `cbor:"5,keyasint,omitempty"`
	Metas []ObjectMeta `cbor:"6,keyasint,omitempty"`
}

// ObjectMeta is one captured macro argument. Val is absent when the
// argument never resolved at compile time.
type ObjectMeta struct {
	Name string  `cbor:"1,keyasint"`
	Val  *uint16 `cbor:"2,keyasint,omitempty"`
}

const (
	kindCommand = 0
	kindMacro   = 1
)

// EncodeObject serializes a program for writing to an object file.
func EncodeObject(p Program) ([]byte, error) {
	obj := Object{Version: ObjectVersion}
	for _, e := range p {
		switch e := e.(type) {
		case CmdEntry:
			obj.Entries = append(obj.Entries, ObjectEntry{
				Kind: kindCommand,
				Op:   uint8(e.Cmd.Op),
				A:    uint16(e.Cmd.A),
				B:    uint16(e.Cmd.B),
			})
		case MacroEntry:
			oe := ObjectEntry{Kind: kindMacro, Macro: e.Name}
			for _, m := range e.Metas {
				om := ObjectMeta{Name: m.ID.Literal}
				if m.Val != nil {
					v := uint16(*m.Val)
					om.Val = &v
				}
				oe.Metas = append(oe.Metas, om)
			}
			obj.Entries = append(obj.Entries, oe)
		}
	}
	return encMode.Marshal(obj)
}

// DecodeObject deserializes a program, rebinding each macro entry to the
// macro of that name compiled into this binary.
func DecodeObject(data []byte) (Program, error) {
	var obj Object
	if err := cbor.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("compiler: bad object: %w", err)
	}
	if obj.Version != ObjectVersion {
		return nil, fmt.Errorf("compiler: unsupported object version %d", obj.Version)
	}
	var p Program
	for _, oe := range obj.Entries {
		switch oe.Kind {
		case kindCommand:
			op := vm.Op(oe.Op)
			if !op.Valid() {
				return nil, fmt.Errorf("compiler: invalid opcode 0x%02x in object", oe.Op)
			}
			p = append(p, CmdEntry{Cmd: vm.Command{Op: op, A: vm.Value(oe.A), B: vm.Value(oe.B)}})
		case kindMacro:
			mac, ok := macros.Lookup(oe.Macro)
			if !ok || mac.Deferred == nil {
				return nil, fmt.Errorf("compiler: unknown macro %q in object", oe.Macro)
			}
			entry := MacroEntry{Name: oe.Macro, Run: mac.Deferred}
			for _, om := range oe.Metas {
				m := macros.Meta{ID: parser.Ident{Literal: om.Name}}
				if om.Val != nil {
					v := vm.Value(*om.Val)
					m.Val = &v
				}
				entry.Metas = append(entry.Metas, m)
			}
			p = append(p, entry)
		default:
			return nil, fmt.Errorf("compiler: unknown entry kind %d in object", oe.Kind)
		}
	}
	return p, nil
}
