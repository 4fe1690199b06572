package vmu

import "fmt"

// Type is the kind of file held by a directory entry.
type Type uint8

// Known file types, an entry with TypeNone is an empty directory slot.
const (
	TypeNone Type = 0x00
	TypeData Type = 0x33
	TypeGame Type = 0xcc
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeData:
		return "data"
	case TypeGame:
		return "game"
	}
	return fmt.Sprintf("unknown (%#02x)", uint8(t))
}
