package runtime

import (
	"fmt"

	"github.com/conduit-lang/optshim/pkg/types"
)

// Slot is a piece of addressable storage: a local variable, a by-reference argument, or
// the home of a value-type instance under construction.
type Slot struct {
	Type *types.Type
	V    Value
}

// NewSlot allocates a slot holding the zero value of t.
func NewSlot(t *types.Type) *Slot {
	return &Slot{Type: t, V: Zero(t)}
}

// SlotOf allocates a slot holding v.
func SlotOf(t *types.Type, v Value) *Slot {
	return &Slot{Type: t, V: v}
}

// Load returns a copy of the stored value.
func (s *Slot) Load() Value {
	return s.V.Copy()
}

// Store replaces the stored value.
func (s *Slot) Store(v Value) {
	s.V = v
}

// StoreWord writes a 64-bit word at a byte offset into the stored value. Only the two
// words of a 128-bit value (offsets 0 and 8) are addressable.
func (s *Slot) StoreWord(offset uint64, word uint64) error {
	switch offset {
	case 0:
		s.V.Data = word
	case 8:
		s.V.Ext = word
	default:
		return fmt.Errorf("store at offset %d outside %s", offset, s.Type)
	}
	return nil
}

// SetField sets a field of the opaque struct stored in s.
func (s *Slot) SetField(name string, v Value) error {
	fields, ok := s.V.Obj.(Fields)
	if !ok {
		return fmt.Errorf("slot of type %s has no fields", s.Type)
	}
	fields[name] = v
	return nil
}

// Object is an instance of a reference type.
type Object struct {
	Type   *types.Type
	Fields Fields
}

// NewObject allocates an uninitialized instance of a class.
func NewObject(t *types.Type) *Object {
	return &Object{Type: t, Fields: Fields{}}
}

// NativeFunc is a callable implemented in Go. args holds the receiver, if any, followed
// by the declared parameters.
type NativeFunc func(args []Value) (Value, error)
