// Package runtime defines the values a generated trampoline consumes, produces and hands
// to its target.
//
// Value is a small tagged union modelled on an evaluation stack: every integer of 32 bits
// or less occupies an I4 slot, wider integers an I8 slot, floats share one float slot and
// compound value types (decimal, date/time, nullable, opaque structs) are stored inline.
package runtime

import (
	"fmt"
	"math"

	"github.com/conduit-lang/optshim/pkg/constant"
	"github.com/conduit-lang/optshim/pkg/types"
)

// ValueKind identifies the stack representation of a Value
type ValueKind uint8

const (
	ValNull   ValueKind = iota // null reference
	ValI4                      // bool, char, 8/16/32-bit integers
	ValI8                      // 64-bit integers
	ValNative                  // native-width integers and pointers
	ValFloat                   // float32 and float64
	ValRef                     // string or object reference
	ValStruct                  // inline value-type instance
	ValAddr                    // address of a Slot
)

func (k ValueKind) String() string {
	switch k {
	case ValNull:
		return "null"
	case ValI4:
		return "i4"
	case ValI8:
		return "i8"
	case ValNative:
		return "native"
	case ValFloat:
		return "float"
	case ValRef:
		return "ref"
	case ValStruct:
		return "struct"
	case ValAddr:
		return "addr"
	}
	return "unknown"
}

// Value is a stack-allocated tagged union.
//
// Data holds integer bits (sign-extended), float64 bits, the first word of a compound
// value or the byte offset of an address. Ext holds the second word of 128-bit values.
type Value struct {
	Kind ValueKind
	Type *types.Type // runtime type of ValRef and ValStruct values
	Data uint64
	Ext  uint64
	Obj  any // string, *Object, *Value (nullable payload), Fields, or *Slot
}

// Fields stores the named fields of an opaque struct or object.
type Fields map[string]Value

// Constructors

func Null() Value {
	return Value{Kind: ValNull}
}

func I4(v int32) Value {
	return Value{Kind: ValI4, Data: uint64(int64(v))}
}

func I8(v int64) Value {
	return Value{Kind: ValI8, Data: uint64(v)}
}

func Native(bits uint64) Value {
	return Value{Kind: ValNative, Data: bits}
}

func Bool(v bool) Value {
	if v {
		return I4(1)
	}
	return I4(0)
}

func Char(v uint16) Value {
	return I4(int32(v))
}

func Float32(v float32) Value {
	return Value{Kind: ValFloat, Data: math.Float64bits(float64(v))}
}

func Float64(v float64) Value {
	return Value{Kind: ValFloat, Data: math.Float64bits(v)}
}

func String(s string) Value {
	return Value{Kind: ValRef, Type: types.StringType, Obj: s}
}

func Ref(o *Object) Value {
	if o == nil {
		return Null()
	}
	return Value{Kind: ValRef, Type: o.Type, Obj: o}
}

func Decimal(d constant.Decimal) Value {
	w0, w1 := d.Words()
	return Value{Kind: ValStruct, Type: types.DecimalType, Data: w0, Ext: w1}
}

func DateTime(d constant.DateTime) Value {
	return Value{Kind: ValStruct, Type: types.DateTimeType, Data: d.Packed()}
}

// Nullable wraps a present value in the nullable type t.
func Nullable(t *types.Type, v Value) Value {
	inner := v.Copy()
	return Value{Kind: ValStruct, Type: t, Data: 1, Obj: &inner}
}

// Struct creates an opaque struct instance with the given fields.
func Struct(t *types.Type, fields Fields) Value {
	if fields == nil {
		fields = Fields{}
	}
	return Value{Kind: ValStruct, Type: t, Obj: fields}
}

// Addr returns the address of s.
func Addr(s *Slot) Value {
	return Value{Kind: ValAddr, Obj: s}
}

// Zero returns the zero value of t: integer and float zeros, a zeroed inline instance for
// value types, and null for references and by-reference types.
func Zero(t *types.Type) Value {
	if t == nil {
		return Null()
	}
	switch t.Kind {
	case types.Bool, types.Char, types.Int8, types.UInt8, types.Int16, types.UInt16, types.Int32, types.UInt32:
		return I4(0)
	case types.Int64, types.UInt64:
		return I8(0)
	case types.NativeInt, types.NativeUInt, types.Pointer:
		return Native(0)
	case types.Float32, types.Float64:
		return Float64(0)
	case types.Enum:
		return Zero(t.Elem)
	case types.Decimal, types.DateTime, types.Nullable:
		return Value{Kind: ValStruct, Type: t}
	case types.Struct:
		return Struct(t, nil)
	}
	return Null()
}

// Accessors. Integer accessors truncate or extend the stored bits the same way a
// store into a location of that width would.

func (v Value) Int8() int8     { return int8(v.Data) }
func (v Value) UInt8() uint8   { return uint8(v.Data) }
func (v Value) Int16() int16   { return int16(v.Data) }
func (v Value) UInt16() uint16 { return uint16(v.Data) }
func (v Value) Int32() int32   { return int32(v.Data) }
func (v Value) UInt32() uint32 { return uint32(v.Data) }
func (v Value) Char() uint16   { return uint16(v.Data) }
func (v Value) Bool() bool     { return v.Data != 0 }

func (v Value) Int64() int64 {
	if v.Kind == ValI4 {
		return int64(int32(v.Data))
	}
	return int64(v.Data)
}

func (v Value) UInt64() uint64 {
	if v.Kind == ValI4 {
		return uint64(uint32(v.Data))
	}
	return v.Data
}

func (v Value) Float64() float64 { return math.Float64frombits(v.Data) }
func (v Value) Float32() float32 { return float32(v.Float64()) }

// Str returns the string held by a string reference.
func (v Value) Str() (string, bool) {
	s, ok := v.Obj.(string)
	return s, ok && v.Kind == ValRef
}

// IsNull reports whether v is a null reference.
func (v Value) IsNull() bool { return v.Kind == ValNull }

func (v Value) Decimal() constant.Decimal {
	return constant.DecimalFromWords(v.Data, v.Ext)
}

func (v Value) DateTime() constant.DateTime {
	return constant.DateTimeFromPacked(v.Data)
}

// NullableValue unwraps a nullable instance. ok is false when it holds no value.
func (v Value) NullableValue() (Value, bool) {
	inner, ok := v.Obj.(*Value)
	if !ok || v.Data == 0 {
		return Value{}, false
	}
	return *inner, true
}

// Object returns the referenced object, or nil.
func (v Value) Object() *Object {
	o, _ := v.Obj.(*Object)
	return o
}

// Slot returns the slot an address points to, or nil.
func (v Value) Slot() *Slot {
	s, _ := v.Obj.(*Slot)
	return s
}

// Field reads a field of an opaque struct or of a referenced object.
func (v Value) Field(name string) Value {
	switch obj := v.Obj.(type) {
	case Fields:
		return obj[name]
	case *Object:
		return obj.Fields[name]
	}
	return Value{}
}

// Copy returns a value that shares no mutable state with v.
func (v Value) Copy() Value {
	switch obj := v.Obj.(type) {
	case Fields:
		fields := make(Fields, len(obj))
		for k, f := range obj {
			fields[k] = f.Copy()
		}
		v.Obj = fields
	case *Value:
		inner := obj.Copy()
		v.Obj = &inner
	}
	return v
}

// Equal compares two values by representation. Struct and nullable values compare by
// contents, references by identity (strings by contents).
func Equal(a, b Value) bool {
	if a.Kind != b.Kind || a.Data != b.Data || a.Ext != b.Ext {
		return false
	}
	switch a.Kind {
	case ValRef:
		if s, ok := a.Str(); ok {
			t, ok := b.Str()
			return ok && s == t
		}
		return a.Obj == b.Obj
	case ValStruct:
		if !a.Type.Equals(b.Type) {
			return false
		}
		switch obj := a.Obj.(type) {
		case Fields:
			other, ok := b.Obj.(Fields)
			if !ok || len(obj) != len(other) {
				return false
			}
			for k, f := range obj {
				if !Equal(f, other[k]) {
					return false
				}
			}
		case *Value:
			other, ok := b.Obj.(*Value)
			return ok && Equal(*obj, *other)
		}
		return true
	case ValAddr:
		return a.Obj == b.Obj
	}
	return true
}

// Inspect renders v for listings and diagnostics.
func (v Value) Inspect() string {
	switch v.Kind {
	case ValNull:
		return "null"
	case ValI4:
		return fmt.Sprintf("%d", v.Int32())
	case ValI8:
		return fmt.Sprintf("%d", v.Int64())
	case ValNative:
		return fmt.Sprintf("0x%x", v.Data)
	case ValFloat:
		return fmt.Sprintf("%g", v.Float64())
	case ValRef:
		if s, ok := v.Str(); ok {
			return fmt.Sprintf("%q", s)
		}
		return fmt.Sprintf("<%s>", v.Type)
	case ValStruct:
		switch v.Type.Kind {
		case types.Decimal:
			return v.Decimal().String()
		case types.DateTime:
			return v.DateTime().String()
		case types.Nullable:
			if inner, ok := v.NullableValue(); ok {
				return inner.Inspect()
			}
			return "null"
		}
		return fmt.Sprintf("%s{}", v.Type)
	case ValAddr:
		return "&slot"
	}
	return "<?>"
}
