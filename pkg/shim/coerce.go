package shim

import (
	"fmt"
	"math"

	"github.com/conduit-lang/optshim/pkg/constant"
	"github.com/conduit-lang/optshim/pkg/types"
)

// ResolvedKind is the representation a resolved constant must be loaded as.
type ResolvedKind uint8

const (
	ResolvedInvalid ResolvedKind = iota
	ResolvedBool
	ResolvedChar
	ResolvedInt8
	ResolvedUInt8
	ResolvedInt16
	ResolvedUInt16
	ResolvedInt32
	ResolvedUInt32
	ResolvedInt64
	ResolvedUInt64
	ResolvedNativeInt
	ResolvedNativeUInt
	ResolvedFloat32
	ResolvedFloat64
	ResolvedDecimal
	ResolvedDateTime
	ResolvedEnum
	ResolvedString
	ResolvedNullable // present value to wrap in a nullable
	ResolvedByRef    // value to spill to a local and pass by address
)

var resolvedNames = [...]string{
	ResolvedInvalid:    "invalid",
	ResolvedBool:       "bool",
	ResolvedChar:       "char",
	ResolvedInt8:       "int8",
	ResolvedUInt8:      "uint8",
	ResolvedInt16:      "int16",
	ResolvedUInt16:     "uint16",
	ResolvedInt32:      "int32",
	ResolvedUInt32:     "uint32",
	ResolvedInt64:      "int64",
	ResolvedUInt64:     "uint64",
	ResolvedNativeInt:  "nint",
	ResolvedNativeUInt: "nuint",
	ResolvedFloat32:    "float32",
	ResolvedFloat64:    "float64",
	ResolvedDecimal:    "decimal",
	ResolvedDateTime:   "datetime",
	ResolvedEnum:       "enum",
	ResolvedString:     "string",
	ResolvedNullable:   "boxed nullable",
	ResolvedByRef:      "boxed byref",
}

func (k ResolvedKind) String() string {
	if int(k) < len(resolvedNames) {
		return resolvedNames[k]
	}
	return "unknown"
}

// Resolved is a default value coerced into the exact representation of its parameter.
//
// Integer payloads are stored sign-extended for signed kinds and zero-extended
// otherwise. Enum, nullable and by-reference values carry the resolved value of their
// underlying or element type in Inner.
type Resolved struct {
	Kind ResolvedKind
	// Type is the enum or nullable type for those kinds, the element type for ByRef and
	// the pointer type when a pointer was resolved as a native unsigned integer.
	Type *types.Type

	bits  uint64
	float float64
	str   string
	dec   constant.Decimal
	dt    constant.DateTime
	inner *Resolved
}

// Bits returns the integer payload (bool and char included).
func (r Resolved) Bits() uint64 { return r.bits }

// Int64 returns the integer payload as a signed value.
func (r Resolved) Int64() int64 { return int64(r.bits) }

func (r Resolved) Float() float64              { return r.float }
func (r Resolved) Text() string                { return r.str }
func (r Resolved) Decimal() constant.Decimal   { return r.dec }
func (r Resolved) DateTime() constant.DateTime { return r.dt }

// Inner returns the wrapped value of an enum, nullable or by-reference resolution.
func (r Resolved) Inner() (Resolved, bool) {
	if r.inner == nil {
		return Resolved{}, false
	}
	return *r.inner, true
}

func (r Resolved) String() string {
	switch r.Kind {
	case ResolvedInvalid:
		return "invalid"
	case ResolvedFloat32, ResolvedFloat64:
		return fmt.Sprintf("%s(%g)", r.Kind, r.float)
	case ResolvedDecimal:
		return fmt.Sprintf("decimal(%s)", r.dec)
	case ResolvedDateTime:
		return fmt.Sprintf("datetime(%s)", r.dt)
	case ResolvedString:
		return fmt.Sprintf("string(%q)", r.str)
	case ResolvedEnum, ResolvedNullable, ResolvedByRef:
		return fmt.Sprintf("%s[%s](%s)", r.Kind, r.Type, r.inner)
	case ResolvedInt8, ResolvedInt16, ResolvedInt32, ResolvedInt64, ResolvedNativeInt:
		return fmt.Sprintf("%s(%d)", r.Kind, int64(r.bits))
	}
	return fmt.Sprintf("%s(%d)", r.Kind, r.bits)
}

var integerResolved = map[types.Kind]ResolvedKind{
	types.Int8:   ResolvedInt8,
	types.UInt8:  ResolvedUInt8,
	types.Int16:  ResolvedInt16,
	types.UInt16: ResolvedUInt16,
	types.Int32:  ResolvedInt32,
	types.UInt32: ResolvedUInt32,
	types.Int64:  ResolvedInt64,
	types.UInt64: ResolvedUInt64,
}

// Coerce converts a recorded default into the representation of the declared type t.
// It reports false when the constant cannot be represented exactly; nothing is ever
// truncated or wrapped, except that a float64 narrows to float32.
//
// Null constants are never coerced: an absent default is materialized as the zero value
// of the type instead.
func Coerce(t *types.Type, raw constant.Raw) (Resolved, bool) {
	if t == nil || raw.IsNull() {
		return Resolved{}, false
	}

	switch t.Kind {
	case types.Bool:
		if raw.Kind() == constant.KindBool {
			return boolResolved(raw.BoolValue()), true
		}
		if raw.IsInteger() {
			if v, ok := raw.Uint64(); ok && v <= 1 {
				return boolResolved(v == 1), true
			}
		}
		return Resolved{}, false

	case types.Int8, types.UInt8, types.Int16, types.UInt16, types.Int32, types.UInt32, types.Int64, types.UInt64:
		// Only the eight integer encodings coerce into integers: bool, char, enum and
		// native constants do not.
		if !raw.IsInteger() {
			return Resolved{}, false
		}
		bits, ok := fit(raw, t.Kind)
		if !ok {
			return Resolved{}, false
		}
		return Resolved{Kind: integerResolved[t.Kind], bits: bits}, true

	case types.Char:
		if raw.Kind() == constant.KindChar {
			return Resolved{Kind: ResolvedChar, bits: uint64(raw.CharValue())}, true
		}
		if raw.IsInteger() {
			if v, ok := raw.Uint64(); ok && v <= math.MaxUint16 {
				return Resolved{Kind: ResolvedChar, bits: v}, true
			}
		}
		return Resolved{}, false

	case types.Float32:
		switch raw.Kind() {
		case constant.KindFloat32:
			return Resolved{Kind: ResolvedFloat32, float: float64(raw.Float32Value())}, true
		case constant.KindFloat64:
			// Narrowed like a host float literal conversion, without a range check.
			return Resolved{Kind: ResolvedFloat32, float: float64(float32(raw.Float64Value()))}, true
		}
		return Resolved{}, false

	case types.Float64:
		if raw.Kind() == constant.KindFloat64 {
			return Resolved{Kind: ResolvedFloat64, float: raw.Float64Value()}, true
		}
		return Resolved{}, false

	case types.Enum:
		if t.Underlying() == nil {
			return Resolved{}, false
		}
		if raw.Kind() == constant.KindEnum {
			// A constant of the enum type itself is taken as is; one of any other enum
			// type is not an integer and never coerces.
			if !t.Equals(raw.EnumType()) {
				return Resolved{}, false
			}
			var bits uint64
			if raw.Signed() {
				v, _ := raw.Int64()
				bits = uint64(v)
			} else {
				bits, _ = raw.Uint64()
			}
			return enumResolved(t, Resolved{Kind: integerResolved[t.Underlying().Kind], bits: bits}), true
		}
		inner, ok := Coerce(t.Underlying(), raw)
		if !ok {
			return Resolved{}, false
		}
		return enumResolved(t, inner), true

	case types.Pointer, types.NativeUInt:
		// Native unsigned constants are only encodable as integers no wider than 32 bits.
		inner, ok := Coerce(types.UInt32Type, raw)
		if !ok {
			return Resolved{}, false
		}
		return Resolved{Kind: ResolvedNativeUInt, Type: t, bits: inner.bits}, true

	case types.NativeInt:
		inner, ok := Coerce(types.Int32Type, raw)
		if !ok {
			return Resolved{}, false
		}
		return Resolved{Kind: ResolvedNativeInt, Type: t, bits: inner.bits}, true

	case types.Nullable:
		inner, ok := Coerce(t.Elem, raw)
		if !ok {
			return Resolved{}, false
		}
		return Resolved{Kind: ResolvedNullable, Type: t, inner: &inner}, true

	case types.ByRef:
		inner, ok := Coerce(t.Elem, raw)
		if !ok {
			return Resolved{}, false
		}
		return Resolved{Kind: ResolvedByRef, Type: t.Elem, inner: &inner}, true
	}

	// Decimal, date/time, string, and every other type: the constant must already have
	// exactly the declared type.
	if !t.Equals(raw.Type()) {
		return Resolved{}, false
	}
	switch raw.Kind() {
	case constant.KindDecimal:
		dec := raw.DecimalValue()
		if dec.Validate() != nil {
			return Resolved{}, false
		}
		return Resolved{Kind: ResolvedDecimal, dec: dec}, true
	case constant.KindDateTime:
		dt := raw.DateTimeValue()
		if dt.Validate() != nil {
			return Resolved{}, false
		}
		return Resolved{Kind: ResolvedDateTime, dt: dt}, true
	case constant.KindString:
		return Resolved{Kind: ResolvedString, str: raw.Text()}, true
	}
	return Resolved{}, false
}

func boolResolved(v bool) Resolved {
	r := Resolved{Kind: ResolvedBool}
	if v {
		r.bits = 1
	}
	return r
}

func enumResolved(t *types.Type, inner Resolved) Resolved {
	return Resolved{Kind: ResolvedEnum, Type: t, inner: &inner}
}

// fit checks that an integer constant lies within the range of the integer kind k and
// returns its bits in k's representation.
func fit(raw constant.Raw, k types.Kind) (uint64, bool) {
	if raw.Signed() {
		v, _ := raw.Int64()
		lo, hi := integerRange(k)
		if v < lo || (v >= 0 && uint64(v) > hi) {
			return 0, false
		}
		return uint64(v), true
	}
	v, _ := raw.Uint64()
	_, hi := integerRange(k)
	if v > hi {
		return 0, false
	}
	return v, true
}

// integerRange returns the minimum and maximum of an integer kind.
func integerRange(k types.Kind) (int64, uint64) {
	switch k {
	case types.Int8:
		return math.MinInt8, math.MaxInt8
	case types.UInt8:
		return 0, math.MaxUint8
	case types.Int16:
		return math.MinInt16, math.MaxInt16
	case types.UInt16:
		return 0, math.MaxUint16
	case types.Int32:
		return math.MinInt32, math.MaxInt32
	case types.UInt32:
		return 0, math.MaxUint32
	case types.Int64:
		return math.MinInt64, math.MaxInt64
	}
	return 0, math.MaxUint64
}
