// Package constant holds the raw default-value constants recorded in callable metadata.
//
// A Raw value is tagged with the encoding kind the metadata store used for it. It is
// produced once (decoded from a manifest or a database row) and never mutated.
package constant

import (
	"fmt"
	"math"
	"strconv"
	"unicode"
	"unicode/utf16"

	"github.com/conduit-lang/optshim/pkg/types"
)

// Kind is the encoding kind of a raw constant.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindChar
	KindInt8
	KindUInt8
	KindInt16
	KindUInt16
	KindInt32
	KindUInt32
	KindInt64
	KindUInt64
	KindNativeInt
	KindNativeUInt
	KindFloat32
	KindFloat64
	KindDecimal
	KindDateTime
	KindEnum
	KindString
)

var kindNames = [...]string{
	KindNull:       "null",
	KindBool:       "bool",
	KindChar:       "char",
	KindInt8:       "int8",
	KindUInt8:      "uint8",
	KindInt16:      "int16",
	KindUInt16:     "uint16",
	KindInt32:      "int32",
	KindUInt32:     "uint32",
	KindInt64:      "int64",
	KindUInt64:     "uint64",
	KindNativeInt:  "nint",
	KindNativeUInt: "nuint",
	KindFloat32:    "float32",
	KindFloat64:    "float64",
	KindDecimal:    "decimal",
	KindDateTime:   "datetime",
	KindEnum:       "enum",
	KindString:     "string",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// KindFromString maps a kind name back to its Kind.
func KindFromString(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return KindNull, false
}

// IsInteger reports whether k is one of the eight fixed-width integer kinds.
func (k Kind) IsInteger() bool {
	return k >= KindInt8 && k <= KindUInt64
}

func (k Kind) isSigned() bool {
	switch k {
	case KindInt8, KindInt16, KindInt32, KindInt64, KindNativeInt:
		return true
	}
	return false
}

// Raw is a tagged raw constant.
type Raw struct {
	kind Kind
	// bits holds bool/char/integer payloads (signed kinds sign-extended) and float bits.
	bits uint64
	str  string
	dec  Decimal
	dt   DateTime
	enum *types.Type
}

// Null is the absent ("null") constant.
func Null() Raw { return Raw{kind: KindNull} }

func Bool(v bool) Raw {
	r := Raw{kind: KindBool}
	if v {
		r.bits = 1
	}
	return r
}

// Char records a single UTF-16 code unit.
func Char(v uint16) Raw { return Raw{kind: KindChar, bits: uint64(v)} }

func Int8(v int8) Raw     { return Raw{kind: KindInt8, bits: uint64(int64(v))} }
func UInt8(v uint8) Raw   { return Raw{kind: KindUInt8, bits: uint64(v)} }
func Int16(v int16) Raw   { return Raw{kind: KindInt16, bits: uint64(int64(v))} }
func UInt16(v uint16) Raw { return Raw{kind: KindUInt16, bits: uint64(v)} }
func Int32(v int32) Raw   { return Raw{kind: KindInt32, bits: uint64(int64(v))} }
func UInt32(v uint32) Raw { return Raw{kind: KindUInt32, bits: uint64(v)} }
func Int64(v int64) Raw   { return Raw{kind: KindInt64, bits: uint64(v)} }
func UInt64(v uint64) Raw { return Raw{kind: KindUInt64, bits: v} }

// NativeInt and NativeUInt exist so host values round-trip; the metadata scheme itself
// cannot encode native-width constants.
func NativeInt(v int64) Raw   { return Raw{kind: KindNativeInt, bits: uint64(v)} }
func NativeUInt(v uint64) Raw { return Raw{kind: KindNativeUInt, bits: v} }

func Float32(v float32) Raw { return Raw{kind: KindFloat32, bits: uint64(math.Float32bits(v))} }
func Float64(v float64) Raw { return Raw{kind: KindFloat64, bits: math.Float64bits(v)} }

func DecimalValue(v Decimal) Raw   { return Raw{kind: KindDecimal, dec: v} }
func DateTimeValue(v DateTime) Raw { return Raw{kind: KindDateTime, dt: v} }
func String(v string) Raw          { return Raw{kind: KindString, str: v} }

// Enum records a value of an enumeration type. The value is stored in the enum's
// underlying integer representation.
func Enum(enumType *types.Type, value int64) Raw {
	return Raw{kind: KindEnum, bits: uint64(value), enum: enumType}
}

// Kind returns the encoding kind.
func (r Raw) Kind() Kind { return r.kind }

// IsNull reports whether r is the absent constant.
func (r Raw) IsNull() bool { return r.kind == KindNull }

// IsInteger reports whether r holds a fixed-width integer.
func (r Raw) IsInteger() bool { return r.kind.IsInteger() }

// Int64 returns an integer payload as int64. ok is false when the payload is not an
// integer (enum values included) or an unsigned value exceeds math.MaxInt64.
func (r Raw) Int64() (v int64, ok bool) {
	switch {
	case r.kind.isSigned() || r.kind == KindEnum && r.enumSigned():
		return int64(r.bits), true
	case r.kind.IsInteger() || r.kind == KindNativeUInt || r.kind == KindEnum:
		if r.bits > math.MaxInt64 {
			return 0, false
		}
		return int64(r.bits), true
	}
	return 0, false
}

// Uint64 returns an integer payload as uint64. ok is false for negative values and
// non-integers.
func (r Raw) Uint64() (v uint64, ok bool) {
	switch {
	case r.kind.isSigned() || r.kind == KindEnum && r.enumSigned():
		if int64(r.bits) < 0 {
			return 0, false
		}
		return r.bits, true
	case r.kind.IsInteger() || r.kind == KindNativeUInt || r.kind == KindEnum:
		return r.bits, true
	}
	return 0, false
}

// Signed reports whether an integer payload uses a signed encoding.
func (r Raw) Signed() bool {
	if r.kind == KindEnum {
		return r.enumSigned()
	}
	return r.kind.isSigned()
}

// enumSigned treats an enum without an underlying type as unsigned.
func (r Raw) enumSigned() bool {
	return r.enum != nil && r.enum.Elem != nil && r.enum.Elem.Kind.IsSigned()
}

func (r Raw) BoolValue() bool       { return r.bits == 1 }
func (r Raw) CharValue() uint16     { return uint16(r.bits) }
func (r Raw) Float32Value() float32 { return math.Float32frombits(uint32(r.bits)) }
func (r Raw) Float64Value() float64 { return math.Float64frombits(r.bits) }
func (r Raw) DecimalValue() Decimal { return r.dec }
func (r Raw) DateTimeValue() DateTime {
	return r.dt
}

// Text returns the payload of a string constant.
func (r Raw) Text() string { return r.str }

// EnumType returns the enumeration type of an enum constant.
func (r Raw) EnumType() *types.Type { return r.enum }

// Type returns the runtime type of the constant; nil for the null constant.
func (r Raw) Type() *types.Type {
	switch r.kind {
	case KindNull:
		return nil
	case KindEnum:
		return r.enum
	case KindBool:
		return types.BoolType
	case KindChar:
		return types.CharType
	case KindInt8:
		return types.Int8Type
	case KindUInt8:
		return types.UInt8Type
	case KindInt16:
		return types.Int16Type
	case KindUInt16:
		return types.UInt16Type
	case KindInt32:
		return types.Int32Type
	case KindUInt32:
		return types.UInt32Type
	case KindInt64:
		return types.Int64Type
	case KindUInt64:
		return types.UInt64Type
	case KindNativeInt:
		return types.NativeIntType
	case KindNativeUInt:
		return types.NativeUIntType
	case KindFloat32:
		return types.Float32Type
	case KindFloat64:
		return types.Float64Type
	case KindDecimal:
		return types.DecimalType
	case KindDateTime:
		return types.DateTimeType
	case KindString:
		return types.StringType
	}
	return nil
}

// Format returns the payload in the textual form Parse accepts.
func (r Raw) Format() string {
	switch r.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(r.BoolValue())
	case KindChar:
		return formatChar(r.CharValue())
	case KindFloat32:
		return strconv.FormatFloat(float64(r.Float32Value()), 'g', -1, 32)
	case KindFloat64:
		return strconv.FormatFloat(r.Float64Value(), 'g', -1, 64)
	case KindDecimal:
		return r.dec.String()
	case KindDateTime:
		return r.dt.String()
	case KindString:
		return r.str
	}
	if r.Signed() {
		return strconv.FormatInt(int64(r.bits), 10)
	}
	return strconv.FormatUint(r.bits, 10)
}

// formatChar escapes surrogate halves and unprintable code units as \uXXXX.
func formatChar(c uint16) string {
	if utf16.IsSurrogate(rune(c)) || !unicode.IsPrint(rune(c)) {
		return fmt.Sprintf(`\u%04X`, c)
	}
	return string(rune(c))
}

// String renders the constant with its kind, e.g. uint16(70000).
func (r Raw) String() string {
	switch r.kind {
	case KindNull:
		return "null"
	case KindString:
		return strconv.Quote(r.str)
	case KindEnum:
		return fmt.Sprintf("%s(%s)", r.enum, r.Format())
	}
	return fmt.Sprintf("%s(%s)", r.kind, r.Format())
}

// Equal reports whether two constants have the same kind and payload.
func (r Raw) Equal(o Raw) bool {
	if r.kind != o.kind {
		return false
	}
	switch r.kind {
	case KindDecimal:
		return r.dec == o.dec
	case KindDateTime:
		return r.dt == o.dt
	case KindString:
		return r.str == o.str
	case KindEnum:
		return r.bits == o.bits && r.enum.Equals(o.enum)
	}
	return r.bits == o.bits
}
