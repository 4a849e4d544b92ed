// Package types describes the declared types of callable parameters and return values.
// A Type is pure data: two types are the same when they are structurally equal, so types
// decoded from a manifest compare equal to the predefined singletons.
package types

import "strings"

// Kind identifies the shape of a declared type.
type Kind uint8

const (
	Invalid Kind = iota
	Void
	Bool
	Char
	Int8
	UInt8
	Int16
	UInt16
	Int32
	UInt32
	Int64
	UInt64
	NativeInt
	NativeUInt
	Float32
	Float64
	Decimal
	DateTime
	Pointer
	ByRef
	Nullable
	Enum
	String
	Object
	Class
	Struct
)

var kindNames = map[Kind]string{
	Invalid:    "invalid",
	Void:       "void",
	Bool:       "bool",
	Char:       "char",
	Int8:       "int8",
	UInt8:      "uint8",
	Int16:      "int16",
	UInt16:     "uint16",
	Int32:      "int32",
	UInt32:     "uint32",
	Int64:      "int64",
	UInt64:     "uint64",
	NativeInt:  "nint",
	NativeUInt: "nuint",
	Float32:    "float32",
	Float64:    "float64",
	Decimal:    "decimal",
	DateTime:   "datetime",
	Pointer:    "pointer",
	ByRef:      "ref",
	Nullable:   "nullable",
	Enum:       "enum",
	String:     "string",
	Object:     "object",
	Class:      "class",
	Struct:     "struct",
}

// String returns the lower-case name of the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsInteger reports whether k is one of the eight fixed-width integer kinds.
func (k Kind) IsInteger() bool {
	return k >= Int8 && k <= UInt64
}

// IsSigned reports whether k is a signed integer kind (native included).
func (k Kind) IsSigned() bool {
	switch k {
	case Int8, Int16, Int32, Int64, NativeInt:
		return true
	}
	return false
}

// Type is a declared type.
//
// Elem is the element type of Pointer, ByRef and Nullable types and the underlying
// integer type of an Enum. Base is the base class of a Class (nil means Object).
type Type struct {
	Kind Kind
	Name string
	Elem *Type
	Base *Type
}

// Predefined types
var (
	VoidType       = &Type{Kind: Void}
	BoolType       = &Type{Kind: Bool}
	CharType       = &Type{Kind: Char}
	Int8Type       = &Type{Kind: Int8}
	UInt8Type      = &Type{Kind: UInt8}
	Int16Type      = &Type{Kind: Int16}
	UInt16Type     = &Type{Kind: UInt16}
	Int32Type      = &Type{Kind: Int32}
	UInt32Type     = &Type{Kind: UInt32}
	Int64Type      = &Type{Kind: Int64}
	UInt64Type     = &Type{Kind: UInt64}
	NativeIntType  = &Type{Kind: NativeInt}
	NativeUIntType = &Type{Kind: NativeUInt}
	Float32Type    = &Type{Kind: Float32}
	Float64Type    = &Type{Kind: Float64}
	DecimalType    = &Type{Kind: Decimal}
	DateTimeType   = &Type{Kind: DateTime}
	StringType     = &Type{Kind: String}
	ObjectType     = &Type{Kind: Object}
)

// Primitive returns the predefined type for a primitive kind, or nil.
func Primitive(k Kind) *Type {
	switch k {
	case Void:
		return VoidType
	case Bool:
		return BoolType
	case Char:
		return CharType
	case Int8:
		return Int8Type
	case UInt8:
		return UInt8Type
	case Int16:
		return Int16Type
	case UInt16:
		return UInt16Type
	case Int32:
		return Int32Type
	case UInt32:
		return UInt32Type
	case Int64:
		return Int64Type
	case UInt64:
		return UInt64Type
	case NativeInt:
		return NativeIntType
	case NativeUInt:
		return NativeUIntType
	case Float32:
		return Float32Type
	case Float64:
		return Float64Type
	case Decimal:
		return DecimalType
	case DateTime:
		return DateTimeType
	case String:
		return StringType
	case Object:
		return ObjectType
	}
	return nil
}

// PointerTo returns the unmanaged pointer type *elem.
func PointerTo(elem *Type) *Type {
	return &Type{Kind: Pointer, Elem: elem}
}

// ByRefTo returns the by-reference type ref elem.
func ByRefTo(elem *Type) *Type {
	return &Type{Kind: ByRef, Elem: elem}
}

// NullableOf returns elem? for a value type elem.
func NullableOf(elem *Type) *Type {
	return &Type{Kind: Nullable, Elem: elem}
}

// NewEnum creates a named enumeration over an integer type.
func NewEnum(name string, underlying *Type) *Type {
	return &Type{Kind: Enum, Name: name, Elem: underlying}
}

// NewClass creates a named reference type. A nil base means Object.
func NewClass(name string, base *Type) *Type {
	return &Type{Kind: Class, Name: name, Base: base}
}

// NewStruct creates a named opaque value type.
func NewStruct(name string) *Type {
	return &Type{Kind: Struct, Name: name}
}

// Underlying returns the underlying integer type of an enum, or nil.
func (t *Type) Underlying() *Type {
	if t == nil || t.Kind != Enum {
		return nil
	}
	return t.Elem
}

// IsVoid reports whether t is the void type.
func (t *Type) IsVoid() bool {
	return t != nil && t.Kind == Void
}

// IsValueType reports whether values of t are stored inline rather than by reference.
func (t *Type) IsValueType() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case Invalid, Void, Pointer, ByRef, String, Object, Class:
		return false
	}
	return true
}

// IsReference reports whether t is a reference type (a null literal is one of its values).
func (t *Type) IsReference() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case String, Object, Class:
		return true
	}
	return false
}

// Equals reports structural equality.
func (t *Type) Equals(other *Type) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil {
		return false
	}
	if t.Kind != other.Kind || t.Name != other.Name {
		return false
	}
	switch t.Kind {
	case Pointer, ByRef, Nullable, Enum:
		return t.Elem.Equals(other.Elem)
	}
	return true
}

// IsAssignableFrom reports whether a value of type other can be stored in a location of type t.
// Reference types follow their base chain; every other type must match exactly.
// There is no boxing: object accepts only reference types, so object is not assignable
// from int32 or any other value type.
func (t *Type) IsAssignableFrom(other *Type) bool {
	if t.Equals(other) {
		return true
	}
	if t == nil || other == nil || !t.IsReference() || !other.IsReference() {
		return false
	}
	if t.Kind == Object {
		return true
	}
	for base := other.Base; base != nil; base = base.Base {
		if t.Equals(base) {
			return true
		}
	}
	return false
}

// String renders t in the same syntax Parse accepts.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case Pointer:
		return t.Elem.String() + "*"
	case ByRef:
		return "ref " + t.Elem.String()
	case Nullable:
		return t.Elem.String() + "?"
	case Enum, Class, Struct:
		return t.Name
	}
	return t.Kind.String()
}

// Describe renders t with its kind, e.g. "enum Color : int32".
func (t *Type) Describe() string {
	if t == nil {
		return "<nil>"
	}
	var b strings.Builder
	switch t.Kind {
	case Enum:
		b.WriteString("enum ")
		b.WriteString(t.Name)
		b.WriteString(" : ")
		b.WriteString(t.Elem.String())
	case Class:
		b.WriteString("class ")
		b.WriteString(t.Name)
		if t.Base != nil {
			b.WriteString(" : ")
			b.WriteString(t.Base.String())
		}
	case Struct:
		b.WriteString("struct ")
		b.WriteString(t.Name)
	default:
		b.WriteString(t.String())
	}
	return b.String()
}
