package types

import (
	"fmt"
	"strings"
)

// Resolver looks up named (user-defined) types.
type Resolver interface {
	LookupType(name string) (*Type, bool)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(name string) (*Type, bool)

// LookupType calls f(name).
func (f ResolverFunc) LookupType(name string) (*Type, bool) {
	return f(name)
}

var builtinNames = map[string]*Type{
	"void":     VoidType,
	"bool":     BoolType,
	"char":     CharType,
	"int8":     Int8Type,
	"sbyte":    Int8Type,
	"uint8":    UInt8Type,
	"byte":     UInt8Type,
	"int16":    Int16Type,
	"short":    Int16Type,
	"uint16":   UInt16Type,
	"ushort":   UInt16Type,
	"int32":    Int32Type,
	"int":      Int32Type,
	"uint32":   UInt32Type,
	"uint":     UInt32Type,
	"int64":    Int64Type,
	"long":     Int64Type,
	"uint64":   UInt64Type,
	"ulong":    UInt64Type,
	"nint":     NativeIntType,
	"nuint":    NativeUIntType,
	"float32":  Float32Type,
	"float":    Float32Type,
	"float64":  Float64Type,
	"double":   Float64Type,
	"decimal":  DecimalType,
	"datetime": DateTimeType,
	"string":   StringType,
	"object":   ObjectType,
}

// Builtin returns the predefined type with the given name or alias.
func Builtin(name string) (*Type, bool) {
	t, ok := builtinNames[name]
	return t, ok
}

// Parse parses a type expression such as "int32", "ref Point", "Color?" or "byte*".
// Named types that are not builtins are looked up through r, which may be nil.
//
// "in T" and "out T" are accepted as spellings of "ref T".
func Parse(expr string, r Resolver) (*Type, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return nil, fmt.Errorf("empty type expression")
	}

	for _, prefix := range []string{"ref ", "in ", "out "} {
		if strings.HasPrefix(s, prefix) {
			elem, err := Parse(s[len(prefix):], r)
			if err != nil {
				return nil, err
			}
			if elem.Kind == ByRef || elem.Kind == Void {
				return nil, fmt.Errorf("invalid by-reference element type %s in %q", elem, expr)
			}
			return ByRefTo(elem), nil
		}
	}

	switch {
	case strings.HasSuffix(s, "?"):
		elem, err := Parse(s[:len(s)-1], r)
		if err != nil {
			return nil, err
		}
		if !elem.IsValueType() || elem.Kind == Nullable {
			return nil, fmt.Errorf("nullable element must be a non-nullable value type, got %s in %q", elem, expr)
		}
		return NullableOf(elem), nil
	case strings.HasSuffix(s, "*"):
		elem, err := Parse(s[:len(s)-1], r)
		if err != nil {
			return nil, err
		}
		if elem.Kind == ByRef || elem.IsReference() {
			return nil, fmt.Errorf("invalid pointer element type %s in %q", elem, expr)
		}
		return PointerTo(elem), nil
	}

	if !isIdentifier(s) {
		return nil, fmt.Errorf("invalid type name %q", s)
	}
	if t, ok := builtinNames[s]; ok {
		return t, nil
	}
	if r != nil {
		if t, ok := r.LookupType(s); ok {
			return t, nil
		}
	}
	return nil, fmt.Errorf("unknown type %q", s)
}

func isIdentifier(s string) bool {
	for i, c := range s {
		switch {
		case c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}
