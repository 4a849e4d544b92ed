package constant

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/conduit-lang/optshim/pkg/types"
)

// Parse decodes the textual form of a raw constant, as written in manifests and stored in
// the metadata database. enumType is required for KindEnum and ignored otherwise.
//
// Parsing is exact: an integer literal that does not fit the named kind is an error here,
// before coercion ever sees it.
func Parse(kindName, text string, enumType *types.Type) (Raw, error) {
	kind, ok := KindFromString(kindName)
	if !ok {
		return Raw{}, fmt.Errorf("unknown constant kind %q", kindName)
	}

	switch kind {
	case KindNull:
		return Null(), nil
	case KindBool:
		v, err := strconv.ParseBool(text)
		if err != nil {
			return Raw{}, fmt.Errorf("invalid bool constant %q", text)
		}
		return Bool(v), nil
	case KindChar:
		return parseChar(text)
	case KindInt8, KindInt16, KindInt32, KindInt64, KindNativeInt:
		v, err := strconv.ParseInt(text, 0, signedBits(kind))
		if err != nil {
			return Raw{}, fmt.Errorf("invalid %s constant %q: %w", kind, text, err)
		}
		return signed(kind, v), nil
	case KindUInt8, KindUInt16, KindUInt32, KindUInt64, KindNativeUInt:
		v, err := strconv.ParseUint(text, 0, unsignedBits(kind))
		if err != nil {
			return Raw{}, fmt.Errorf("invalid %s constant %q: %w", kind, text, err)
		}
		return unsigned(kind, v), nil
	case KindFloat32:
		v, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return Raw{}, fmt.Errorf("invalid float32 constant %q: %w", text, err)
		}
		return Float32(float32(v)), nil
	case KindFloat64:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Raw{}, fmt.Errorf("invalid float64 constant %q: %w", text, err)
		}
		return Float64(v), nil
	case KindDecimal:
		d, err := ParseDecimal(text)
		if err != nil {
			return Raw{}, err
		}
		return DecimalValue(d), nil
	case KindDateTime:
		d, err := ParseDateTime(text)
		if err != nil {
			return Raw{}, err
		}
		return DateTimeValue(d), nil
	case KindString:
		return String(text), nil
	case KindEnum:
		if enumType == nil || enumType.Kind != types.Enum || enumType.Elem == nil {
			return Raw{}, fmt.Errorf("enum constant %q needs an enum type", text)
		}
		underlying := enumType.Elem.Kind
		if !underlying.IsInteger() {
			return Raw{}, fmt.Errorf("enum %s has non-integer underlying type %s", enumType.Name, enumType.Elem)
		}
		var v int64
		if underlying.IsSigned() {
			n, err := strconv.ParseInt(text, 0, typeBits(underlying))
			if err != nil {
				return Raw{}, fmt.Errorf("invalid %s constant %q: %w", enumType.Name, text, err)
			}
			v = n
		} else {
			n, err := strconv.ParseUint(text, 0, typeBits(underlying))
			if err != nil {
				return Raw{}, fmt.Errorf("invalid %s constant %q: %w", enumType.Name, text, err)
			}
			v = int64(n)
		}
		return Enum(enumType, v), nil
	}
	return Raw{}, fmt.Errorf("unsupported constant kind %s", kind)
}

func signed(kind Kind, v int64) Raw {
	switch kind {
	case KindInt8:
		return Int8(int8(v))
	case KindInt16:
		return Int16(int16(v))
	case KindInt32:
		return Int32(int32(v))
	case KindNativeInt:
		return NativeInt(v)
	}
	return Int64(v)
}

func unsigned(kind Kind, v uint64) Raw {
	switch kind {
	case KindUInt8:
		return UInt8(uint8(v))
	case KindUInt16:
		return UInt16(uint16(v))
	case KindUInt32:
		return UInt32(uint32(v))
	case KindNativeUInt:
		return NativeUInt(v)
	}
	return UInt64(v)
}

func signedBits(kind Kind) int {
	switch kind {
	case KindInt8:
		return 8
	case KindInt16:
		return 16
	case KindInt32:
		return 32
	}
	return 64
}

func unsignedBits(kind Kind) int {
	switch kind {
	case KindUInt8:
		return 8
	case KindUInt16:
		return 16
	case KindUInt32:
		return 32
	}
	return 64
}

func typeBits(kind types.Kind) int {
	switch kind {
	case types.Int8, types.UInt8:
		return 8
	case types.Int16, types.UInt16:
		return 16
	case types.Int32, types.UInt32:
		return 32
	}
	return 64
}

// parseChar accepts a single character of the BMP or an escaped code unit such as \uD800.
func parseChar(text string) (Raw, error) {
	if len(text) == 6 && strings.HasPrefix(text, `\u`) {
		v, err := strconv.ParseUint(text[2:], 16, 16)
		if err != nil {
			return Raw{}, fmt.Errorf("invalid char constant %q: %w", text, err)
		}
		return Char(uint16(v)), nil
	}
	r, size := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError && size <= 1 || size != len(text) || r > 0xFFFF {
		return Raw{}, fmt.Errorf("invalid char constant %q: want a single UTF-16 code unit", text)
	}
	return Char(uint16(r)), nil
}
