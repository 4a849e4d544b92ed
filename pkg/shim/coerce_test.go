package shim

import (
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/conduit-lang/optshim/pkg/constant"
	"github.com/conduit-lang/optshim/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type intKind struct {
	kind     constant.Kind
	typ      *types.Type
	min, max *big.Int
}

func bigRange(lo int64, hi uint64) (*big.Int, *big.Int) {
	return big.NewInt(lo), new(big.Int).SetUint64(hi)
}

func intKinds() []intKind {
	mk := func(k constant.Kind, t *types.Type, lo int64, hi uint64) intKind {
		lower, upper := bigRange(lo, hi)
		return intKind{kind: k, typ: t, min: lower, max: upper}
	}
	return []intKind{
		mk(constant.KindInt8, types.Int8Type, math.MinInt8, math.MaxInt8),
		mk(constant.KindUInt8, types.UInt8Type, 0, math.MaxUint8),
		mk(constant.KindInt16, types.Int16Type, math.MinInt16, math.MaxInt16),
		mk(constant.KindUInt16, types.UInt16Type, 0, math.MaxUint16),
		mk(constant.KindInt32, types.Int32Type, math.MinInt32, math.MaxInt32),
		mk(constant.KindUInt32, types.UInt32Type, 0, math.MaxUint32),
		mk(constant.KindInt64, types.Int64Type, math.MinInt64, math.MaxInt64),
		mk(constant.KindUInt64, types.UInt64Type, 0, math.MaxUint64),
	}
}

func (k intKind) holds(v *big.Int) bool {
	return v.Cmp(k.min) >= 0 && v.Cmp(k.max) <= 0
}

func (k intKind) raw(v *big.Int) constant.Raw {
	switch k.kind {
	case constant.KindInt8:
		return constant.Int8(int8(v.Int64()))
	case constant.KindUInt8:
		return constant.UInt8(uint8(v.Uint64()))
	case constant.KindInt16:
		return constant.Int16(int16(v.Int64()))
	case constant.KindUInt16:
		return constant.UInt16(uint16(v.Uint64()))
	case constant.KindInt32:
		return constant.Int32(int32(v.Int64()))
	case constant.KindUInt32:
		return constant.UInt32(uint32(v.Uint64()))
	case constant.KindInt64:
		return constant.Int64(v.Int64())
	}
	return constant.UInt64(v.Uint64())
}

func TestCoerceIntegerBoundaryGrid(t *testing.T) {
	one := big.NewInt(1)
	kinds := intKinds()

	for _, src := range kinds {
		for _, dst := range kinds {
			candidates := []*big.Int{
				big.NewInt(0),
				src.min, src.max,
				dst.min, dst.max,
				new(big.Int).Sub(dst.min, one),
				new(big.Int).Add(dst.max, one),
			}
			for _, v := range candidates {
				if !src.holds(v) {
					continue
				}
				name := fmt.Sprintf("%s(%s)->%s", src.kind, v, dst.typ)
				t.Run(name, func(t *testing.T) {
					r, ok := Coerce(dst.typ, src.raw(v))
					if !dst.holds(v) {
						assert.False(t, ok)
						return
					}
					require.True(t, ok)
					assert.Equal(t, integerResolved[dst.typ.Kind], r.Kind)
					if v.Sign() < 0 {
						assert.Equal(t, v.Int64(), r.Int64())
					} else {
						assert.Equal(t, v.Uint64(), r.Bits())
					}
				})
			}
		}
	}
}

func TestCoerceRejectsNonIntegersIntoIntegers(t *testing.T) {
	enum := types.NewEnum("Color", types.Int32Type)
	sources := []constant.Raw{
		constant.Bool(true),
		constant.Bool(false),
		constant.Char('a'),
		constant.Float32(1),
		constant.Float64(1),
		constant.DecimalValue(constant.DecimalFromInt64(1)),
		constant.NativeInt(1),
		constant.NativeUInt(1),
		constant.Enum(enum, 1),
		constant.String("1"),
	}
	for _, k := range intKinds() {
		for _, raw := range sources {
			t.Run(fmt.Sprintf("%s->%s", raw, k.typ), func(t *testing.T) {
				_, ok := Coerce(k.typ, raw)
				assert.False(t, ok)
			})
		}
	}
}

func TestCoerceBool(t *testing.T) {
	tests := []struct {
		raw  constant.Raw
		ok   bool
		want uint64
	}{
		{constant.Bool(true), true, 1},
		{constant.Bool(false), true, 0},
		{constant.Int32(1), true, 1},
		{constant.UInt8(0), true, 0},
		{constant.Int64(1), true, 1},
		{constant.UInt64(1), true, 1},
		{constant.Int32(2), false, 0},
		{constant.Int8(-1), false, 0},
		{constant.Char(1), false, 0},
		{constant.Float64(1), false, 0},
		{constant.String("true"), false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw.String(), func(t *testing.T) {
			r, ok := Coerce(types.BoolType, tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, ResolvedBool, r.Kind)
				assert.Equal(t, tt.want, r.Bits())
			}
		})
	}
}

func TestCoerceChar(t *testing.T) {
	tests := []struct {
		raw  constant.Raw
		ok   bool
		want uint64
	}{
		{constant.Char('x'), true, 'x'},
		{constant.Int32(65), true, 65},
		{constant.UInt16(math.MaxUint16), true, math.MaxUint16},
		{constant.Int32(math.MaxUint16 + 1), false, 0},
		{constant.Int16(-1), false, 0},
		{constant.Bool(true), false, 0},
		{constant.Float32(65), false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw.String(), func(t *testing.T) {
			r, ok := Coerce(types.CharType, tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, ResolvedChar, r.Kind)
				assert.Equal(t, tt.want, r.Bits())
			}
		})
	}
}

func TestCoerceFloats(t *testing.T) {
	r, ok := Coerce(types.Float32Type, constant.Float32(32))
	require.True(t, ok)
	assert.Equal(t, ResolvedFloat32, r.Kind)
	assert.Equal(t, 32.0, r.Float())

	r, ok = Coerce(types.Float32Type, constant.Float64(0.1))
	require.True(t, ok)
	assert.Equal(t, float64(float32(0.1)), r.Float())

	// Narrowing never range checks.
	r, ok = Coerce(types.Float32Type, constant.Float64(math.MaxFloat64))
	require.True(t, ok)
	assert.True(t, math.IsInf(r.Float(), 1))

	r, ok = Coerce(types.Float64Type, constant.Float64(64))
	require.True(t, ok)
	assert.Equal(t, ResolvedFloat64, r.Kind)
	assert.Equal(t, 64.0, r.Float())

	rejected := []struct {
		typ *types.Type
		raw constant.Raw
	}{
		{types.Float64Type, constant.Float32(1)},
		{types.Float64Type, constant.Int32(1)},
		{types.Float32Type, constant.Int32(1)},
		{types.Float32Type, constant.DecimalValue(constant.DecimalFromInt64(1))},
	}
	for _, tt := range rejected {
		_, ok := Coerce(tt.typ, tt.raw)
		assert.False(t, ok, "%s -> %s", tt.raw, tt.typ)
	}
}

func TestCoerceNativeAndPointer(t *testing.T) {
	ptr := types.PointerTo(types.Int32Type)

	tests := []struct {
		name string
		typ  *types.Type
		raw  constant.Raw
		ok   bool
		kind ResolvedKind
		bits uint64
	}{
		{"pointer from uint32 max", ptr, constant.UInt32(math.MaxUint32), true, ResolvedNativeUInt, math.MaxUint32},
		{"pointer from int32", ptr, constant.Int32(16), true, ResolvedNativeUInt, 16},
		{"pointer from negative", ptr, constant.Int32(-1), false, 0, 0},
		{"pointer from uint64 above 32 bits", ptr, constant.UInt64(math.MaxUint32 + 1), false, 0, 0},
		{"nuint from uint16", types.NativeUIntType, constant.UInt16(7), true, ResolvedNativeUInt, 7},
		{"nuint from raw nuint", types.NativeUIntType, constant.NativeUInt(7), false, 0, 0},
		{"nint from int32 min", types.NativeIntType, constant.Int32(math.MinInt32), true, ResolvedNativeInt, uint64(math.MaxUint64 - math.MaxInt32)},
		{"nint from int64 above 32 bits", types.NativeIntType, constant.Int64(math.MaxInt32 + 1), false, 0, 0},
		{"nint from raw nint", types.NativeIntType, constant.NativeInt(7), false, 0, 0},
		{"nint from bool", types.NativeIntType, constant.Bool(true), false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := Coerce(tt.typ, tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.kind, r.Kind)
				assert.Equal(t, tt.bits, r.Bits())
				assert.Same(t, tt.typ, r.Type)
			}
		})
	}
}

func TestCoerceEnum(t *testing.T) {
	color := types.NewEnum("Color", types.UInt8Type)
	other := types.NewEnum("Shape", types.UInt8Type)
	signed := types.NewEnum("Delta", types.Int16Type)

	r, ok := Coerce(color, constant.Enum(color, 3))
	require.True(t, ok)
	assert.Equal(t, ResolvedEnum, r.Kind)
	assert.Same(t, color, r.Type)
	inner, ok := r.Inner()
	require.True(t, ok)
	assert.Equal(t, ResolvedUInt8, inner.Kind)
	assert.Equal(t, uint64(3), inner.Bits())

	r, ok = Coerce(color, constant.Int32(200))
	require.True(t, ok)
	inner, _ = r.Inner()
	assert.Equal(t, uint64(200), inner.Bits())

	r, ok = Coerce(signed, constant.Enum(signed, -4))
	require.True(t, ok)
	inner, _ = r.Inner()
	assert.Equal(t, ResolvedInt16, inner.Kind)
	assert.Equal(t, int64(-4), inner.Int64())

	_, ok = Coerce(color, constant.Int32(256))
	assert.False(t, ok)
	_, ok = Coerce(color, constant.Enum(other, 1))
	assert.False(t, ok)
	_, ok = Coerce(color, constant.Bool(true))
	assert.False(t, ok)

	bare := types.NewEnum("Bare", nil)
	assert.NotPanics(t, func() {
		_, ok = Coerce(bare, constant.Enum(bare, 1))
	})
	assert.False(t, ok, "an enum without an underlying type has no representation")
	_, ok = Coerce(bare, constant.Int32(1))
	assert.False(t, ok)
}

func TestCoerceWrappers(t *testing.T) {
	nullable := types.NullableOf(types.Int16Type)
	r, ok := Coerce(nullable, constant.Int32(-5))
	require.True(t, ok)
	assert.Equal(t, ResolvedNullable, r.Kind)
	assert.Same(t, nullable, r.Type)
	inner, ok := r.Inner()
	require.True(t, ok)
	assert.Equal(t, ResolvedInt16, inner.Kind)
	assert.Equal(t, int64(-5), inner.Int64())

	_, ok = Coerce(nullable, constant.UInt16(40000))
	assert.False(t, ok)

	byref := types.ByRefTo(types.Float64Type)
	r, ok = Coerce(byref, constant.Float64(2.5))
	require.True(t, ok)
	assert.Equal(t, ResolvedByRef, r.Kind)
	assert.Same(t, types.Float64Type, r.Type)
	inner, _ = r.Inner()
	assert.Equal(t, 2.5, inner.Float())

	_, ok = Coerce(byref, constant.Float32(2.5))
	assert.False(t, ok)
}

func TestCoerceExactTypes(t *testing.T) {
	dec, err := constant.ParseDecimal("12.25")
	require.NoError(t, err)
	dt, err := constant.NewDateTime(630822816000000000, constant.UTC)
	require.NoError(t, err)
	point := types.NewStruct("Point")
	widget := types.NewClass("Widget", nil)

	r, ok := Coerce(types.DecimalType, constant.DecimalValue(dec))
	require.True(t, ok)
	assert.Equal(t, ResolvedDecimal, r.Kind)
	assert.True(t, dec.Equal(r.Decimal()))

	r, ok = Coerce(types.DateTimeType, constant.DateTimeValue(dt))
	require.True(t, ok)
	assert.Equal(t, dt, r.DateTime())

	r, ok = Coerce(types.StringType, constant.String("hi"))
	require.True(t, ok)
	assert.Equal(t, "hi", r.Text())

	rejected := []struct {
		typ *types.Type
		raw constant.Raw
	}{
		{types.DecimalType, constant.Int32(1)},
		{types.DecimalType, constant.Float64(1)},
		{types.DateTimeType, constant.Int64(1)},
		{types.StringType, constant.Char('a')},
		{types.ObjectType, constant.String("hi")},
		{types.ObjectType, constant.Int32(1)},
		{point, constant.Int32(0)},
		{widget, constant.String("w")},
		{types.VoidType, constant.Int32(0)},
		{nil, constant.Int32(0)},
		{types.Int32Type, constant.Null()},
		{types.DateTimeType, constant.DateTimeValue(constant.DateTime{Ticks: -1})},
		{types.DateTimeType, constant.DateTimeValue(constant.DateTime{Ticks: constant.MaxTicks + 1})},
		{types.DateTimeType, constant.DateTimeValue(constant.DateTime{Kind: 9})},
		{types.DecimalType, constant.DecimalValue(constant.Decimal{Flags: 29 << 16, Lo: 1})},
		{types.DecimalType, constant.DecimalValue(constant.Decimal{Flags: 1, Lo: 1})},
	}
	for _, tt := range rejected {
		_, ok := Coerce(tt.typ, tt.raw)
		assert.False(t, ok, "%s -> %s", tt.raw, tt.typ)
	}
}

func TestResolvedString(t *testing.T) {
	r, ok := Coerce(types.Int8Type, constant.Int32(-3))
	require.True(t, ok)
	assert.Equal(t, "int8(-3)", r.String())

	r, ok = Coerce(types.StringType, constant.String("a"))
	require.True(t, ok)
	assert.Equal(t, `string("a")`, r.String())

	assert.Equal(t, "invalid", Resolved{}.String())
	assert.Equal(t, "boxed nullable", ResolvedNullable.String())
	assert.Equal(t, "unknown", ResolvedKind(99).String())
}
