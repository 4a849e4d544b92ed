package runtime

import (
	"math"
	"testing"

	"github.com/conduit-lang/optshim/pkg/constant"
	"github.com/conduit-lang/optshim/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegerAccessors(t *testing.T) {
	v := I4(-1)
	assert.Equal(t, int32(-1), v.Int32())
	assert.Equal(t, uint32(math.MaxUint32), v.UInt32())
	assert.Equal(t, int64(-1), v.Int64())
	assert.Equal(t, uint64(math.MaxUint32), v.UInt64(), "i4 widens as unsigned 32 bits")
	assert.Equal(t, uint16(math.MaxUint16), v.UInt16())

	big := I8(math.MinInt64)
	assert.Equal(t, int64(math.MinInt64), big.Int64())

	assert.True(t, Bool(true).Bool())
	assert.Equal(t, uint16('c'), Char('c').Char())
	assert.Equal(t, float32(32), Float32(32).Float32())
}

func TestZero(t *testing.T) {
	tests := []struct {
		typ  *types.Type
		kind ValueKind
	}{
		{types.BoolType, ValI4},
		{types.UInt64Type, ValI8},
		{types.PointerTo(types.VoidType), ValNative},
		{types.Float32Type, ValFloat},
		{types.NewEnum("E", types.Int64Type), ValI8},
		{types.DecimalType, ValStruct},
		{types.NullableOf(types.Int32Type), ValStruct},
		{types.NewStruct("Guid"), ValStruct},
		{types.StringType, ValNull},
		{types.NewClass("C", nil), ValNull},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			assert.Equal(t, tt.kind, Zero(tt.typ).Kind)
		})
	}

	_, ok := Zero(types.NullableOf(types.Int32Type)).NullableValue()
	assert.False(t, ok)
	assert.True(t, Zero(types.DecimalType).Decimal().IsZero())
}

func TestNullable(t *testing.T) {
	nt := types.NullableOf(types.Int32Type)
	v := Nullable(nt, I4(32))

	inner, ok := v.NullableValue()
	require.True(t, ok)
	assert.Equal(t, int32(32), inner.Int32())
	assert.True(t, Equal(v, Nullable(nt, I4(32))))
	assert.False(t, Equal(v, Zero(nt)))
}

func TestDecimalAndDateTimeValues(t *testing.T) {
	d, err := constant.ParseDecimal("128")
	require.NoError(t, err)
	assert.True(t, Decimal(d).Decimal().Equal(d))

	dt := constant.DateTime{Ticks: 42, Kind: constant.UTC}
	assert.Equal(t, dt, DateTime(dt).DateTime())
}

func TestCopyIsolatesStructFields(t *testing.T) {
	point := types.NewStruct("Point")
	s := NewSlot(point)
	require.NoError(t, s.SetField("x", I4(1)))

	copied := s.Load()
	require.NoError(t, s.SetField("x", I4(2)))

	assert.Equal(t, int32(1), copied.Field("x").Int32())
	assert.Equal(t, int32(2), s.V.Field("x").Int32())
}

func TestSlotStoreWord(t *testing.T) {
	s := NewSlot(types.DecimalType)
	require.NoError(t, s.StoreWord(0, 1<<16))
	require.NoError(t, s.StoreWord(8, 125))
	assert.Equal(t, "12.5", s.V.Decimal().String())

	assert.Error(t, s.StoreWord(4, 0))
}

func TestEqualStrings(t *testing.T) {
	assert.True(t, Equal(String("a"), String("a")))
	assert.False(t, Equal(String("a"), String("b")))
	assert.False(t, Equal(String("a"), Null()))

	o := NewObject(types.NewClass("C", nil))
	assert.True(t, Equal(Ref(o), Ref(o)))
	assert.False(t, Equal(Ref(o), Ref(NewObject(o.Type))))
	assert.True(t, Ref(nil).IsNull())
}
