package vm

import (
	"errors"
	"testing"

	"github.com/conduit-lang/optshim/pkg/constant"
	"github.com/conduit-lang/optshim/pkg/emit"
	"github.com/conduit-lang/optshim/pkg/metadata"
	"github.com/conduit-lang/optshim/pkg/runtime"
	"github.com/conduit-lang/optshim/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func method(ret *types.Type, params []*types.Type, code ...emit.Instruction) *emit.Method {
	m := emit.NewMethod("test", ret, params)
	for _, ins := range code {
		m.Emit(ins)
	}
	return m
}

func sum3() *metadata.Callable {
	return &metadata.Callable{
		Name:   "sum3",
		Static: true,
		Params: []metadata.Param{
			{Name: "a", Type: types.Int32Type},
			{Name: "b", Type: types.Int32Type},
			{Name: "c", Type: types.Int32Type},
		},
		Return: types.Int32Type,
		Impl: func(args []runtime.Value) (runtime.Value, error) {
			return runtime.I4(args[0].Int32()*100 + args[1].Int32()*10 + args[2].Int32()), nil
		},
	}
}

func TestVerify(t *testing.T) {
	target := sum3()

	tests := []struct {
		name    string
		m       *emit.Method
		wantErr bool
	}{
		{"empty", method(nil, nil), true},
		{"no ret", method(nil, nil, emit.Op(emit.OP_LDNULL)), true},
		{"void ret", method(nil, nil, emit.Op(emit.OP_RET)), false},
		{"value left on void ret", method(nil, nil, emit.LdcI4(1), emit.Op(emit.OP_RET)), true},
		{"missing return value", method(types.Int32Type, nil, emit.Op(emit.OP_RET)), true},
		{"underflow", method(nil, nil, emit.Op(emit.OP_POP), emit.Op(emit.OP_RET)), true},
		{"arg out of range", method(types.Int32Type, []*types.Type{types.Int32Type}, emit.Ldarg(1), emit.Op(emit.OP_RET)), true},
		{"local out of range", method(types.Int32Type, nil, emit.Ldloc(0), emit.Op(emit.OP_RET)), true},
		{"ret in middle", method(nil, nil, emit.Op(emit.OP_RET), emit.Op(emit.OP_RET)), true},
		{"call underflow", method(types.Int32Type, nil, emit.LdcI4(1), emit.Call(target), emit.Op(emit.OP_RET)), true},
		{"call", method(types.Int32Type, nil, emit.LdcI4(1), emit.LdcI4(2), emit.LdcI4(3), emit.Call(target), emit.Op(emit.OP_RET)), false},
		{"newobj of method", method(types.Int32Type, nil, emit.LdcI4(1), emit.LdcI4(2), emit.LdcI4(3), emit.Newobj(target), emit.Op(emit.OP_RET)), true},
		{"initobj of class", method(nil, nil, emit.Op(emit.OP_LDNULL), emit.Initobj(types.StringType), emit.Op(emit.OP_RET)), true},
		{"unknown opcode", method(nil, nil, emit.Op(emit.Opcode(200)), emit.Op(emit.OP_RET)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Compile(tt.m)
			if tt.wantErr {
				var verr *VerifyError
				assert.True(t, errors.As(err, &verr), "want *VerifyError, got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestStackLimit(t *testing.T) {
	m := method(nil, nil, emit.LdcI4(1), emit.LdcI4(2), emit.Op(emit.OP_POP), emit.Op(emit.OP_POP), emit.Op(emit.OP_RET))
	_, err := (&Backend{MaxStack: 1}).Compile(m)
	assert.Error(t, err)

	_, err = (&Backend{MaxStack: 2}).Compile(m)
	assert.NoError(t, err)
}

func TestInvokeForwardsArguments(t *testing.T) {
	m := method(types.Int32Type, []*types.Type{types.Int32Type, types.Int32Type},
		emit.Ldarg(0), emit.LdcI4(5), emit.Ldarg(1), emit.Call(sum3()), emit.Op(emit.OP_RET))

	prog, err := New().Compile(m)
	require.NoError(t, err)

	result, err := prog.Invoke(runtime.I4(1), runtime.I4(2))
	require.NoError(t, err)
	assert.Equal(t, int32(152), result.Int32())

	_, err = prog.Invoke(runtime.I4(1))
	assert.Error(t, err, "argument count")
}

func TestInvokePropagatesImplementationErrors(t *testing.T) {
	boom := errors.New("boom")
	failing := &metadata.Callable{
		Name:   "fail",
		Static: true,
		Return: types.VoidType,
		Impl: func(args []runtime.Value) (runtime.Value, error) {
			return runtime.Value{}, boom
		},
	}
	prog, err := New().Compile(method(nil, nil, emit.Call(failing), emit.Op(emit.OP_RET)))
	require.NoError(t, err)

	_, err = prog.Invoke()
	assert.Same(t, boom, err)
}

func TestMissingImplementation(t *testing.T) {
	c := &metadata.Callable{Name: "unbound", Static: true, Return: types.VoidType}
	prog, err := New().Compile(method(nil, nil, emit.Call(c), emit.Op(emit.OP_RET)))
	require.NoError(t, err)

	_, err = prog.Invoke()
	var rerr *RuntimeError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, emit.OP_CALL, rerr.Op)
}

func TestNativeConversions(t *testing.T) {
	tests := []struct {
		name string
		op   emit.Opcode
		in   int32
		want uint64
	}{
		{"conv_i negative", emit.OP_CONV_I, -5, 0xFFFFFFFFFFFFFFFB},
		{"conv_u negative", emit.OP_CONV_U, -5, 0xFFFFFFFB},
		{"conv_u positive", emit.OP_CONV_U, 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := New().Compile(method(types.NativeUIntType, nil, emit.LdcI4(tt.in), emit.Op(tt.op), emit.Op(emit.OP_RET)))
			require.NoError(t, err)
			v, err := prog.Invoke()
			require.NoError(t, err)
			assert.Equal(t, runtime.ValNative, v.Kind)
			assert.Equal(t, tt.want, v.Data)
		})
	}
}

func TestDecimalStoreSequence(t *testing.T) {
	d, err := constant.ParseDecimal("-79228162514264337593543950335")
	require.NoError(t, err)
	w0, w1 := d.Words()

	m := emit.NewMethod("dec", types.DecimalType, nil)
	l := m.DeclareLocal(types.DecimalType)
	m.Emit(emit.Ldloca(l))
	m.Emit(emit.Op(emit.OP_DUP))
	m.Emit(emit.LdcI8(int64(w0)))
	m.Emit(emit.Op(emit.OP_STIND_I8))
	m.Emit(emit.LdcI4(8))
	m.Emit(emit.Op(emit.OP_CONV_I))
	m.Emit(emit.Op(emit.OP_ADD))
	m.Emit(emit.LdcI8(int64(w1)))
	m.Emit(emit.Op(emit.OP_STIND_I8))
	m.Emit(emit.Ldloc(l))
	m.Emit(emit.Op(emit.OP_RET))

	prog, err := New().Compile(m)
	require.NoError(t, err)
	v, err := prog.Invoke()
	require.NoError(t, err)
	assert.True(t, d.Equal(v.Decimal()))
}

func TestInitobjAndLocals(t *testing.T) {
	nt := types.NullableOf(types.Int32Type)
	m := emit.NewMethod("zero", nt, nil)
	l := m.DeclareLocal(nt)
	m.Emit(emit.Ldloca(l))
	m.Emit(emit.Initobj(nt))
	m.Emit(emit.Ldloc(l))
	m.Emit(emit.Op(emit.OP_RET))

	prog, err := New().Compile(m)
	require.NoError(t, err)
	v, err := prog.Invoke()
	require.NoError(t, err)
	_, ok := v.NullableValue()
	assert.False(t, ok)
}

func TestNewobjValueTypeAndClass(t *testing.T) {
	nt := types.NullableOf(types.Int16Type)
	prog, err := New().Compile(method(nt, nil, emit.LdcI4(-3), emit.Newobj(metadata.NullableConstructor(nt)), emit.Op(emit.OP_RET)))
	require.NoError(t, err)
	v, err := prog.Invoke()
	require.NoError(t, err)
	inner, ok := v.NullableValue()
	require.True(t, ok)
	assert.Equal(t, int16(-3), inner.Int16())

	widget := types.NewClass("Widget", nil)
	ctor := &metadata.Callable{
		Name:      "Widget.ctor",
		Kind:      metadata.Constructor,
		Declaring: widget,
		Params:    []metadata.Param{{Name: "size", Type: types.Int32Type}},
		Return:    widget,
		Impl: func(args []runtime.Value) (runtime.Value, error) {
			args[0].Object().Fields["size"] = args[1]
			return runtime.Value{}, nil
		},
	}
	prog, err = New().Compile(method(widget, nil, emit.LdcI4(9), emit.Newobj(ctor), emit.Op(emit.OP_RET)))
	require.NoError(t, err)
	v, err = prog.Invoke()
	require.NoError(t, err)
	require.NotNil(t, v.Object())
	assert.Equal(t, int32(9), v.Field("size").Int32())
}

func TestByRefLocal(t *testing.T) {
	incr := &metadata.Callable{
		Name:   "incr",
		Static: true,
		Params: []metadata.Param{{Name: "p", Type: types.ByRefTo(types.Int32Type)}},
		Return: types.Int32Type,
		Impl: func(args []runtime.Value) (runtime.Value, error) {
			slot := args[0].Slot()
			slot.Store(runtime.I4(slot.V.Int32() + 1))
			return slot.Load(), nil
		},
	}

	m := emit.NewMethod("byref", types.Int32Type, nil)
	l := m.DeclareLocal(types.Int32Type)
	m.Emit(emit.LdcI4(41))
	m.Emit(emit.Stloc(l))
	m.Emit(emit.Ldloca(l))
	m.Emit(emit.Call(incr))
	m.Emit(emit.Op(emit.OP_RET))

	prog, err := New().Compile(m)
	require.NoError(t, err)
	v, err := prog.Invoke()
	require.NoError(t, err)
	assert.Equal(t, int32(42), v.Int32())
}

func TestCompileSnapshotsMethod(t *testing.T) {
	m := method(types.Int32Type, nil, emit.LdcI4(1), emit.Op(emit.OP_RET))
	prog, err := New().Compile(m)
	require.NoError(t, err)

	m.Code[0] = emit.LdcI4(2)
	v, err := prog.Invoke()
	require.NoError(t, err)
	assert.Equal(t, int32(1), v.Int32())
	assert.Equal(t, 2, prog.Method().Len())
}
