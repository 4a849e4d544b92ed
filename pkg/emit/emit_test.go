package emit

import (
	"testing"

	"github.com/conduit-lang/optshim/pkg/metadata"
	"github.com/conduit-lang/optshim/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestOpcodeNamesComplete(t *testing.T) {
	for op := OP_LDARG; op <= OP_RET; op++ {
		_, ok := OpcodeNames[op]
		assert.True(t, ok, "opcode %d has no name", op)
	}
	assert.Equal(t, "UNKNOWN", Opcode(255).String())
}

func TestInstructionString(t *testing.T) {
	target := &metadata.Callable{Name: "Widget.resize", Static: true}

	tests := []struct {
		ins  Instruction
		want string
	}{
		{Ldarg(2), "LDARG 2"},
		{LdcI4(-5), "LDC_I4 -5"},
		{LdcI8(1 << 40), "LDC_I8 1099511627776"},
		{LdcR4(1.5), "LDC_R4 1.5"},
		{LdcR8(0.1), "LDC_R8 0.1"},
		{Ldstr("a\"b"), `LDSTR "a\"b"`},
		{Op(OP_LDNULL), "LDNULL"},
		{Initobj(types.DecimalType), "INITOBJ decimal"},
		{Call(target), "CALL Widget.resize"},
		{Newobj(nil), "NEWOBJ <nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ins.String())
		})
	}
}

func TestMethodBuilder(t *testing.T) {
	m := NewMethod("shim", nil, []*types.Type{types.Int32Type})
	assert.True(t, m.Return.IsVoid())

	var e Emitter = m
	assert.Equal(t, 0, e.DeclareLocal(types.DecimalType))
	assert.Equal(t, 1, e.DeclareLocal(types.Int32Type))
	e.Emit(Ldarg(0))
	e.Emit(Op(OP_POP))
	e.Emit(Op(OP_RET))
	assert.Equal(t, 3, m.Len())

	want := "== shim (int32) -> void ==\n" +
		".local 0 decimal\n" +
		".local 1 int32\n" +
		"0000 LDARG 0\n" +
		"0001 POP\n" +
		"0002 RET\n"
	assert.Equal(t, want, Disassemble(m))
}
