// Package emit defines the instruction set trampolines are written in and the method
// builder that collects them.
package emit

// Opcode represents a single stack-machine instruction
type Opcode byte

const (
	// Loads
	OP_LDARG  Opcode = iota // Push argument by index
	OP_LDC_I4               // Push 32-bit integer literal
	OP_LDC_I8               // Push 64-bit integer literal
	OP_LDC_R4               // Push float32 literal
	OP_LDC_R8               // Push float64 literal
	OP_LDSTR                // Push string literal
	OP_LDNULL               // Push null reference

	// Conversions
	OP_CONV_I // Sign-extend top of stack to native int
	OP_CONV_U // Zero-extend top of stack to native unsigned int

	// Stack and arithmetic
	OP_DUP // Duplicate top of stack
	OP_ADD // Integer add; address + native offset yields an address
	OP_POP // Discard top of stack

	// Memory
	OP_STIND_I8 // [..., addr, word] -> [...]: store 64-bit word through address
	OP_LDLOC    // Push local by index
	OP_STLOC    // Pop into local by index
	OP_LDLOCA   // Push address of local
	OP_INITOBJ  // [..., addr] -> [...]: zero the value type at address

	// Calls
	OP_CALL   // Call callable with receiver and arguments from the stack
	OP_NEWOBJ // Allocate declaring type and run constructor on it
	OP_RET    // Return top of stack (or nothing for void)
)

// OpcodeNames maps opcodes to their string names (for listings)
var OpcodeNames = map[Opcode]string{
	OP_LDARG:    "LDARG",
	OP_LDC_I4:   "LDC_I4",
	OP_LDC_I8:   "LDC_I8",
	OP_LDC_R4:   "LDC_R4",
	OP_LDC_R8:   "LDC_R8",
	OP_LDSTR:    "LDSTR",
	OP_LDNULL:   "LDNULL",
	OP_CONV_I:   "CONV_I",
	OP_CONV_U:   "CONV_U",
	OP_DUP:      "DUP",
	OP_ADD:      "ADD",
	OP_POP:      "POP",
	OP_STIND_I8: "STIND_I8",
	OP_LDLOC:    "LDLOC",
	OP_STLOC:    "STLOC",
	OP_LDLOCA:   "LDLOCA",
	OP_INITOBJ:  "INITOBJ",
	OP_CALL:     "CALL",
	OP_NEWOBJ:   "NEWOBJ",
	OP_RET:      "RET",
}

func (op Opcode) String() string {
	if name, ok := OpcodeNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}
