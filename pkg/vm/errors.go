package vm

import (
	"fmt"

	"github.com/conduit-lang/optshim/pkg/emit"
)

// VerifyError reports a method that does not satisfy the stack discipline.
type VerifyError struct {
	Method string
	Offset int
	Op     emit.Opcode
	Reason string
}

func (e *VerifyError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("invalid program %s: %s", e.Method, e.Reason)
	}
	return fmt.Sprintf("invalid program %s at %04d (%s): %s", e.Method, e.Offset, e.Op, e.Reason)
}

// RuntimeError is raised by the executor itself. Errors returned by a callee's
// implementation are passed through unchanged instead.
type RuntimeError struct {
	Method string
	Offset int
	Op     emit.Opcode
	Reason string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s at %04d (%s): %s", e.Method, e.Offset, e.Op, e.Reason)
}
