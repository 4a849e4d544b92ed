// Package vm implements the stack machine that runs emitted methods. Compile verifies a
// method once; the resulting Program can then be invoked any number of times, from any
// number of goroutines.
package vm

import (
	"fmt"

	"github.com/conduit-lang/optshim/pkg/emit"
	"github.com/conduit-lang/optshim/pkg/runtime"
)

// DefaultMaxStack bounds the evaluation stack of a verified method.
const DefaultMaxStack = 256

// Backend compiles methods into Programs.
type Backend struct {
	// MaxStack is the deepest evaluation stack a method may use. Zero means DefaultMaxStack.
	MaxStack int
}

// New returns a backend with the default limits.
func New() *Backend {
	return &Backend{MaxStack: DefaultMaxStack}
}

// Compile verifies m and returns it as an invocable Program. Verification failures are
// returned as *VerifyError.
func (b *Backend) Compile(m *emit.Method) (emit.Invocable, error) {
	if m == nil {
		return nil, &VerifyError{Offset: -1, Reason: "nil method"}
	}
	limit := b.MaxStack
	if limit == 0 {
		limit = DefaultMaxStack
	}
	depth, err := verify(m, limit)
	if err != nil {
		return nil, err
	}

	// Snapshot the method: later edits to m must not change a verified program.
	snapshot := *m
	snapshot.Code = append([]emit.Instruction(nil), m.Code...)
	snapshot.Locals = append(snapshot.Locals[:0:0], m.Locals...)
	snapshot.Params = append(snapshot.Params[:0:0], m.Params...)

	return &Program{method: &snapshot, maxStack: depth}, nil
}

// Program is a verified method.
type Program struct {
	method   *emit.Method
	maxStack int
}

// Method returns the verified method.
func (p *Program) Method() *emit.Method {
	return p.method
}

// Invoke runs the program with the given arguments. An error returned by a called
// implementation is returned as is.
func (p *Program) Invoke(args ...runtime.Value) (runtime.Value, error) {
	m := p.method
	if len(args) != len(m.Params) {
		return runtime.Value{}, fmt.Errorf("%s expects %d arguments, got %d", m.Name, len(m.Params), len(args))
	}

	f := &frame{
		program: p,
		args:    args,
		locals:  make([]*runtime.Slot, len(m.Locals)),
		stack:   make([]runtime.Value, 0, p.maxStack),
	}
	for i, t := range m.Locals {
		f.locals[i] = runtime.NewSlot(t)
	}
	return f.run()
}
