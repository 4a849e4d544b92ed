// Package metadata describes callables: their parameters, recorded default values and
// implementations. It is the signature-description facility trampolines are built from.
package metadata

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/optshim/pkg/constant"
	"github.com/conduit-lang/optshim/pkg/runtime"
	"github.com/conduit-lang/optshim/pkg/types"
)

// Param describes one declared parameter.
//
// A parameter is required unless it is Optional or HasDefault. When HasDefault is set,
// Default holds the recorded constant, which may itself be the null constant.
type Param struct {
	Name       string
	Type       *types.Type
	Optional   bool
	HasDefault bool
	Default    constant.Raw
	In         bool
	Out        bool
}

// IsDefaulted reports whether the parameter can be elided by a caller.
func (p Param) IsDefaulted() bool {
	return p.Optional || p.HasDefault
}

func (p Param) String() string {
	prefix := ""
	switch {
	case p.In:
		prefix = "in "
	case p.Out:
		prefix = "out "
	}
	typ := p.Type.String()
	if prefix != "" && p.Type != nil && p.Type.Kind == types.ByRef {
		typ = p.Type.Elem.String()
	}
	s := prefix + typ
	if p.Name != "" {
		s += " " + p.Name
	}
	if p.HasDefault {
		s += " = " + p.Default.String()
	} else if p.Optional {
		s = "[optional] " + s
	}
	return s
}

// CallableKind distinguishes methods from constructors.
type CallableKind uint8

const (
	Method CallableKind = iota
	Constructor
)

func (k CallableKind) String() string {
	if k == Constructor {
		return "constructor"
	}
	return "method"
}

// Callable describes a method or constructor together with its implementation.
//
// Impl receives the receiver (for instance methods and constructors) followed by the
// declared parameters. A constructor's receiver is the address of the instance for value
// types and the object reference for classes; its result is ignored.
type Callable struct {
	Name      string
	Kind      CallableKind
	Declaring *types.Type
	Static    bool
	Params    []Param
	Return    *types.Type
	Impl      runtime.NativeFunc
}

// IsConstructor reports whether c is a constructor.
func (c *Callable) IsConstructor() bool {
	return c.Kind == Constructor
}

// HasReceiver reports whether c takes an implicit leading receiver.
func (c *Callable) HasReceiver() bool {
	return c.Kind == Constructor || !c.Static
}

// ReceiverType returns the receiver's declared type: a by-reference type for value types,
// the declaring type itself for classes.
func (c *Callable) ReceiverType() *types.Type {
	if c.Declaring.IsValueType() {
		return types.ByRefTo(c.Declaring)
	}
	return c.Declaring
}

// ResultType is the type the callable leaves behind when called. Constructors leave
// nothing: the receiver is initialized in place.
func (c *Callable) ResultType() *types.Type {
	if c.Kind == Constructor || c.Return == nil {
		return types.VoidType
	}
	return c.Return
}

func (c *Callable) String() string {
	params := make([]string, len(c.Params))
	for i, p := range c.Params {
		params[i] = p.String()
	}
	name := c.Name
	if name == "" {
		name = "<anonymous>"
	}
	ret := c.ResultType().String()
	if c.Kind == Constructor {
		ret = c.Declaring.String()
	}
	return fmt.Sprintf("%s(%s) -> %s", name, strings.Join(params, ", "), ret)
}

// Signature is the shape a caller wants to invoke: positional parameter types and a
// return type. Void discards whatever the target returns.
type Signature struct {
	Params []*types.Type
	Return *types.Type
}

// NewSignature builds a signature from a return type and parameter types.
func NewSignature(ret *types.Type, params ...*types.Type) *Signature {
	return &Signature{Params: params, Return: ret}
}

func (s *Signature) String() string {
	params := make([]string, len(s.Params))
	for i, p := range s.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(params, ", "), s.Return)
}
