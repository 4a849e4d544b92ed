package shim

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/conduit-lang/optshim/pkg/constant"
	"github.com/conduit-lang/optshim/pkg/types"
)

// Error codes
// S001-S005: build errors
// S006-S007: argument and backend errors
const (
	CodeNullInput              = "S001"
	CodeReturnTypeMismatch     = "S002"
	CodeParameterShapeMismatch = "S003"
	CodeInvalidEncoding        = "S004"
	CodeUnsupportedValueKind   = "S005"
	CodeInvalidArgument        = "S006"
	CodeInvalidProgram         = "S007"
)

// Error kinds. Every *Error unwraps to one of these, so callers can test with errors.Is.
var (
	ErrNullInput              = errors.New("null input")
	ErrReturnTypeMismatch     = errors.New("return type mismatch")
	ErrParameterShapeMismatch = errors.New("parameter shape mismatch")
	ErrInvalidEncoding        = errors.New("invalid encoding")
	ErrUnsupportedValueKind   = errors.New("unsupported value kind")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrInvalidProgram         = errors.New("invalid program")
)

var kindCodes = map[error]string{
	ErrNullInput:              CodeNullInput,
	ErrReturnTypeMismatch:     CodeReturnTypeMismatch,
	ErrParameterShapeMismatch: CodeParameterShapeMismatch,
	ErrInvalidEncoding:        CodeInvalidEncoding,
	ErrUnsupportedValueKind:   CodeUnsupportedValueKind,
	ErrInvalidArgument:        CodeInvalidArgument,
	ErrInvalidProgram:         CodeInvalidProgram,
}

// ParamRef identifies the parameter an error is about.
type ParamRef struct {
	Index   int          // position in the target's parameter list, receiver excluded
	Name    string       // declared name, may be empty
	Type    *types.Type  // declared type
	Default constant.Raw // recorded default, if any
}

func (p *ParamRef) String() string {
	name := p.Name
	if name == "" {
		name = fmt.Sprintf("#%d", p.Index)
	}
	return fmt.Sprintf("parameter %s (%s)", name, p.Type)
}

// Error is a trampoline build failure.
type Error struct {
	Code    string    // "S001", "S002", etc.
	Kind    error     // one of the Err* sentinels
	Message string    // Human-readable message
	Param   *ParamRef // Optional offending parameter
	cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Kind, e.Message)
}

// Unwrap returns the error kind, and the underlying cause when there is one.
func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Kind, e.cause}
	}
	return []error{e.Kind}
}

// MarshalJSON implements json.Marshaler
func (e *Error) MarshalJSON() ([]byte, error) {
	type param struct {
		Index   int    `json:"index"`
		Name    string `json:"name,omitempty"`
		Type    string `json:"type"`
		Default string `json:"default,omitempty"`
	}
	var p *param
	if e.Param != nil {
		p = &param{Index: e.Param.Index, Name: e.Param.Name, Type: e.Param.Type.String()}
		if e.Param.Default.Kind() != constant.KindNull {
			p.Default = e.Param.Default.String()
		}
	}
	return json.Marshal(struct {
		Code    string `json:"code"`
		Kind    string `json:"kind"`
		Message string `json:"message"`
		Param   *param `json:"param,omitempty"`
	}{
		Code:    e.Code,
		Kind:    e.Kind.Error(),
		Message: e.Message,
		Param:   p,
	})
}

func newError(kind error, format string, args ...interface{}) *Error {
	return &Error{
		Code:    kindCodes[kind],
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *Error) withParam(p *ParamRef) *Error {
	e.Param = p
	return e
}

func (e *Error) withCause(err error) *Error {
	e.cause = err
	return e
}

// CodeOf returns the code of a build error, or "" for any other error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
