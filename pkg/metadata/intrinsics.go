package metadata

import (
	"fmt"

	"github.com/conduit-lang/optshim/pkg/constant"
	"github.com/conduit-lang/optshim/pkg/runtime"
	"github.com/conduit-lang/optshim/pkg/types"
)

// DateTimeConstructor initializes a date/time in place from a tick count and a kind.
var DateTimeConstructor = &Callable{
	Name:      "datetime.ctor",
	Kind:      Constructor,
	Declaring: types.DateTimeType,
	Params: []Param{
		{Name: "ticks", Type: types.Int64Type},
		{Name: "kind", Type: types.Int32Type},
	},
	Return: types.DateTimeType,
	Impl: func(args []runtime.Value) (runtime.Value, error) {
		slot := args[0].Slot()
		if slot == nil {
			return runtime.Value{}, fmt.Errorf("datetime.ctor: receiver is not an address")
		}
		dt, err := constant.NewDateTime(args[1].Int64(), constant.DateTimeKind(args[2].Int32()))
		if err != nil {
			return runtime.Value{}, fmt.Errorf("datetime.ctor: %w", err)
		}
		slot.Store(runtime.DateTime(dt))
		return runtime.Value{}, nil
	},
}

// NullableConstructor returns the constructor that wraps a present value of the
// element type in the nullable type t.
func NullableConstructor(t *types.Type) *Callable {
	return &Callable{
		Name:      t.String() + ".ctor",
		Kind:      Constructor,
		Declaring: t,
		Params:    []Param{{Name: "value", Type: t.Elem}},
		Return:    t,
		Impl: func(args []runtime.Value) (runtime.Value, error) {
			slot := args[0].Slot()
			if slot == nil {
				return runtime.Value{}, fmt.Errorf("%s.ctor: receiver is not an address", t)
			}
			slot.Store(runtime.Nullable(t, args[1]))
			return runtime.Value{}, nil
		},
	}
}
