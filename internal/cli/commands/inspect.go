package commands

import (
	"fmt"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/optshim/internal/cli/ui"
	"github.com/conduit-lang/optshim/pkg/emit"
	"github.com/conduit-lang/optshim/pkg/metadata"
	"github.com/conduit-lang/optshim/pkg/shim"
	"github.com/conduit-lang/optshim/pkg/types"
)

var (
	inspectSignature   string
	inspectConstructor string
	inspectInteractive bool
)

// NewInspectCommand creates the inspect command
func NewInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [callable]",
		Short: "Build one trampoline and print its instructions",
		Long: `Build a trampoline for the named callable and print the resulting method.

Without --signature the trampoline takes exactly the callable's required
parameters. Constructors are adapted as factories unless --constructor
initializer is given.`,
		Example: `  # Show the required-arguments trampoline
  optshim inspect Widget.paint

  # Adapt to an explicit signature, discarding the result
  optshim inspect Widget.resize --signature "(Shape, int32)"

  # Adapt a constructor as an in-place initializer
  optshim inspect Point.ctor --constructor initializer

  # Pick the callable from a list
  optshim inspect --interactive`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInspect,
	}

	cmd.Flags().StringVarP(&inspectSignature, "signature", "s", "", `Desired signature, e.g. "(int32, ref Point) -> bool"`)
	cmd.Flags().StringVar(&inspectConstructor, "constructor", "", "Constructor adapter: factory or initializer")
	cmd.Flags().BoolVarP(&inspectInteractive, "interactive", "i", false, "Choose the callable interactively")

	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	reg, err := s.registry(cmd.Context())
	if err != nil {
		return err
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	} else if inspectInteractive {
		prompt := &survey.Select{
			Message: "Select a callable:",
			Options: reg.Names(),
		}
		if err := survey.AskOne(prompt, &name); err != nil {
			return err
		}
	} else {
		return fmt.Errorf("callable name required\n\nUsage: optshim inspect <callable>")
	}

	c, err := reg.Lookup(name)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.CallableNotFound(name, reg.Names(), s.noColor))
		return err
	}

	kind, err := constructorKind(c, inspectConstructor)
	if err != nil {
		return err
	}

	var desired *metadata.Signature
	if inspectSignature != "" {
		desired, err = metadata.ParseSignature(inspectSignature, reg)
		if err != nil {
			return err
		}
	} else {
		desired = requiredFor(c, kind)
	}

	builder := shim.NewBuilder(shim.WithLogger(s.logger))
	var inv emit.Invocable
	if c.IsConstructor() {
		inv, err = builder.CreateConstructorTrampoline(c, desired, kind)
	} else {
		inv, err = builder.CreateTrampoline(c, desired)
	}
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.BuildFailure(name, err, s.noColor))
		return err
	}

	m := inv.Method()
	out := cmd.OutOrStdout()

	header := ui.NewKeyValueTable(out, s.noColor)
	header.AddRow("callable", c.String())
	if c.IsConstructor() {
		header.AddRow("adapter", kind.String())
	} else {
		header.AddRow("adapter", "method")
	}
	header.AddRow("signature", desired.String())
	header.AddRow("artifact", m.Name)
	header.AddRow("instructions", strconv.Itoa(m.Len()))
	header.AddRow("locals", strconv.Itoa(len(m.Locals)))
	header.Render()

	fmt.Fprintln(out)
	fmt.Fprint(out, emit.Disassemble(m))
	return nil
}

// constructorKind resolves the --constructor flag for c.
func constructorKind(c *metadata.Callable, flag string) (shim.ConstructorKind, error) {
	if !c.IsConstructor() {
		if flag != "" {
			return 0, fmt.Errorf("--constructor applies to constructors only; %s is a method", c.Name)
		}
		return 0, nil
	}
	switch flag {
	case "", "factory":
		return shim.Factory, nil
	case "initializer":
		return shim.Initializer, nil
	}
	return 0, fmt.Errorf("unknown constructor adapter %q (want factory or initializer)", flag)
}

// requiredFor is the signature supplying exactly c's required arguments. An initializer
// takes the instance first and returns nothing.
func requiredFor(c *metadata.Callable, kind shim.ConstructorKind) *metadata.Signature {
	sig := metadata.RequiredSignature(c)
	if c.IsConstructor() && kind == shim.Initializer {
		params := append([]*types.Type{c.ReceiverType()}, sig.Params...)
		return metadata.NewSignature(types.VoidType, params...)
	}
	return sig
}
