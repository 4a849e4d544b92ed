package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/optshim/internal/cli/ui"
	"github.com/conduit-lang/optshim/internal/watch"
	"github.com/conduit-lang/optshim/pkg/emit"
	"github.com/conduit-lang/optshim/pkg/metadata"
	"github.com/conduit-lang/optshim/pkg/shim"
)

var (
	checkJSON  bool
	checkWatch bool
)

// CheckOutput is the JSON form of a check run
type CheckOutput struct {
	Status  string        `json:"status"`
	Results []CheckResult `json:"results"`
	Summary CheckSummary  `json:"summary"`
}

// CheckResult is the outcome for one callable
type CheckResult struct {
	Callable     string      `json:"callable"`
	Signature    string      `json:"signature"`
	Adapter      string      `json:"adapter"`
	Built        bool        `json:"built"`
	Instructions int         `json:"instructions,omitempty"`
	Error        *shim.Error `json:"error,omitempty"`
	Message      string      `json:"message,omitempty"`
}

// CheckSummary counts the results of a check run
type CheckSummary struct {
	Total  int `json:"total"`
	Built  int `json:"built"`
	Failed int `json:"failed"`
}

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Build a trampoline for every callable",
		Long: `Build the required-arguments trampoline of every callable in the metadata.

Each method is adapted to its required parameters (receiver first for instance
methods). Each constructor is adapted as a factory returning a new instance.
Any default that cannot be materialized fails the check.`,
		Example: `  # Check the configured manifest
  optshim check

  # Check metadata stored in the database, as JSON
  optshim check --from-db --json

  # Check again every time the manifest changes
  optshim check --watch`,
		Args: cobra.NoArgs,
		RunE: runCheck,
	}

	cmd.Flags().BoolVar(&checkJSON, "json", false, "Output results in JSON format")
	cmd.Flags().BoolVarP(&checkWatch, "watch", "w", false, "Re-run the check whenever the manifest changes")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if checkWatch {
		return watchCheck(cmd, s)
	}
	return checkOnce(cmd, s)
}

// checkOnce loads the metadata, builds every trampoline and reports the results.
func checkOnce(cmd *cobra.Command, s *session) error {
	reg, err := s.registry(cmd.Context())
	if err != nil {
		return err
	}

	builder := shim.NewBuilder(shim.WithLogger(s.logger))
	output := checkRegistry(builder, reg)

	s.logger.Info("check finished",
		zap.Int("total", output.Summary.Total),
		zap.Int("failed", output.Summary.Failed),
	)

	out := cmd.OutOrStdout()
	if checkJSON {
		if err := writeCheckJSON(out, output); err != nil {
			return err
		}
	} else {
		writeCheckTerminal(out, output, s.noColor)
	}

	if output.Summary.Failed > 0 {
		return fmt.Errorf("%d of %d trampolines failed to build", output.Summary.Failed, output.Summary.Total)
	}
	return nil
}

// watchCheck runs the check, then runs it again after every change to the manifest
// until interrupted. Failures are reported and do not stop the loop.
func watchCheck(cmd *cobra.Command, s *session) error {
	if fromDBFlag {
		return fmt.Errorf("--watch needs a manifest file and cannot be combined with --from-db")
	}

	report := func() {
		if err := checkOnce(cmd, s); err != nil {
			fmt.Fprint(cmd.ErrOrStderr(), ui.Warning(err.Error(), s.noColor))
		}
	}
	report()

	watcher, err := watch.NewFileWatcher([]string{s.cfg.Manifest}, s.logger, func(files []string) error {
		fmt.Fprint(cmd.OutOrStdout(), ui.Info("manifest changed, checking again", s.noColor))
		report()
		return nil
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	s.logger.Info("watching manifest", zap.String("path", s.cfg.Manifest))
	return watcher.Run(ctx)
}

// checkRegistry builds the required-arguments trampoline of every callable in reg.
func checkRegistry(b *shim.Builder, reg *metadata.Registry) CheckOutput {
	output := CheckOutput{Status: "success", Results: []CheckResult{}}

	for _, c := range reg.Callables() {
		sig := metadata.RequiredSignature(c)
		result := CheckResult{
			Callable:  c.Name,
			Signature: sig.String(),
			Adapter:   "method",
		}

		var inv emit.Invocable
		var err error
		if c.IsConstructor() {
			result.Adapter = shim.Factory.String()
			inv, err = b.CreateConstructorTrampoline(c, sig, shim.Factory)
		} else {
			inv, err = b.CreateTrampoline(c, sig)
		}

		if err != nil {
			var e *shim.Error
			if errors.As(err, &e) {
				result.Error = e
			} else {
				result.Message = err.Error()
			}
			output.Summary.Failed++
		} else {
			result.Built = true
			result.Instructions = inv.Method().Len()
			output.Summary.Built++
		}
		output.Results = append(output.Results, result)
	}

	output.Summary.Total = len(output.Results)
	if output.Summary.Failed > 0 {
		output.Status = "failed"
	}
	return output
}

func writeCheckJSON(w io.Writer, output CheckOutput) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

func writeCheckTerminal(w io.Writer, output CheckOutput, noColor bool) {
	if output.Summary.Total == 0 {
		fmt.Fprint(w, ui.Warning("no callables to check", noColor))
		return
	}

	table := ui.NewTable(w, noColor, "CALLABLE", "ADAPTER", "SIGNATURE", "STATUS")
	for _, r := range output.Results {
		status := "ok"
		switch {
		case r.Error != nil:
			status = r.Error.Code
		case !r.Built:
			status = "error"
		}
		table.AddRow(r.Callable, r.Adapter, r.Signature, status)
	}
	table.Render()
	fmt.Fprintln(w)

	for _, r := range output.Results {
		switch {
		case r.Error != nil:
			fmt.Fprint(w, ui.BuildFailure(r.Callable, r.Error, noColor))
		case !r.Built:
			fmt.Fprint(w, ui.BuildFailure(r.Callable, errors.New(r.Message), noColor))
		}
	}

	if output.Summary.Failed == 0 {
		ui.WriteSuccess(w, fmt.Sprintf("%d trampolines built", output.Summary.Built), noColor)
	}
}
