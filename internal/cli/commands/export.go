package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var exportOutput string

// NewExportCommand creates the export command
func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the metadata database as a manifest",
		Long:  "Read every type and callable from the metadata database and write them as a YAML manifest.",
		Example: `  # Print the stored manifest
  optshim export

  # Write it to a file
  optshim export -o widgets.yaml`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	st, err := s.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	m, err := st.Load(cmd.Context())
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOutput, err)
		}
		defer f.Close()
		out = f
	}

	return m.Encode(out)
}
