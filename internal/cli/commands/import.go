package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/optshim/internal/cli/ui"
	"github.com/conduit-lang/optshim/pkg/metadata"
)

// NewImportCommand creates the import command
func NewImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import [manifest]",
		Short: "Store a manifest in the metadata database",
		Long: `Validate a manifest and replace the contents of the metadata database with it.

The database schema is created when missing. Without an argument the configured
manifest is imported.`,
		Example: `  # Import the configured manifest
  optshim import

  # Import into PostgreSQL
  OPTSHIM_DATABASE_DRIVER=postgres OPTSHIM_DATABASE_DSN=postgres://localhost/optshim optshim import widgets.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: runImport,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	path := s.cfg.Manifest
	if len(args) == 1 {
		path = args[0]
	}

	m, err := metadata.LoadManifestFile(path)
	if err != nil {
		return err
	}
	if _, err := metadata.NewRegistryFromManifest(m); err != nil {
		return fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	st, err := s.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	if err := st.Migrate(ctx); err != nil {
		return err
	}
	if err := st.Save(ctx, m); err != nil {
		return err
	}

	ui.WriteSuccess(cmd.OutOrStdout(),
		fmt.Sprintf("imported %d types and %d callables into %s", len(m.Types), len(m.Callables), s.cfg.Database.Driver),
		s.noColor)
	return nil
}
