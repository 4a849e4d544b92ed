package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/optshim/internal/cli/config"
	"github.com/conduit-lang/optshim/internal/cli/ui"
	"github.com/conduit-lang/optshim/internal/logging"
	"github.com/conduit-lang/optshim/internal/store"
	"github.com/conduit-lang/optshim/pkg/metadata"
)

// session holds what every command needs: the resolved configuration, a logger and the
// color preference.
type session struct {
	cfg     *config.Config
	logger  *zap.Logger
	noColor bool
}

// openSession loads the configuration and applies the global flags. Configuration
// problems are reported on the command's error stream.
func openSession(cmd *cobra.Command) (*session, error) {
	dir := configDirFlag
	if dir == "" {
		found, err := config.FindConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate configuration: %w", err)
		}
		dir = found
	}

	cfg, err := config.Load(dir)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), noColorFlag))
		return nil, err
	}
	if manifestFlag != "" {
		cfg.Manifest = manifestFlag
	}

	level := cfg.Log.Level
	if verboseFlag {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:     cfg,
		logger:  logger,
		noColor: noColorFlag || cfg.Output.NoColor,
	}, nil
}

func (s *session) close() {
	// Sync reports an error for terminals.
	_ = s.logger.Sync()
}

// openStore connects to the configured metadata database.
func (s *session) openStore() (*store.Store, error) {
	st, err := store.Open(s.cfg.Database.Driver, s.cfg.Database.DSN, s.logger)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// manifest reads the metadata either from the manifest file or, with --from-db, from
// the database.
func (s *session) manifest(ctx context.Context) (*metadata.Manifest, error) {
	if !fromDBFlag {
		s.logger.Debug("reading manifest", zap.String("path", s.cfg.Manifest))
		return metadata.LoadManifestFile(s.cfg.Manifest)
	}

	st, err := s.openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()

	s.logger.Debug("reading metadata store",
		zap.String("driver", s.cfg.Database.Driver),
	)
	return st.Load(ctx)
}

// registry resolves the session's metadata into a registry.
func (s *session) registry(ctx context.Context) (*metadata.Registry, error) {
	m, err := s.manifest(ctx)
	if err != nil {
		return nil, err
	}
	reg, err := metadata.NewRegistryFromManifest(m)
	if err != nil {
		return nil, fmt.Errorf("invalid metadata: %w", err)
	}
	return reg, nil
}
