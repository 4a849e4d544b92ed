package commands

import (
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

var (
	configDirFlag string
	manifestFlag  string
	fromDBFlag    bool
	noColorFlag   bool
	verboseFlag   bool
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "optshim",
		Short: "Default-parameter trampoline builder",
		Long: color.CyanString(`optshim - Default-Parameter Trampolines

optshim builds adapters that call a method or constructor with only its
required arguments, supplying every other parameter from its recorded default.

Features:
  • Exact default coercion with range checks
  • Constructor adapters (in-place initializers and factories)
  • Verified stack-machine programs
  • Metadata manifests in YAML, SQLite or PostgreSQL`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configDirFlag, "config-dir", "", "Directory holding optshim.yaml (default: nearest parent with one)")
	flags.StringVarP(&manifestFlag, "manifest", "m", "", "Metadata manifest to read (overrides the configured manifest)")
	flags.BoolVar(&fromDBFlag, "from-db", false, "Read metadata from the configured database instead of the manifest")
	flags.BoolVar(&noColorFlag, "no-color", false, "Disable colored output")
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "Log at debug level")

	// Add subcommands
	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewCheckCommand())
	rootCmd.AddCommand(NewInspectCommand())
	rootCmd.AddCommand(NewImportCommand())
	rootCmd.AddCommand(NewExportCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the optshim version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			// Set GoVersion to actual runtime if not set at build time
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)
			if noColorFlag {
				titleColor.DisableColor()
				valueColor.DisableColor()
			}

			out := cmd.OutOrStdout()
			titleColor.Fprint(out, "optshim version: ")
			valueColor.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			valueColor.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			valueColor.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			valueColor.Fprintln(out, goVer)
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
