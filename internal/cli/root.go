// Package cli implements the simdb command line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Config is the path of the project config file; empty means the
	// default simdb.yaml lookup.
	Config string

	// Directory, Filetype and Executable override the config file.
	Directory  string
	Filetype   string
	Executable string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the simdb CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "simdb",
		Short: "simdb - content-addressed simulation data",
		Long: `Manage a directory of simulation results keyed by the hash of their
input parameters: run-or-reuse outputs of an external executable,
list and name entries, and clean up.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			logLevel := slog.LevelInfo
			if opts.Verbose {
				logLevel = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			})
			slog.SetDefault(slog.New(handler))
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "project config file (default simdb.yaml if present)")
	cmd.PersistentFlags().StringVar(&opts.Directory, "dir", "", "managed data directory (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Filetype, "filetype", "", "output file extension (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Executable, "exec", "", "executable that generates the data (overrides config)")

	// Add subcommands
	cmd.AddCommand(NewHashCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewLsCommand(opts))
	cmd.AddCommand(NewTableCommand(opts))
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
