package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// DeleteOptions holds flags for the delete command.
type DeleteOptions struct {
	*RootOptions
	N   int
	All bool
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete [params-file]",
		Short: "Delete an entry, one chain member, or everything",
		Long: `Delete the entry for the given parameter file. With --n 0 (default)
the input file, index-0 output and any registered name are removed;
--n > 0 removes only that restart member, leaving a gap.

With --all every entry, the registry and (if then empty) the directory
itself are removed.

Example:
  simdb delete input.json
  simdb delete input.json --n 2
  simdb delete --all`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(opts, args, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.N, "n", 0, "restart-chain index to delete")
	cmd.Flags().BoolVar(&opts.All, "all", false, "delete every entry and the registry")

	return cmd
}

func runDelete(opts *DeleteOptions, args []string, cmd *cobra.Command) error {
	m, err := opts.OpenManager(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.All {
		if len(args) > 0 {
			return WrapExitError(ExitCommandError, "invalid arguments", fmt.Errorf("--all takes no params file"))
		}
		if err := m.DeleteAll(); err != nil {
			return WrapExitError(ExitFailure, "failed to delete entries", err)
		}
		return f.Success("deleted all entries", map[string]string{"deleted": "all"})
	}
	if len(args) == 0 {
		return WrapExitError(ExitCommandError, "invalid arguments", fmt.Errorf("a params file or --all is required"))
	}
	js, err := LoadParams(args[0])
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load parameters", err)
	}
	if opts.N < 0 {
		return WrapExitError(ExitCommandError, "invalid flag", fmt.Errorf("--n must be non-negative, got %d", opts.N))
	}
	if err := m.Delete(js, opts.N); err != nil {
		return WrapExitError(ExitFailure, "failed to delete entry", err)
	}
	return f.Success("deleted", map[string]any{"n": opts.N})
}
