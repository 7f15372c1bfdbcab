package cli

import (
	"github.com/spf13/cobra"
)

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register <params-file> <name>",
		Short: "Bind a display name to an entry",
		Long: `Register a human-readable name for the given parameters. The binding
is persisted in the simplesimdb.json sidecar and from then on names
every file of the entry. Names are unique per directory and immutable
until the entry is deleted.

Example:
  simdb register input.json long-run`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			js, err := LoadParams(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load parameters", err)
			}
			m, err := rootOpts.OpenManager(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := m.Register(js, args[1]); err != nil {
				return WrapExitError(ExitFailure, "failed to register name", err)
			}
			key, err := m.Hash(js)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to hash parameters", err)
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(args[1], map[string]string{"key": key, "name": args[1]})
		},
	}

	return cmd
}
