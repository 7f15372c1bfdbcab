package cli

import (
	"github.com/spf13/cobra"

	"github.com/simdb-io/simdb"
)

// NewHashCommand creates the hash command.
func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash <params-file>",
		Short: "Print the content key of a parameter file",
		Long: `Compute the content key (hex SHA-1 of the canonical serialization) of
a JSON or YAML parameter file. The key names the entry's files unless
a display name is registered.

Example:
  simdb hash input.json
  simdb hash sweep/point-03.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			js, err := LoadParams(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load parameters", err)
			}
			key, err := simdb.Hash(js)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to hash parameters", err)
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(key, map[string]string{"key": key})
		},
	}

	return cmd
}
