package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLsCommand creates the ls command.
func NewLsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List entries in the managed directory",
		Long: `Enumerate every restart-chain member in the managed directory, sorted
by id and index. With --format json the full records (id, n, input
file, output file) are printed.

Example:
  simdb ls
  simdb ls --dir ./data --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := rootOpts.OpenManager(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			entries, err := m.Files()
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list entries", err)
			}
			if rootOpts.Format == "json" {
				f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				return f.Success("", entries)
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tn=%d\t%s\n", e.ID, e.N, e.OutputFile)
			}
			return nil
		},
	}

	return cmd
}
