package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// NewTableCommand creates the table command.
func NewTableCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Print the input parameters of every entry",
		Long: `Print the parsed input content of every logical entry as a JSON list,
one element per distinct input (restart members collapse to one row).

Example:
  simdb table | jq '.[] | select(.Nx == 48)'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := rootOpts.OpenManager(cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			table, err := m.Table()
			if err != nil {
				return WrapExitError(ExitFailure, "failed to read entries", err)
			}
			if rootOpts.Format == "json" {
				f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				return f.Success("", table)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "    ")
			return enc.Encode(table)
		},
	}

	return cmd
}
