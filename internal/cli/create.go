package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simdb-io/simdb"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	N       int
	Name    string
	OnError string
	Stdout  string
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <params-file>",
		Short: "Run a simulation unless its output already exists",
		Long: `Run the configured executable for the given parameter file, or reuse
the existing output if the entry is already in the directory. Prints
the output file path.

With --n > 0 a restart-chain member is created; the previous member's
output is passed to the executable as a third argument and must exist.

Example:
  simdb create input.json
  simdb create input.json --n 1
  simdb create input.json --name long-run --on-error display`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.N, "n", 0, "restart-chain index (0 is the plain run)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "register a display name for the entry")
	cmd.Flags().StringVar(&opts.OnError, "on-error", "raise", "nonzero-exit policy (raise|display|ignore)")
	cmd.Flags().StringVar(&opts.Stdout, "stdout", "ignore", "captured-stdout policy (ignore|display)")

	return cmd
}

func runCreate(opts *CreateOptions, paramsFile string, cmd *cobra.Command) error {
	if opts.N < 0 {
		return WrapExitError(ExitCommandError, "invalid flag", fmt.Errorf("--n must be non-negative, got %d", opts.N))
	}
	onError, err := parseErrorPolicy(opts.OnError)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid flag", err)
	}
	onStdout, err := parseStdoutPolicy(opts.Stdout)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid flag", err)
	}
	js, err := LoadParams(paramsFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load parameters", err)
	}
	m, err := opts.OpenManager(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	out, err := m.Create(js,
		simdb.WithRestart(opts.N),
		simdb.WithName(opts.Name),
		simdb.OnError(onError),
		simdb.OnStdout(onStdout),
	)
	if err != nil {
		return WrapExitError(ExitFailure, "simulation failed", err)
	}
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Success(out, map[string]any{"outputfile": out, "n": opts.N})
}

func parseErrorPolicy(s string) (simdb.ErrorPolicy, error) {
	switch s {
	case "raise":
		return simdb.ErrorRaise, nil
	case "display":
		return simdb.ErrorDisplay, nil
	case "ignore":
		return simdb.ErrorIgnore, nil
	}
	return 0, fmt.Errorf("invalid error policy %q: must be raise, display or ignore", s)
}

func parseStdoutPolicy(s string) (simdb.StdoutPolicy, error) {
	switch s {
	case "ignore":
		return simdb.StdoutIgnore, nil
	case "display":
		return simdb.StdoutDisplay, nil
	}
	return 0, fmt.Errorf("invalid stdout policy %q: must be ignore or display", s)
}
