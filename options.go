package simdb

// ErrorPolicy controls what Create and Repeater.Run do when the
// executable exits nonzero.
type ErrorPolicy int

const (
	// ErrorRaise propagates the RunError to the caller.
	ErrorRaise ErrorPolicy = iota

	// ErrorDisplay prints the captured stderr and returns normally.
	ErrorDisplay

	// ErrorIgnore returns normally with no output.
	ErrorIgnore
)

// StdoutPolicy controls what happens to the executable's captured
// standard output.
type StdoutPolicy int

const (
	// StdoutIgnore throws the captured output away.
	StdoutIgnore StdoutPolicy = iota

	// StdoutDisplay prints the captured output after a successful run.
	StdoutDisplay
)

type createOptions struct {
	n        int
	name     string
	onError  ErrorPolicy
	onStdout StdoutPolicy
}

// CreateOption configures a single Create, Recreate or Repeater.Run
// call.
type CreateOption func(*createOptions)

// WithRestart selects restart-chain index n. Index 0 is the plain run;
// for n > 0 the previous member's output is passed to the executable
// as a third argument. The caller must have created index n-1 first.
func WithRestart(n int) CreateOption {
	return func(o *createOptions) { o.n = n }
}

// WithName registers name for the record before running, as if by
// Register. A NamingError aborts the call before any file is touched.
func WithName(name string) CreateOption {
	return func(o *createOptions) { o.name = name }
}

// OnError sets the nonzero-exit policy. The default for Create is
// ErrorRaise; Repeater.Run defaults to ErrorDisplay.
func OnError(p ErrorPolicy) CreateOption {
	return func(o *createOptions) { o.onError = p }
}

// OnStdout sets the captured-stdout policy. Default StdoutIgnore.
func OnStdout(p StdoutPolicy) CreateOption {
	return func(o *createOptions) { o.onStdout = p }
}

func applyOptions(defaults createOptions, opts []CreateOption) createOptions {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}
