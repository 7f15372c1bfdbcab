package simdb

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Default file pair for a Repeater.
const (
	DefaultInputFile  = "temp.json"
	DefaultOutputFile = "temp.nc"
)

// Repeater manages a single fixed (input, output) file pair. Use it
// when storing every parameter variant on disk is unwanted: the input
// file is overwritten on every Run and the executable always invoked,
// with no hashing, no registry and no restart chain.
type Repeater struct {
	executable string
	inputFile  string
	outputFile string

	stdout io.Writer
	stderr io.Writer
}

// NewRepeater sets the executable and the file pair to reuse. Empty
// arguments fall back to the defaults.
func NewRepeater(executable, inputFile, outputFile string) *Repeater {
	if executable == "" {
		executable = DefaultExecutable
	}
	if inputFile == "" {
		inputFile = DefaultInputFile
	}
	if outputFile == "" {
		outputFile = DefaultOutputFile
	}
	return &Repeater{
		executable: executable,
		inputFile:  inputFile,
		outputFile: outputFile,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
}

// SetExecutable changes the executable for subsequent runs.
func (r *Repeater) SetExecutable(executable string) { r.executable = executable }

// Executable returns the configured executable.
func (r *Repeater) Executable() string { return r.executable }

// SetInputFile changes the fixed input file path.
func (r *Repeater) SetInputFile(path string) { r.inputFile = path }

// InputFile returns the fixed input file path.
func (r *Repeater) InputFile() string { return r.inputFile }

// SetOutputFile changes the fixed output file path.
func (r *Repeater) SetOutputFile(path string) { r.outputFile = path }

// OutputFile returns the fixed output file path.
func (r *Repeater) OutputFile() string { return r.outputFile }

// SetOutput redirects where StdoutDisplay and ErrorDisplay write.
func (r *Repeater) SetOutput(stdout, stderr io.Writer) {
	r.stdout = stdout
	r.stderr = stderr
}

// Run writes js to the fixed input file, unconditionally overwriting
// it, and invokes the executable with the fixed pair. There is no
// cache check. Only the OnError and OnStdout options apply; unlike
// Create, the default error policy is ErrorDisplay.
func (r *Repeater) Run(js Params, opts ...CreateOption) error {
	o := applyOptions(createOptions{onError: ErrorDisplay}, opts)
	b, err := marshalCanonical(js, 4)
	if err != nil {
		return err
	}
	if err := os.WriteFile(r.inputFile, b, 0o644); err != nil {
		return fmt.Errorf("write input: %w", err)
	}
	stdout, runErr := runSim(r.executable, r.inputFile, r.outputFile)
	if runErr != nil {
		var re *RunError
		if !errors.As(runErr, &re) {
			return runErr
		}
		switch o.onError {
		case ErrorDisplay:
			fmt.Fprintf(r.stderr, "%s", re.Stderr)
		case ErrorIgnore:
		default:
			return re
		}
		return nil
	}
	if o.onStdout == StdoutDisplay {
		fmt.Fprintf(r.stdout, "%s", stdout)
	}
	return nil
}

// Clean removes the fixed input and output files if present.
func (r *Repeater) Clean() error {
	for _, path := range []string{r.inputFile, r.outputFile} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	}
	return nil
}
