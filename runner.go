package simdb

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
)

// runSim invokes the executable synchronously with the given file
// arguments, capturing both output streams. There is no timeout: a
// hung executable hangs the caller, by contract.
//
// A nonzero exit status is returned as a *RunError carrying the
// captured stderr; only the exit code decides success, the stream
// contents are never interpreted. Failing to start the process at all
// (missing file, permissions) is an ordinary error, not a RunError.
func runSim(executable string, args ...string) ([]byte, error) {
	cmd := exec.Command(executable, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.Bytes(), &RunError{
				ExitCode: exitErr.ExitCode(),
				Stderr:   stderr.Bytes(),
				Err:      err,
			}
		}
		return stdout.Bytes(), fmt.Errorf("run %s: %w", executable, err)
	}
	return stdout.Bytes(), nil
}
