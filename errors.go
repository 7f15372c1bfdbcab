package simdb

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Select when no output file exists for the
// requested entry. Callers use Select with this sentinel as an
// existence probe.
var ErrNotFound = errors.New("entry does not exist")

// EncodeError reports a parameter value that cannot be rendered as
// canonical JSON. It is always propagated, never swallowed.
type EncodeError struct {
	// Value describes the offending value.
	Value string
}

func (e *EncodeError) Error() string {
	return "cannot encode " + e.Value + " as canonical JSON"
}

// NamingErrorCode categorizes registry invariant violations.
type NamingErrorCode string

const (
	// NameReserved indicates the reserved name "simplesimdb" was requested.
	NameReserved NamingErrorCode = "NAME_RESERVED"

	// NameTaken indicates the name is already bound to a different key.
	NameTaken NamingErrorCode = "NAME_TAKEN"

	// KeyBound indicates the key is already bound to a different name.
	KeyBound NamingErrorCode = "KEY_BOUND"

	// InputOrphaned indicates an input file already exists on disk under
	// the raw key; renaming now would orphan it.
	InputOrphaned NamingErrorCode = "INPUT_ORPHANED"
)

// NamingError reports a refused Register call. The registry file is
// left unmodified when one is returned.
type NamingError struct {
	Code NamingErrorCode

	// Name is the requested display name.
	Name string

	// Key is the ContentKey the name was requested for.
	Key string

	// Existing is the conflicting binding or file, depending on Code.
	Existing string
}

func (e *NamingError) Error() string {
	switch e.Code {
	case NameReserved:
		return fmt.Sprintf("%s: the name %q is reserved, choose a different name", e.Code, e.Name)
	case NameTaken:
		return fmt.Sprintf("%s: the name %q is already in use for a different simulation", e.Code, e.Name)
	case KeyBound:
		return fmt.Sprintf("%s: the input is already known under the name %q, delete it to clear the registry", e.Code, e.Existing)
	case InputOrphaned:
		return fmt.Sprintf("%s: the input file already exists as %q, delete it to clear the registry", e.Code, e.Existing)
	}
	return fmt.Sprintf("%s: cannot register %q", e.Code, e.Name)
}

// IsNamingError reports whether err is a NamingError, unwrapping as
// needed.
func IsNamingError(err error) bool {
	var ne *NamingError
	return errors.As(err, &ne)
}

// RunError reports an executable that exited with a nonzero code. It
// carries the captured stderr so error policies can surface it.
type RunError struct {
	// ExitCode is the child process exit code (nonzero).
	ExitCode int

	// Stderr is the captured standard error output.
	Stderr []byte

	// Err is the underlying process error.
	Err error
}

func (e *RunError) Error() string {
	if len(e.Stderr) > 0 {
		return fmt.Sprintf("executable exited with code %d: %s", e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("executable exited with code %d", e.ExitCode)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// IsRunError reports whether err is a RunError, unwrapping as needed.
func IsRunError(err error) bool {
	var re *RunError
	return errors.As(err, &re)
}
