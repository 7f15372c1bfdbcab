package simdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Params is a JSON-representable simulation input: string keys mapping
// to strings, numbers, bools, nulls, nested maps and slices.
type Params map[string]any

// Construction defaults, matching the original tool.
const (
	DefaultDirectory  = "./data"
	DefaultFiletype   = "nc"
	DefaultExecutable = "./execute.sh"
)

// Manager is the simulation database: a directory of content-addressed
// (input.json, output) file pairs plus the name-registry sidecar.
//
// A Manager is not safe for concurrent use, and two Managers pointed
// at the same directory do not exclude each other; concurrent Create
// calls for the same absent key can both run the executable. That race
// is part of the contract, not guarded against.
type Manager struct {
	directory  string
	filetype   string
	executable string

	log    *slog.Logger
	stdout io.Writer // destination for StdoutDisplay
	stderr io.Writer // destination for ErrorDisplay
}

// NewManager creates a Manager for directory, with output files using
// the filetype extension, produced by executable. Empty arguments fall
// back to the defaults. The directory is created if missing; files
// from previous sessions are recognized as existing entries.
func NewManager(directory, filetype, executable string) (*Manager, error) {
	if directory == "" {
		directory = DefaultDirectory
	}
	if filetype == "" {
		filetype = DefaultFiletype
	}
	if executable == "" {
		executable = DefaultExecutable
	}
	m := &Manager{
		filetype:   filetype,
		executable: executable,
		log:        slog.Default(),
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
	if err := m.SetDirectory(directory); err != nil {
		return nil, err
	}
	return m, nil
}

// SetDirectory points the Manager at dir, creating it if missing.
// After a successful call the directory exists.
func (m *Manager) SetDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	m.directory = dir
	return nil
}

// Directory returns the managed directory.
func (m *Manager) Directory() string { return m.directory }

// SetFiletype changes the output file extension for subsequent calls.
func (m *Manager) SetFiletype(filetype string) { m.filetype = filetype }

// Filetype returns the output file extension.
func (m *Manager) Filetype() string { return m.filetype }

// SetExecutable changes the executable for subsequent calls.
func (m *Manager) SetExecutable(executable string) { m.executable = executable }

// Executable returns the configured executable.
func (m *Manager) Executable() string { return m.executable }

// SetLogger replaces the structured logger. nil discards all logs.
func (m *Manager) SetLogger(log *slog.Logger) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	m.log = log
}

// SetOutput redirects where StdoutDisplay and ErrorDisplay write.
// Intended for embedding the Manager in other tools.
func (m *Manager) SetOutput(stdout, stderr io.Writer) {
	m.stdout = stdout
	m.stderr = stderr
}

// Hash returns the ContentKey for js. See the package-level Hash.
func (m *Manager) Hash(js Params) (string, error) {
	return Hash(js)
}

// InputPath returns the path of the input file for js: the registered
// display name if one exists, the ContentKey otherwise. It does not
// check whether the file exists.
func (m *Manager) InputPath(js Params) (string, error) {
	key, err := Hash(js)
	if err != nil {
		return "", err
	}
	reg, err := loadRegistry(m.directory)
	if err != nil {
		return "", err
	}
	return inputFilePath(m.directory, reg.resolve(key)), nil
}

// OutputPath returns the path of the output file for js at restart
// index n. It does not check whether the file exists.
func (m *Manager) OutputPath(js Params, n int) (string, error) {
	key, err := Hash(js)
	if err != nil {
		return "", err
	}
	reg, err := loadRegistry(m.directory)
	if err != nil {
		return "", err
	}
	return outputFilePath(m.directory, reg.resolve(key), n, m.filetype), nil
}

// Create runs a simulation unless its output already exists.
//
// On a cache miss the input file is written (unless an earlier chain
// member already wrote it) and the executable is invoked as
//
//	executable input output          (restart index 0)
//	executable input output previous (restart index n > 0)
//
// On success the output path is returned; it now exists. When the
// executable exits nonzero the freshly attempted output is removed,
// the input file too for index 0, and the OnError policy decides
// whether the RunError propagates. In every failure case the returned
// path is the intended (now nonexistent) output path.
//
// Calling Create again with the same js is a cheap no-op returning the
// existing path; the executable runs at most once per entry.
func (m *Manager) Create(js Params, opts ...CreateOption) (string, error) {
	o := applyOptions(createOptions{onError: ErrorRaise}, opts)
	key, err := Hash(js)
	if err != nil {
		return "", err
	}
	if o.name != "" {
		if err := m.Register(js, o.name); err != nil {
			return "", err
		}
	}
	out, err := m.OutputPath(js, o.n)
	if err != nil {
		return "", err
	}
	log := m.log.With(
		slog.String("run", uuid.Must(uuid.NewV7()).String()),
		slog.String("key", key[:6]),
		slog.Int("n", o.n),
	)
	if fileExists(out) {
		log.Debug("existing simulation", slog.String("output", out))
		return out, nil
	}
	log.Info("running simulation", slog.String("output", out))

	in, err := m.InputPath(js)
	if err != nil {
		return "", err
	}
	// A chain member > 0 shares the input file written for index 0;
	// never rewrite one that exists.
	if !fileExists(in) {
		b, err := marshalCanonical(js, 4)
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(in, b, 0o644); err != nil {
			return "", fmt.Errorf("write input: %w", err)
		}
	}

	args := []string{in, out}
	if o.n > 0 {
		prev, err := m.OutputPath(js, o.n-1)
		if err != nil {
			return "", err
		}
		args = append(args, prev)
	}
	stdout, runErr := runSim(m.executable, args...)
	if runErr != nil {
		var re *RunError
		if !errors.As(runErr, &re) {
			// the process never started; nothing was produced
			return "", runErr
		}
		// best-effort rollback of the failed attempt; the shared input
		// file of a restart chain is kept for members > 0
		if fileExists(out) {
			os.Remove(out)
		}
		if o.n == 0 {
			os.Remove(in)
		}
		log.Debug("simulation failed", slog.Int("exit", re.ExitCode))
		switch o.onError {
		case ErrorDisplay:
			fmt.Fprintf(m.stderr, "%s", re.Stderr)
		case ErrorIgnore:
		default:
			return out, re
		}
		return out, nil
	}
	if o.onStdout == StdoutDisplay {
		fmt.Fprintf(m.stdout, "%s", stdout)
	}
	log.Debug("simulation done", slog.String("output", out))
	return out, nil
}

// Recreate forces a re-simulation: Delete followed by Create with the
// same options. This is the only retry mechanism; failed runs are
// never retried automatically.
func (m *Manager) Recreate(js Params, opts ...CreateOption) (string, error) {
	o := applyOptions(createOptions{onError: ErrorRaise}, opts)
	if err := m.Delete(js, o.n); err != nil {
		return "", err
	}
	return m.Create(js, opts...)
}

// Select returns the output path for js at restart index n, or an
// error wrapping ErrNotFound when the file does not exist. It is
// usable purely as an existence probe.
func (m *Manager) Select(js Params, n int) (string, error) {
	out, err := m.OutputPath(js, n)
	if err != nil {
		return "", err
	}
	if !fileExists(out) {
		return "", fmt.Errorf("%s: %w", out, ErrNotFound)
	}
	return out, nil
}

// Exists reports whether the output file for js at restart index n
// exists. The input file is not checked.
func (m *Manager) Exists(js Params, n int) (bool, error) {
	out, err := m.OutputPath(js, n)
	if err != nil {
		return false, err
	}
	return fileExists(out), nil
}

// Count returns the logical restart-chain length for js: the number of
// contiguous indices existing from 0. It stops at the first gap, so a
// member created out of band beyond a gap is invisible.
func (m *Manager) Count(js Params) (int, error) {
	n := 0
	for {
		ok, err := m.Exists(js, n)
		if err != nil {
			return 0, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
}

// Entry describes one existing restart-chain member in the managed
// directory, as enumerated by Files.
type Entry struct {
	// ID is the display name, or the ContentKey when unregistered.
	ID string `json:"id"`

	// N is the restart index.
	N int `json:"n"`

	// InputFile is the path of the shared input file.
	InputFile string `json:"inputfile"`

	// OutputFile is the path of this member's output file.
	OutputFile string `json:"outputfile"`
}

// Files enumerates every chain member in the directory, sorted by
// (ID, N). Each input file found is re-read and re-hashed, so entries
// from previous sessions (or written by the original Python tool) are
// recognized.
func (m *Manager) Files() ([]Entry, error) {
	dirEntries, err := os.ReadDir(m.directory)
	if err != nil {
		return nil, fmt.Errorf("scan directory: %w", err)
	}
	reg, err := loadRegistry(m.directory)
	if err != nil {
		return nil, err
	}
	var table []Entry
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || name == RegistryFile {
			continue
		}
		// generated json outputs carry the out.json suffix
		if !strings.HasSuffix(name, "."+inputExt) || strings.HasSuffix(name, "out."+inputExt) {
			continue
		}
		js, err := ReadParams(filepath.Join(m.directory, name))
		if err != nil {
			return nil, err
		}
		key, err := Hash(js)
		if err != nil {
			return nil, err
		}
		count, err := m.Count(js)
		if err != nil {
			return nil, err
		}
		in, err := m.InputPath(js)
		if err != nil {
			return nil, err
		}
		for n := 0; n < count; n++ {
			out, err := m.OutputPath(js, n)
			if err != nil {
				return nil, err
			}
			table = append(table, Entry{
				ID:         reg.resolve(key),
				N:          n,
				InputFile:  in,
				OutputFile: out,
			})
		}
	}
	sort.Slice(table, func(i, j int) bool {
		if table[i].ID != table[j].ID {
			return table[i].ID < table[j].ID
		}
		return table[i].N < table[j].N
	})
	return table, nil
}

// Table returns the parsed input content of every logical entry, in
// Files order. Restart members collapse to one row.
func (m *Manager) Table() ([]Params, error) {
	files, err := m.Files()
	if err != nil {
		return nil, err
	}
	var table []Params
	for _, e := range files {
		if e.N != 0 {
			continue
		}
		js, err := ReadParams(e.InputFile)
		if err != nil {
			return nil, err
		}
		table = append(table, js)
	}
	return table, nil
}

// Delete removes the output file for js at restart index n, if it
// exists. For n == 0 the input file and any registered name are
// removed too: deleting index 0 deletes the entry's whole identity.
// Deleting an inner index n > 0 leaves a gap that truncates Count.
func (m *Manager) Delete(js Params, n int) error {
	out, err := m.OutputPath(js, n)
	if err != nil {
		return err
	}
	if !fileExists(out) {
		return nil
	}
	if err := os.Remove(out); err != nil {
		return fmt.Errorf("remove output: %w", err)
	}
	if n != 0 {
		return nil
	}
	// resolve the input path before the name binding disappears
	in, err := m.InputPath(js)
	if err != nil {
		return err
	}
	if err := os.Remove(in); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove input: %w", err)
	}
	reg, err := loadRegistry(m.directory)
	if err != nil {
		return err
	}
	key, err := Hash(js)
	if err != nil {
		return err
	}
	delete(reg, key)
	return reg.store(m.directory)
}

// DeleteAll removes every entry reported by Files, clears the
// registry, and removes the managed directory itself if that leaves it
// empty. Foreign files keep the directory alive silently. Reset the
// directory with SetDirectory to keep using the Manager afterwards.
func (m *Manager) DeleteAll() error {
	files, err := m.Files()
	if err != nil {
		return err
	}
	for _, e := range files {
		if e.N == 0 {
			if err := os.Remove(e.InputFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("remove input: %w", err)
			}
		}
		if err := os.Remove(e.OutputFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove output: %w", err)
		}
	}
	if err := (registry{}).store(m.directory); err != nil {
		return err
	}
	os.Remove(m.directory)
	return nil
}

// ReadParams reads a JSON parameter file into a Params map. Numbers
// are kept as json.Number so their exact spelling survives the
// round trip and re-hashing reproduces the original ContentKey.
func ReadParams(path string) (Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read params: %w", err)
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	dec.UseNumber()
	var js Params
	if err := dec.Decode(&js); err != nil {
		return nil, fmt.Errorf("parse params %s: %w", path, err)
	}
	return js, nil
}
