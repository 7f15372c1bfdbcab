package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/simdb-io/simdb"
)

// DefaultConfigFile is looked up in the working directory when no
// --config flag is given.
const DefaultConfigFile = "simdb.yaml"

// Config is the project config file: the three Manager construction
// fields. Missing fields fall back to the library defaults.
type Config struct {
	Directory  string `yaml:"directory"`
	Filetype   string `yaml:"filetype"`
	Executable string `yaml:"executable"`
}

// LoadConfig reads the yaml project file. With an empty path the
// default file is optional; an explicitly named file must exist.
func LoadConfig(path string) (Config, error) {
	optional := path == ""
	if optional {
		path = DefaultConfigFile
	}
	var cfg Config
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && optional {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// OpenManager builds the Manager from the project config with flag
// overrides applied, wiring its display output to the command streams.
func (o *RootOptions) OpenManager(stdout, stderr io.Writer) (*simdb.Manager, error) {
	cfg, err := LoadConfig(o.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.Directory != "" {
		cfg.Directory = o.Directory
	}
	if o.Filetype != "" {
		cfg.Filetype = o.Filetype
	}
	if o.Executable != "" {
		cfg.Executable = o.Executable
	}
	m, err := simdb.NewManager(cfg.Directory, cfg.Filetype, cfg.Executable)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open data directory", err)
	}
	m.SetOutput(stdout, stderr)
	return m, nil
}
