package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/simdb-io/simdb"
)

// LoadParams reads a parameter file. JSON is the native format; .yaml
// and .yml files are accepted and decoded to the same map shape (yaml
// keeps integers integral, so numeric identity survives).
func LoadParams(path string) (simdb.Params, error) {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read params: %w", err)
		}
		var js simdb.Params
		if err := yaml.Unmarshal(raw, &js); err != nil {
			return nil, fmt.Errorf("parse params %s: %w", path, err)
		}
		return js, nil
	default:
		return simdb.ReadParams(path)
	}
}
