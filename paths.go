package simdb

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// RegistryFile is the sidecar file inside a managed directory that
	// persists the name registry.
	RegistryFile = "simplesimdb.json"

	// ReservedName is refused by Register: an input named like this
	// would collide with the registry sidecar.
	ReservedName = "simplesimdb"

	// inputExt is the extension of every input file.
	inputExt = "json"
)

// Path computation is pure: no existence checks, no I/O. The sidecar
// name is built here and nowhere else, so registry access and entry
// paths cannot diverge.

// inputFilePath returns directory/<stem>.json.
func inputFilePath(dir, stem string) string {
	return filepath.Join(dir, stem+"."+inputExt)
}

// outputFilePath returns the output path for restart index n. Index 0
// is unsuffixed; n > 0 appends the hex suffix ("0x1", "0x2", ...) to
// the stem. A json output gets the "_out" suffix so it cannot collide
// with the input file.
func outputFilePath(dir, stem string, n int, filetype string) string {
	if n > 0 {
		stem += fmt.Sprintf("%#x", n)
	}
	if filetype == inputExt {
		return filepath.Join(dir, stem+"_out."+inputExt)
	}
	return filepath.Join(dir, stem+"."+filetype)
}

func registryFilePath(dir string) string {
	return filepath.Join(dir, RegistryFile)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
