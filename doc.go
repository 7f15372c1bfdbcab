// Package simdb manages a content-addressable cache of simulation
// results on plain files, without a database.
//
// A Manager owns one directory of (input, output) file pairs. The
// input is a JSON parameter map; its canonical serialization is hashed
// (SHA-1) and the hex digest names both files. Given a parameter map,
// Create either returns the existing output file or invokes a
// user-supplied executable to produce it:
//
//	m, _ := simdb.NewManager("./data", "nc", "./execute.sh")
//	out, err := m.Create(simdb.Params{"Nx": 48, "dt": 1e-5})
//
// The executable is called as
//
//	executable input.json output
//
// and must write the output file itself. Long simulations can be
// partitioned into restart chains: Create with WithRestart(n) for n>0
// passes the previous member's output as a third argument,
//
//	executable input.json output_n output_(n-1)
//
// Human-readable names can be registered for a parameter map and are
// persisted in the simplesimdb.json sidecar inside the directory, so
// the files of frequently used inputs get recognizable names.
//
// The canonical serialization sorts keys and escapes non-ASCII, and
// the numeric type is part of an entry's identity: Params{"a": 10}
// and Params{"a": 10.0} are two different entries. Normalize your
// parameter values accordingly.
//
// All operations are synchronous and unlocked. Two processes pointed
// at the same directory can race on Create for the same absent key and
// both run the executable; callers that need mutual exclusion must
// provide it themselves.
package simdb
