package simdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// registry is the persisted ContentKey -> display name mapping. It is
// read fully into memory, mutated, and rewritten; there is no
// concurrent-writer protection (see the package comment).
type registry map[string]string

// loadRegistry reads the sidecar file in dir. A missing file is an
// empty registry.
func loadRegistry(dir string) (registry, error) {
	raw, err := os.ReadFile(registryFilePath(dir))
	if errors.Is(err, fs.ErrNotExist) {
		return registry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	var reg registry
	if err := json.Unmarshal(raw, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", registryFilePath(dir), err)
	}
	return reg, nil
}

// store rewrites the sidecar file in dir. An empty registry deletes
// the file instead, so no empty-object artifact is left behind.
func (r registry) store(dir string) error {
	path := registryFilePath(dir)
	if len(r) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove registry: %w", err)
		}
		return nil
	}
	m := make(map[string]any, len(r))
	for k, v := range r {
		m[k] = v
	}
	b, err := marshalCanonical(m, 4)
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	return nil
}

// resolve returns the display name bound to key, defaulting to the key
// itself when unregistered.
func (r registry) resolve(key string) string {
	if name, ok := r[key]; ok {
		return name
	}
	return key
}

// Register binds a human-readable display name to the entry identified
// by js. The binding is persisted in the registry sidecar and from
// then on names every file of the entry.
//
// Register fails with a NamingError, leaving the registry file
// unchanged, if name is the reserved name, if the entry is already
// known under a different name, if the name is bound to a different
// entry, or if an unregistered input file for js already exists on
// disk (renaming it now would orphan it).
func (m *Manager) Register(js Params, name string) error {
	key, err := Hash(js)
	if err != nil {
		return err
	}
	if name == ReservedName {
		return &NamingError{Code: NameReserved, Name: name, Key: key}
	}
	reg, err := loadRegistry(m.directory)
	if err != nil {
		return err
	}
	if existing, ok := reg[key]; ok {
		if existing != name {
			return &NamingError{Code: KeyBound, Name: name, Key: key, Existing: existing}
		}
		// already bound to this exact name
		return nil
	}
	for k, v := range reg {
		if v == name && k != key {
			return &NamingError{Code: NameTaken, Name: name, Key: key, Existing: k}
		}
	}
	if raw := inputFilePath(m.directory, key); fileExists(raw) {
		return &NamingError{Code: InputOrphaned, Name: name, Key: key, Existing: raw}
	}
	reg[key] = name
	return reg.store(m.directory)
}

// Registry returns the complete key -> name mapping from the sidecar
// file. The map may be empty.
func (m *Manager) Registry() (map[string]string, error) {
	reg, err := loadRegistry(m.directory)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// SetRegistry replaces the sidecar file wholesale. An empty or nil map
// deletes it. This bypasses every Register check and can corrupt the
// naming scheme; prefer Register.
func (m *Manager) SetRegistry(reg map[string]string) error {
	return registry(reg).store(m.directory)
}
