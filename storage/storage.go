// Package storage provides the persisters the analyzer store saves its snapshot through.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aqlanhadi/analyzer/analyzer"
)

const (
	DriverBolt   = "bolt"
	DriverFile   = "file"
	DriverMemory = "memory"
)

// DefaultPath is the snapshot location used when none is configured.
func DefaultPath(driver string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	name := "analyzer.db"
	if driver == DriverFile {
		name = "analyzer.json"
	}
	return filepath.Join(dir, "analyzer", name)
}

// Open returns the persister for driver. The returned close function releases the
// underlying file, if any.
func Open(driver, path string) (analyzer.Persister, func() error, error) {
	if path == "" {
		path = DefaultPath(driver)
	}
	switch driver {
	case DriverBolt, "":
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, err
		}
		b, err := OpenBolt(path)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	case DriverFile:
		return NewFile(path), func() error { return nil }, nil
	case DriverMemory:
		return analyzer.NewMemoryPersister(), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", driver)
}
