package safarixcode

import (
	"os"

	"github.com/google/renameio/v2"
)

// readFile reads a scaffold file, reporting failures as IOError.
func readFile(path string) ([]byte, os.FileMode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, &IOError{Op: "stat", Path: path, Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, &IOError{Op: "read", Path: path, Err: err}
	}
	return data, info.Mode().Perm(), nil
}

// writeFileAtomic replaces path with data through a temporary file in the
// same directory, so a crash never leaves a truncated file behind.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	if err := renameio.WriteFile(path, data, mode); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
