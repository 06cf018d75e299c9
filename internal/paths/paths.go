// Package paths resolves the directories a pipeline run reads from and
// writes to, following one precedence chain: explicit flag, configured
// value, then the CWD-relative default.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// CWD-relative directory defaults.
const (
	DefaultInputDirName  = "data/in"
	DefaultOutputDirName = "data/out"
)

// Resolve returns the directory to use: flag wins over configured, which
// wins over the CWD-relative fallback. The result is absolute.
func Resolve(flag, configured, fallback string) (string, error) {
	switch {
	case flag != "":
		return filepath.Abs(flag)
	case configured != "":
		return filepath.Abs(configured)
	default:
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(cwd, fallback), nil
	}
}

// In places path inside dir unless it is already absolute.
func In(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// Ensure creates dir, parents included, when it does not exist.
func Ensure(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}
