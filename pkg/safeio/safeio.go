// Package safeio holds the guarded file helpers used when reading installed
// package trees and writing reports.
package safeio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideBase is returned when a path resolves outside the directory it must stay in.
var ErrOutsideBase = errors.New("path is outside base directory")

// CleanUserPath cleans a user-provided path and rejects traversal attempts.
// Returns paths with forward slashes for cross-platform consistency.
func CleanUserPath(p string) (string, error) {
	c := filepath.Clean(p)
	if strings.Contains(c, "..") {
		return "", errors.New("path traversal detected")
	}
	return filepath.ToSlash(c), nil
}

// Contained reports whether target resolves to baseDir or somewhere below it.
func Contained(baseDir, target string) (bool, error) {
	baseAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return false, fmt.Errorf("resolve base directory: %w", err)
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return false, fmt.Errorf("resolve path: %w", err)
	}
	rel, err := filepath.Rel(baseAbs, targetAbs)
	if err != nil {
		return false, fmt.Errorf("compute relative path: %w", err)
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}

// ReadFileContained reads a file only if it is contained within baseDir.
// Errors from the read itself are returned unwrapped so callers can test
// them with errors.Is(err, fs.ErrNotExist).
func ReadFileContained(baseDir, filePath string) ([]byte, error) {
	ok, err := Contained(baseDir, filePath)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOutsideBase, filePath)
	}
	// #nosec G304 -- containment verified above
	return os.ReadFile(filePath)
}

// IsDir reports whether path exists and is a directory. Symlinks are followed.
func IsDir(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

// WriteFilePreservePerms writes data to path preserving existing file mode when possible.
// When the file does not exist, it uses a sane default of 0644.
func WriteFilePreservePerms(path string, data []byte) error {
	var mode os.FileMode = 0o644
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode() & 0o777
		if mode == 0 {
			mode = 0o644
		}
	}
	return os.WriteFile(path, data, mode)
}
