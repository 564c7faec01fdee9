package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath turns the init path argument into an absolute path.
// "" and "." mean the current directory; a leading "~" is the home directory.
func ResolvePath(rawPath string) (string, error) {
	if rawPath == "" {
		rawPath = "."
	}
	if rawPath == "~" || strings.HasPrefix(rawPath, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding ~: %w", err)
		}
		rawPath = filepath.Join(home, strings.TrimPrefix(rawPath, "~"))
	}

	abs, err := filepath.Abs(rawPath)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}
	return abs, nil
}

// EnsureDirectory creates path and its parents unless it already is a directory.
func EnsureDirectory(path string) error {
	info, err := os.Stat(path)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("path exists and is not a directory: %s", path)
	case err == nil:
		return nil
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("checking path %s: %w", path, err)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", path, err)
	}
	return nil
}

// resolveTargetDirectory picks the init target: path argument, then --dir,
// then the current directory.
func resolveTargetDirectory(args []string, dir string) (string, error) {
	rawPath := dir
	if len(args) > 0 && args[0] != "" {
		rawPath = args[0]
	}
	return ResolvePath(rawPath)
}
