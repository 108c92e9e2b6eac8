package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator keeps computed output paths inside a configured directory
type PathValidator struct {
	configuredDirectory string
}

// NewPathValidator creates a new path validator for the given directory
func NewPathValidator(configuredDirectory string) (*PathValidator, error) {
	if configuredDirectory == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}

	absDir, err := filepath.Abs(configuredDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configured directory: %w", err)
	}

	// The directory does not have to exist yet; the output root is created lazily.
	return &PathValidator{
		configuredDirectory: filepath.Clean(absDir),
	}, nil
}

// GetConfiguredDirectory returns the configured directory path
func (v *PathValidator) GetConfiguredDirectory() string {
	return v.configuredDirectory
}

// ValidatePath checks if a path is within the configured directory
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	isWithin, err := v.IsPathWithinDirectory(path)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}

	if !isWithin {
		return fmt.Errorf("path is outside configured directory: %s", path)
	}

	return nil
}

// IsPathWithinDirectory checks if a path is within the configured directory
func (v *PathValidator) IsPathWithinDirectory(path string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	cleanPath := filepath.Clean(absPath)

	if withinDir(cleanPath, v.configuredDirectory) {
		// An existing symlink must not lead out of the directory either.
		if info, err := os.Lstat(cleanPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(cleanPath)
			if err != nil {
				return false, fmt.Errorf("failed to evaluate symlinks: %w", err)
			}
			return withinDir(resolved, v.realDirectory()), nil
		}
		return true, nil
	}

	return false, nil
}

// realDirectory returns the configured directory with symlinks resolved when possible
func (v *PathValidator) realDirectory() string {
	if resolved, err := filepath.EvalSymlinks(v.configuredDirectory); err == nil {
		return resolved
	}
	return v.configuredDirectory
}

func withinDir(path, dir string) bool {
	if path == dir {
		return true
	}
	dirWithSep := dir
	if !strings.HasSuffix(dirWithSep, string(filepath.Separator)) {
		dirWithSep += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dirWithSep)
}

// MirrorPath maps a file under inputRoot to the same relative location under
// the configured directory. It returns the relative path and the output path.
func (v *PathValidator) MirrorPath(inputRoot, file string) (string, string, error) {
	absRoot, err := filepath.Abs(inputRoot)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve input root: %w", err)
	}
	absFile, err := filepath.Abs(file)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve path: %w", err)
	}

	rel, err := filepath.Rel(absRoot, absFile)
	if err != nil {
		return "", "", fmt.Errorf("failed to compute relative path: %w", err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("path is outside input root: %s", file)
	}

	out := filepath.Join(v.configuredDirectory, rel)
	if err := v.ValidatePath(out); err != nil {
		return "", "", err
	}

	return rel, out, nil
}
