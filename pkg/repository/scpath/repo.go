package scpath

import (
	"fmt"
	"path/filepath"
	"strings"
)

// String returns the path as a string
func (rp RepositoryPath) String() string {
	return string(rp)
}

// IsValid checks if this is a valid absolute path
func (rp RepositoryPath) IsValid() bool {
	return filepath.IsAbs(string(rp))
}

// Join joins path elements to the repository path
func (rp RepositoryPath) Join(elem ...string) AbsolutePath {
	parts := append([]string{string(rp)}, elem...)
	return AbsolutePath(filepath.Join(parts...))
}

// JoinRelative safely joins a relative path to the repository path with validation
// This method ensures the resulting path stays within the repository directory
// The RelativePath type guarantees the input is already normalized and validated
func (rp RepositoryPath) JoinRelative(relPath RelativePath) (AbsolutePath, error) {
	if !relPath.IsValid() {
		return "", fmt.Errorf("invalid relative path: %s", relPath)
	}

	normalized := relPath.Normalize()
	if normalized == "" || normalized == "." {
		return AbsolutePath(rp), nil
	}

	result := filepath.Join(string(rp), string(normalized))
	absResult := AbsolutePath(result)

	relCheck, err := filepath.Rel(string(rp), string(absResult))
	if err != nil {
		return "", fmt.Errorf("failed to validate path: %w", err)
	}

	if filepath.IsAbs(relCheck) || relCheck == ".." || strings.HasPrefix(relCheck, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes repository: %s", relPath)
	}

	return absResult, nil
}

// ObjectsRoot returns the path to the objects directory.
func (rp RepositoryPath) ObjectsRoot() AbsolutePath {
	return rp.Join(ObjectsDir)
}

// BlobsRoot, TreesRoot, CommitsRoot return the per-kind object subdirectory.
func (rp RepositoryPath) BlobsRoot() AbsolutePath   { return rp.Join(ObjectsDir, BlobsDir) }
func (rp RepositoryPath) TreesRoot() AbsolutePath   { return rp.Join(ObjectsDir, TreesDir) }
func (rp RepositoryPath) CommitsRoot() AbsolutePath { return rp.Join(ObjectsDir, CommitsDir) }

// RefsRoot returns the path to the refs directory.
func (rp RepositoryPath) RefsRoot() AbsolutePath {
	return rp.Join(RefsDir)
}

// TmpRoot returns the path to the tmp directory used for staging writes
// before atomic rename into the object store.
func (rp RepositoryPath) TmpRoot() AbsolutePath {
	return rp.Join(TmpDir)
}

// LockPath returns the path to the repository's advisory lock file.
func (rp RepositoryPath) LockPath() AbsolutePath {
	return rp.Join(LockFile)
}

// ConfigPath returns the path to the repository's config.toml.
func (rp RepositoryPath) ConfigPath() AbsolutePath {
	return rp.Join(ConfigFile)
}

// NewRepositoryPath creates a new RepositoryPath from a string
func NewRepositoryPath(path string) (RepositoryPath, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return RepositoryPath(absPath), nil
}
