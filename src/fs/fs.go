// Package fs provides various filesystem helpers.
package fs

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// An AbsPath is a canonicalised absolute file path.
// Two AbsPaths compare equal iff they name the same path after cleaning.
type AbsPath string

// NewAbsPath creates an AbsPath from the given string, which must be absolute.
func NewAbsPath(p string) (AbsPath, error) {
	if !filepath.IsAbs(p) {
		return "", fmt.Errorf("Path is not absolute: %s", p)
	}
	return AbsPath(path.Clean(p)), nil
}

// MustAbsPath is NewAbsPath but panics on a non-absolute path.
func MustAbsPath(p string) AbsPath {
	abs, err := NewAbsPath(p)
	if err != nil {
		panic(err)
	}
	return abs
}

// ExpandAbsPath resolves a possibly-relative path against the working directory.
func ExpandAbsPath(p string) (AbsPath, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return AbsPath(path.Clean(abs)), nil
}

func (p AbsPath) String() string {
	return string(p)
}

// Resolve joins a relative path onto this one and cleans the result.
func (p AbsPath) Resolve(rel string) AbsPath {
	return AbsPath(path.Join(string(p), rel))
}

// FileName returns the final element of the path.
func (p AbsPath) FileName() string {
	return path.Base(string(p))
}

// Dir returns the path's parent directory.
func (p AbsPath) Dir() AbsPath {
	return AbsPath(path.Dir(string(p)))
}

// RelTo returns this path relative to the given root, or an error if it isn't under it.
func (p AbsPath) RelTo(root AbsPath) (string, error) {
	rel, err := filepath.Rel(string(root), string(p))
	if err != nil {
		return "", err
	} else if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("Path %s is not contained in %s", p, root)
	}
	return rel, nil
}

// ContainedIn returns true if this path is equal to or underneath the given root.
func (p AbsPath) ContainedIn(root AbsPath) bool {
	_, err := p.RelTo(root)
	return err == nil
}

// PathExists returns true if the given path exists, as a file or a directory.
func PathExists(filename string) bool {
	_, err := os.Lstat(filename)
	return err == nil
}

// FileExists returns true if the given path exists and is a file.
func FileExists(filename string) bool {
	info, err := os.Lstat(filename)
	return err == nil && !info.IsDir()
}

// IsDirectory returns true if the given path exists and is a directory.
func IsDirectory(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && info.IsDir()
}
