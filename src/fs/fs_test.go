package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAbsPath(t *testing.T) {
	p, err := NewAbsPath("/repo/src/core")
	assert.NoError(t, err)
	assert.Equal(t, AbsPath("/repo/src/core"), p)

	_, err = NewAbsPath("src/core")
	assert.Error(t, err)
}

func TestAbsPathIsCanonicalised(t *testing.T) {
	p, err := NewAbsPath("/repo//src/../src/core/")
	assert.NoError(t, err)
	assert.Equal(t, AbsPath("/repo/src/core"), p)
}

func TestResolve(t *testing.T) {
	p := MustAbsPath("/repo")
	assert.Equal(t, AbsPath("/repo/src/core/BUILD"), p.Resolve("src/core/BUILD"))
	assert.Equal(t, AbsPath("/repo/BUILD"), p.Resolve("./BUILD"))
}

func TestFileNameAndDir(t *testing.T) {
	p := MustAbsPath("/repo/src/core/PACKAGE")
	assert.Equal(t, "PACKAGE", p.FileName())
	assert.Equal(t, AbsPath("/repo/src/core"), p.Dir())
}

func TestRelTo(t *testing.T) {
	root := MustAbsPath("/repo")
	rel, err := MustAbsPath("/repo/src/core/BUILD").RelTo(root)
	assert.NoError(t, err)
	assert.Equal(t, "src/core/BUILD", rel)

	_, err = MustAbsPath("/elsewhere/BUILD").RelTo(root)
	assert.Error(t, err)
}

func TestContainedIn(t *testing.T) {
	root := MustAbsPath("/repo")
	assert.True(t, MustAbsPath("/repo/src/BUILD").ContainedIn(root))
	assert.True(t, root.ContainedIn(root))
	assert.False(t, MustAbsPath("/repository/src/BUILD").ContainedIn(root))
}

func TestPathExists(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, PathExists(dir))
	assert.False(t, FileExists(dir))
	assert.True(t, IsDirectory(dir))

	f := filepath.Join(dir, "file")
	assert.NoError(t, os.WriteFile(f, []byte("contents"), 0644))
	assert.True(t, PathExists(f))
	assert.True(t, FileExists(f))
	assert.False(t, IsDirectory(f))
}
