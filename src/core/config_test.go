package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thought-machine/celld/src/fs"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(filename, []byte(contents), 0644))
	return filename
}

func TestReadConfigDefaults(t *testing.T) {
	config, err := ReadConfigFiles(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"BUILD"}, config.Parse.BuildFileName)
	assert.Equal(t, "PACKAGE", config.Parse.PackageFileName)
	assert.Greater(t, config.Parse.Parallelism, 0)
}

func TestMissingConfigFileIsNotAnError(t *testing.T) {
	_, err := ReadConfigFiles([]string{"/does/not/exist/.celldconfig"})
	assert.NoError(t, err)
}

func TestReadConfigFile(t *testing.T) {
	filename := writeConfig(t, `
[parse]
build-file-name = BUCK
build-file-name = BUCK.v2
package-file-name = PACKAGE
parallelism = 4

[cell "xplat"]
root = ../xplat
`)
	config, err := ReadConfigFiles([]string{filename})
	require.NoError(t, err)
	assert.Equal(t, []string{"BUCK", "BUCK.v2"}, config.Parse.BuildFileName)
	assert.Equal(t, 4, config.Parse.Parallelism)
	require.Contains(t, config.Cell, "xplat")
	assert.Equal(t, "../xplat", config.Cell["xplat"].Root)
}

func TestCells(t *testing.T) {
	filename := writeConfig(t, `
[cell "xplat"]
root = /xplat
`)
	config, err := ReadConfigFiles([]string{filename})
	require.NoError(t, err)
	cells, err := config.Cells(fs.MustAbsPath("/repo"))
	require.NoError(t, err)
	require.Len(t, cells, 2)
	assert.Equal(t, "", cells[0].Name)
	assert.Equal(t, fs.AbsPath("/repo"), cells[0].Root)
	assert.Equal(t, "xplat", cells[1].Name)
	assert.Equal(t, fs.AbsPath("/xplat"), cells[1].Root)
}

func TestCellsRelativeRoot(t *testing.T) {
	filename := writeConfig(t, `
[cell "xplat"]
root = ../xplat
`)
	config, err := ReadConfigFiles([]string{filename})
	require.NoError(t, err)
	cells, err := config.Cells(fs.MustAbsPath("/repo/main"))
	require.NoError(t, err)
	require.Len(t, cells, 2)
	assert.Equal(t, fs.AbsPath("/repo/xplat"), cells[1].Root)
}

func TestCellWithoutRootIsAnError(t *testing.T) {
	filename := writeConfig(t, `
[cell "xplat"]
`)
	config, err := ReadConfigFiles([]string{filename})
	require.NoError(t, err)
	_, err = config.Cells(fs.MustAbsPath("/repo"))
	assert.Error(t, err)
}

func TestIsPackageFile(t *testing.T) {
	cell := NewCell("", fs.MustAbsPath("/repo"))
	assert.True(t, cell.IsPackageFile(fs.MustAbsPath("/repo/path/to/PACKAGE")))
	assert.False(t, cell.IsPackageFile(fs.MustAbsPath("/repo/path/to/BUILD")))
	assert.False(t, cell.IsPackageFile(fs.MustAbsPath("/repo/path/PACKAGE/BUILD")))
}

func TestIsBuildFile(t *testing.T) {
	cell := NewCell("", fs.MustAbsPath("/repo"))
	assert.True(t, cell.IsBuildFile(fs.MustAbsPath("/repo/path/to/BUILD")))
	assert.False(t, cell.IsBuildFile(fs.MustAbsPath("/repo/path/to/PACKAGE")))
	cell.BuildFileNames = []string{"BUCK", "BUCK.v2"}
	assert.True(t, cell.IsBuildFile(fs.MustAbsPath("/repo/path/to/BUCK.v2")))
	assert.False(t, cell.IsBuildFile(fs.MustAbsPath("/repo/path/to/BUILD")))
}

func TestContainsPath(t *testing.T) {
	cell := NewCell("xplat", fs.MustAbsPath("/repo/xplat"))
	assert.True(t, cell.ContainsPath(fs.MustAbsPath("/repo/xplat/path/BUILD")))
	assert.False(t, cell.ContainsPath(fs.MustAbsPath("/repo/main/path/BUILD")))
}
