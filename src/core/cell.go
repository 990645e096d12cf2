package core

import (
	"github.com/thought-machine/celld/src/fs"
)

// A Cell describes a registered cell: a named, rooted subtree of the
// repository with its own configuration.
type Cell struct {
	// The canonical name of the cell; empty for the root cell.
	Name string
	// The root directory the cell's sources live under.
	Root fs.AbsPath
	// The file names recognised as build files within this cell.
	BuildFileNames []string
	// The file name recognised as a package file within this cell.
	PackageFileName string
}

// NewCell creates a cell with the default file names.
func NewCell(name string, root fs.AbsPath) *Cell {
	return &Cell{
		Name:            name,
		Root:            root,
		BuildFileNames:  []string{"BUILD"},
		PackageFileName: "PACKAGE",
	}
}

// IsPackageFile returns true if the given path names a package file.
// Only the file name matters; package files anywhere in the cell behave the same.
func (c *Cell) IsPackageFile(path fs.AbsPath) bool {
	return path.FileName() == c.PackageFileName
}

// IsBuildFile returns true if the given path names a build file.
func (c *Cell) IsBuildFile(path fs.AbsPath) bool {
	name := path.FileName()
	for _, buildFileName := range c.BuildFileNames {
		if name == buildFileName {
			return true
		}
	}
	return false
}

// ContainsPath returns true if the given path falls under this cell's root.
func (c *Cell) ContainsPath(path fs.AbsPath) bool {
	return path.ContainedIn(c.Root)
}
