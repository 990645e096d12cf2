// Utilities for reading the daemon config files.

package core

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/please-build/gcfg"

	"github.com/thought-machine/celld/src/fs"
)

// ConfigFileName is the file name for the typical repo config - this is normally checked in.
const ConfigFileName = ".celldconfig"

// LocalConfigFileName is the file name for the local repo config - this is not
// normally checked in and used to override settings on the local machine.
const LocalConfigFileName = ".celldconfig.local"

// A Configuration is the daemon's config as read from the config files.
type Configuration struct {
	Parse struct {
		BuildFileName   []string `gcfg:"build-file-name"`
		PackageFileName string   `gcfg:"package-file-name"`
		Parallelism     int      `gcfg:"parallelism"`
	}
	Cell map[string]*struct {
		Root string
	}
}

// DefaultConfiguration returns the config that applies before any file is read.
func DefaultConfiguration() *Configuration {
	config := &Configuration{}
	config.Parse.Parallelism = runtime.NumCPU()
	return config
}

func readConfigFile(config *Configuration, filename string) error {
	if err := gcfg.ReadFileInto(config, filename); err != nil && os.IsNotExist(err) {
		return nil // It's not an error to not have the file at all.
	} else if err != nil {
		return err
	}
	log.Debug("Read config from %s", filename)
	return nil
}

// ReadConfigFiles reads config files from the given locations, in order.
// Values are filled in by defaults initially and then overridden by each file in turn.
func ReadConfigFiles(filenames []string) (*Configuration, error) {
	config := DefaultConfiguration()
	for _, filename := range filenames {
		if err := readConfigFile(config, filename); err != nil {
			return config, err
		}
	}
	if len(config.Parse.BuildFileName) == 0 {
		config.Parse.BuildFileName = []string{"BUILD"}
	}
	if config.Parse.PackageFileName == "" {
		config.Parse.PackageFileName = "PACKAGE"
	}
	if config.Parse.Parallelism <= 0 {
		config.Parse.Parallelism = runtime.NumCPU()
	}
	return config, nil
}

// Cells instantiates the cell descriptors this config defines.
// The root cell is always first, with the empty canonical name.
func (config *Configuration) Cells(repoRoot fs.AbsPath) ([]*Cell, error) {
	cells := []*Cell{config.newCell("", repoRoot)}
	for name, section := range config.Cell {
		if section.Root == "" {
			return nil, fmt.Errorf("Cell %s has no root configured", name)
		}
		root := section.Root
		if !filepath.IsAbs(root) {
			root = filepath.Join(repoRoot.String(), root)
		}
		abs, err := fs.NewAbsPath(root)
		if err != nil {
			return nil, fmt.Errorf("Invalid root for cell %s: %s", name, err)
		}
		cells = append(cells, config.newCell(name, abs))
	}
	return cells, nil
}

func (config *Configuration) newCell(name string, root fs.AbsPath) *Cell {
	return &Cell{
		Name:            name,
		Root:            root,
		BuildFileNames:  config.Parse.BuildFileName,
		PackageFileName: config.Parse.PackageFileName,
	}
}
