// Representation of build target identities, eg. //spam/eggs:ham.
// A BuildLabel is the undecorated identity of a rule as written in a build
// file; flavours (#shared etc) and configurations layer on top of it without
// changing which rule it refers to.

package core

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/exp/slices"
	"gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("core")

// This is a little strict; doesn't allow for non-ascii names, for example.
const packagePart = "[A-Za-z0-9\\._\\+-]+"
const packageName = "(" + packagePart + "(?:/" + packagePart + ")*)"
const targetName = "([A-Za-z0-9\\._\\+-]+)"
const flavourPart = "((?:#[A-Za-z0-9_\\+-]+)*)"
const cellPart = "([A-Za-z0-9_-]*)"

// Fully specified labels, e.g. //src/core:core, xplat//src/core:core#shared
var absoluteTarget = regexp.MustCompile(fmt.Sprintf("^%s//(?:%s)?:%s%s$", cellPart, packageName, targetName, flavourPart))

// Package and target names only, used for validation.
var packageNameOnly = regexp.MustCompile(fmt.Sprintf("^%s?$", packageName))
var targetNameOnly = regexp.MustCompile(fmt.Sprintf("^%s$", targetName))
var cellNameOnly = regexp.MustCompile(fmt.Sprintf("^%s$", cellPart))

// A BuildLabel is the unflavoured identity of a build target:
// the cell it lives in, its package path and its short name.
// It is the unit of invalidation for all the parse caches.
type BuildLabel struct {
	Cell        string // canonical cell name; empty for the root cell
	PackageName string
	Name        string
}

func (label BuildLabel) String() string {
	return label.Cell + "//" + label.PackageName + ":" + label.Name
}

// NewBuildLabel constructs a new build label from the given components. Panics on failure.
func NewBuildLabel(cell, pkgName, name string) BuildLabel {
	label, err := TryNewBuildLabel(cell, pkgName, name)
	if err != nil {
		panic(err)
	}
	return label
}

// TryNewBuildLabel constructs a new build label from the given components.
func TryNewBuildLabel(cell, pkgName, name string) (BuildLabel, error) {
	if !cellNameOnly.MatchString(cell) {
		return BuildLabel{}, fmt.Errorf("Invalid cell name: %s", cell)
	} else if !packageNameOnly.MatchString(pkgName) {
		return BuildLabel{}, fmt.Errorf("Invalid package name: %s", pkgName)
	} else if !targetNameOnly.MatchString(name) {
		return BuildLabel{}, fmt.Errorf("Invalid target name: %s", name)
	}
	return BuildLabel{Cell: cell, PackageName: pkgName, Name: name}, nil
}

// A FlavouredLabel is a build target with an optional set of flavours applied.
// Multiple distinct flavoured labels share a single unflavoured parent.
// The flavour decoration is stored in a canonical sorted form so that label
// equality is set equality of the flavours.
type FlavouredLabel struct {
	BuildLabel
	Flavour string // canonical form, e.g. "shared" or "py3#shared"; empty for none
}

// NewFlavouredLabel creates a FlavouredLabel from a label and a set of flavours.
func NewFlavouredLabel(label BuildLabel, flavours ...string) FlavouredLabel {
	if len(flavours) == 0 {
		return FlavouredLabel{BuildLabel: label}
	}
	flavours = slices.Clone(flavours)
	slices.Sort(flavours)
	flavours = slices.Compact(flavours)
	return FlavouredLabel{BuildLabel: label, Flavour: strings.Join(flavours, "#")}
}

// Unflavoured returns the label without its flavour decoration.
func (label FlavouredLabel) Unflavoured() BuildLabel {
	return label.BuildLabel
}

// Flavours returns the individual flavours of this label.
func (label FlavouredLabel) Flavours() []string {
	if label.Flavour == "" {
		return nil
	}
	return strings.Split(label.Flavour, "#")
}

func (label FlavouredLabel) String() string {
	if label.Flavour == "" {
		return label.BuildLabel.String()
	}
	return label.BuildLabel.String() + "#" + label.Flavour
}

// A ConfiguredLabel is a flavoured label with a configuration applied, which
// selects one concrete output of the rule (e.g. a target platform).
type ConfiguredLabel struct {
	FlavouredLabel
	Config string
}

// Configure applies a configuration to this label.
func (label FlavouredLabel) Configure(config string) ConfiguredLabel {
	return ConfiguredLabel{FlavouredLabel: label, Config: config}
}

// Unconfigured returns the label without its configuration.
func (label ConfiguredLabel) Unconfigured() FlavouredLabel {
	return label.FlavouredLabel
}

func (label ConfiguredLabel) String() string {
	if label.Config == "" {
		return label.FlavouredLabel.String()
	}
	return label.FlavouredLabel.String() + " (" + label.Config + ")"
}

// ParseLabel parses a single fully-qualified build label. Panics on failure.
func ParseLabel(target string) FlavouredLabel {
	label, err := TryParseLabel(target)
	if err != nil {
		panic(err)
	}
	return label
}

// TryParseLabel attempts to parse a single fully-qualified build label,
// e.g. //src/core:core, xplat//src/core:core or //src/core:core#shared.
func TryParseLabel(target string) (FlavouredLabel, error) {
	matches := absoluteTarget.FindStringSubmatch(target)
	if matches == nil {
		return FlavouredLabel{}, fmt.Errorf("Invalid build label: %s", target)
	}
	label := BuildLabel{Cell: matches[1], PackageName: matches[2], Name: matches[3]}
	if matches[4] == "" {
		return FlavouredLabel{BuildLabel: label}, nil
	}
	return NewFlavouredLabel(label, strings.Split(strings.TrimPrefix(matches[4], "#"), "#")...), nil
}
