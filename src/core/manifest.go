// Manifests are the structured parse output of a single build or package
// file. They are what the parser hands to the daemon's caches; nothing here
// mutates them after construction.

package core

import (
	"fmt"
	"path"
	"strings"

	"github.com/thought-machine/celld/src/fs"
)

// An Attr is a single named attribute of a raw target node.
type Attr struct {
	Name  string
	Value interface{}
}

// A RawTargetNode is the minimally-interpreted output of the parser for one
// rule: enough to identify it and re-resolve it later, no more.
type RawTargetNode struct {
	// Package is the cell-relative path of the package declaring this rule, using forward slashes.
	Package string
	// RuleType is the name of the rule that declared it, e.g. go_library.
	RuleType string
	// Visibility and WithinView as written in the rule.
	Visibility []string
	WithinView []string
	// Attrs holds the rule's attributes in declaration order.
	Attrs []Attr
}

// Attr returns the value of the named attribute, if present.
func (n *RawTargetNode) Attr(name string) (interface{}, bool) {
	for _, attr := range n.Attrs {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return nil, false
}

// Name returns the rule's short name, i.e. its "name" attribute.
// It returns an empty string if the attribute is missing or not a string.
func (n *RawTargetNode) Name() string {
	if v, ok := n.Attr("name"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// A TargetMap is a mapping of short target name to raw node, ordered by insertion.
type TargetMap struct {
	names []string
	nodes map[string]*RawTargetNode
}

// NewTargetMap creates an empty TargetMap.
func NewTargetMap() *TargetMap {
	return &TargetMap{nodes: map[string]*RawTargetNode{}}
}

// Add registers a node under the given short name.
// It returns an error if the name is already taken.
func (m *TargetMap) Add(name string, node *RawTargetNode) error {
	if _, present := m.nodes[name]; present {
		return fmt.Errorf("Multiple targets declared with name %s", name)
	}
	m.names = append(m.names, name)
	m.nodes[name] = node
	return nil
}

// Get returns the node registered under the given short name, or nil.
func (m *TargetMap) Get(name string) *RawTargetNode {
	return m.nodes[name]
}

// Names returns the short names in insertion order.
func (m *TargetMap) Names() []string {
	return m.names
}

// Nodes returns the raw nodes in insertion order.
func (m *TargetMap) Nodes() []*RawTargetNode {
	ret := make([]*RawTargetNode, len(m.names))
	for i, name := range m.names {
		ret[i] = m.nodes[name]
	}
	return ret
}

// Len returns the number of targets in the map.
func (m *TargetMap) Len() int {
	return len(m.names)
}

// A GlobSpec records one glob the build file evaluated, so the daemon can
// re-check it when directory contents change.
type GlobSpec struct {
	Include            []string
	Exclude            []string
	ExcludeDirectories bool
}

// A BuildFileManifest is the parse result of one build file.
type BuildFileManifest struct {
	// Targets maps short target name to its raw node.
	Targets *TargetMap
	// Includes are the auxiliary files (e.g. subincluded .build_defs) this file's parse read.
	Includes []fs.AbsPath
	// Globs evaluated while parsing.
	Globs []GlobSpec
	// Metadata recorded by the parser (env accesses, config hash etc).
	Metadata map[string]string
}

// NewBuildFileManifest creates a manifest over the given targets.
func NewBuildFileManifest(targets *TargetMap, includes ...fs.AbsPath) *BuildFileManifest {
	if targets == nil {
		targets = NewTargetMap()
	}
	return &BuildFileManifest{Targets: targets, Includes: includes}
}

// PackageMetadata is the set of defaults a package file injects into the
// targets of sibling and descendant build files.
type PackageMetadata struct {
	Visibility []string
	WithinView []string
}

// A PackageFileManifest is the parse result of one package file.
type PackageFileManifest struct {
	Metadata PackageMetadata
	// ParentPackages are the package files this one inherits from, nearest first.
	ParentPackages []fs.AbsPath
	// Attrs holds the package's attributes in declaration order.
	Attrs []Attr
	// Includes are auxiliary files this file's parse read.
	Includes []fs.AbsPath
}

// UnflavouredFromRawNode computes the unflavoured label a raw node declares,
// given the cell it was parsed in and the build file that declared it.
// The node's recorded package takes precedence; if it doesn't record one, the
// package is derived from the build file's location under the cell root.
func UnflavouredFromRawNode(cellRoot fs.AbsPath, cellName string, node *RawTargetNode, buildFile fs.AbsPath) (BuildLabel, error) {
	name := node.Name()
	if name == "" {
		return BuildLabel{}, fmt.Errorf("Rule in %s has no name", buildFile)
	}
	pkg := node.Package
	if pkg == "" {
		rel, err := buildFile.Dir().RelTo(cellRoot)
		if err != nil {
			return BuildLabel{}, fmt.Errorf("Build file %s is not under cell root %s", buildFile, cellRoot)
		}
		pkg = strings.TrimPrefix(path.Clean(rel), "./")
		if pkg == "." {
			pkg = ""
		}
	}
	return TryNewBuildLabel(cellName, pkg, name)
}
