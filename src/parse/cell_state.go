// Package parse contains the in-memory state the daemon keeps per cell:
// caches of parsed build and package file manifests, caches of the nodes
// computed from them, and the dependency bookkeeping needed to invalidate
// all of it precisely when files change on disk.
package parse

import (
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/op/go-logging.v1"

	"github.com/thought-machine/celld/src/cmap"
	"github.com/thought-machine/celld/src/core"
	"github.com/thought-machine/celld/src/fs"
)

var log = logging.MustGetLogger("parse")

// A CellState holds all cached parse state for a single cell.
//
// Readers look nodes and manifests up without taking cachesLock; the
// underlying concurrent maps only lock the one shard they touch. Writers that only insert take the read half of cachesLock
// so they can proceed in parallel with each other; invalidation takes the
// write half so a whole cascade is atomic with respect to everything else.
type CellState struct {
	cell        atomic.Pointer[core.Cell]
	cellRoot    fs.AbsPath
	cellName    string
	parallelism int

	// Guards mutation ordering across all of the maps below.
	cachesLock sync.RWMutex

	// A mapping from dependent files (typically included build defs or package
	// files) to all build files whose parse read them. These are the reverse
	// edges we follow to find which build files to invalidate when a file changes.
	buildFileDependents *cmap.Map[fs.AbsPath, *cmap.Set[fs.AbsPath]]

	// The same, for package files.
	packageFileDependents *cmap.Map[fs.AbsPath, *cmap.Set[fs.AbsPath]]

	// Unbounded caches of parsed manifests by file path.
	allBuildFileManifests   *cmap.Map[fs.AbsPath, *core.BuildFileManifest]
	allPackageFileManifests *cmap.Map[fs.AbsPath, *core.PackageFileManifest]

	// All the unflavoured targets collected from cached build file manifests.
	// Every key in the computed-node caches must project to a member of this
	// set; that is what guarantees invalidation by manifest can find it.
	allRawNodeTargets *cmap.Set[core.BuildLabel]

	unconfiguredNodes *Cache[core.FlavouredLabel, *core.UnconfiguredTargetNode]
	configuredNodes   *Cache[core.ConfiguredLabel, *core.ConfiguredTargetNode]
}

// NewCellState creates the state for the given cell.
// parsingParallelism sizes the internal maps for the number of goroutines
// expected to write to them concurrently.
func NewCellState(cell *core.Cell, parsingParallelism int) *CellState {
	shards := cmap.ShardCountFor(parsingParallelism)
	s := &CellState{
		cellRoot:                cell.Root,
		cellName:                cell.Name,
		parallelism:             parsingParallelism,
		buildFileDependents:     cmap.New[fs.AbsPath, *cmap.Set[fs.AbsPath]](shards, hashPath),
		packageFileDependents:   cmap.New[fs.AbsPath, *cmap.Set[fs.AbsPath]](shards, hashPath),
		allBuildFileManifests:   cmap.New[fs.AbsPath, *core.BuildFileManifest](shards, hashPath),
		allPackageFileManifests: cmap.New[fs.AbsPath, *core.PackageFileManifest](shards, hashPath),
		allRawNodeTargets:       cmap.NewSet[core.BuildLabel](shards, hashLabel),
	}
	s.cell.Store(cell)
	s.unconfiguredNodes = newCache[core.FlavouredLabel, *core.UnconfiguredTargetNode](
		s, hashFlavouredLabel,
		func(l core.FlavouredLabel) core.FlavouredLabel { return l },
		core.FlavouredLabel.Unflavoured,
	)
	s.configuredNodes = newCache[core.ConfiguredLabel, *core.ConfiguredTargetNode](
		s, hashConfiguredLabel,
		core.ConfiguredLabel.Unconfigured,
		func(l core.ConfiguredLabel) core.BuildLabel { return l.Unflavoured() },
	)
	return s
}

// Cell returns the cell this state is for.
func (s *CellState) Cell() *core.Cell {
	return s.cell.Load()
}

// SetCell replaces the cell descriptor, e.g. after a config reload.
// The caches are deliberately left alone; they are keyed by path and label,
// neither of which the descriptor can change.
func (s *CellState) SetCell(cell *core.Cell) {
	s.cell.Store(cell)
}

// CellRoot returns the root directory of this state's cell.
func (s *CellState) CellRoot() fs.AbsPath {
	return s.cellRoot
}

// UnconfiguredNodes returns the cache of unconfigured target nodes.
func (s *CellState) UnconfiguredNodes() *Cache[core.FlavouredLabel, *core.UnconfiguredTargetNode] {
	return s.unconfiguredNodes
}

// ConfiguredNodes returns the cache of configured target nodes.
func (s *CellState) ConfiguredNodes() *Cache[core.ConfiguredLabel, *core.ConfiguredTargetNode] {
	return s.configuredNodes
}

func (s *CellState) typedNodeCaches() []nodeCache {
	return []nodeCache{s.unconfiguredNodes, s.configuredNodes}
}

// LookupBuildFileManifest returns the cached manifest for a build file, if present.
func (s *CellState) LookupBuildFileManifest(buildFile fs.AbsPath) (*core.BuildFileManifest, bool) {
	return s.allBuildFileManifests.GetOK(buildFile)
}

// PutBuildFileManifestIfNotPresent caches a build file's manifest unless one
// is already cached for the path, and returns whichever manifest is cached
// afterwards. All targets in the returned manifest are recorded as known raw
// targets.
//
// If this call is the one that inserted the manifest, the given dependents
// (files every node in the manifest implicitly depends on) are registered so
// a change to any of them invalidates this build file. A losing call
// registers nothing; the dependents recorded at first insertion stand until
// the path is invalidated.
//
// If any target in a newly-inserted manifest doesn't form a valid label the
// insertion fails and no state is changed.
func (s *CellState) PutBuildFileManifestIfNotPresent(buildFile fs.AbsPath, manifest *core.BuildFileManifest, dependents []fs.AbsPath) (*core.BuildFileManifest, error) {
	// Validate before taking the lock so a bad manifest can't half-apply.
	var errs *multierror.Error
	for _, node := range manifest.Targets.Nodes() {
		if _, err := core.UnflavouredFromRawNode(s.cellRoot, s.cellName, node, buildFile); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	s.cachesLock.RLock()
	defer s.cachesLock.RUnlock()
	updated, added := s.allBuildFileManifests.AddOrGet(buildFile, manifest)
	for _, node := range updated.Targets.Nodes() {
		s.allRawNodeTargets.Add(s.mustUnflavoured(node, buildFile))
	}
	if added {
		// We now know all the nodes. They all implicitly depend on everything
		// in the dependents set, so record the reverse edges.
		for _, dependent := range dependents {
			s.dependentsOf(s.buildFileDependents, dependent).Add(buildFile)
		}
	}
	return updated, nil
}

// LookupPackageFileManifest returns the cached manifest for a package file, if present.
func (s *CellState) LookupPackageFileManifest(packageFile fs.AbsPath) (*core.PackageFileManifest, bool) {
	return s.allPackageFileManifests.GetOK(packageFile)
}

// PutPackageFileManifestIfNotPresent caches a package file's manifest unless
// one is already cached for the path, and returns whichever manifest is
// cached afterwards. Dependents are registered only by the inserting call,
// as for build file manifests.
func (s *CellState) PutPackageFileManifestIfNotPresent(packageFile fs.AbsPath, manifest *core.PackageFileManifest, dependents []fs.AbsPath) *core.PackageFileManifest {
	s.cachesLock.RLock()
	defer s.cachesLock.RUnlock()
	updated, added := s.allPackageFileManifests.AddOrGet(packageFile, manifest)
	if added {
		for _, dependent := range dependents {
			s.dependentsOf(s.packageFileDependents, dependent).Add(packageFile)
		}
	}
	return updated
}

// InvalidateNodesInPath invalidates all computed nodes for targets defined in
// the given build file. If invalidateBuildTargets is true the targets are
// also forgotten as known raw targets; a false value leaves the manifest's
// parse result authoritative while discarding what was computed from it.
// It returns the number of raw nodes invalidated.
func (s *CellState) InvalidateNodesInPath(path fs.AbsPath, invalidateBuildTargets bool) int {
	s.cachesLock.Lock()
	defer s.cachesLock.Unlock()
	return s.invalidateNodesInPath(path, invalidateBuildTargets)
}

func (s *CellState) invalidateNodesInPath(path fs.AbsPath, invalidateBuildTargets bool) int {
	manifest, present := s.allBuildFileManifests.GetOK(path)
	if !present {
		return 0
	}
	for _, node := range manifest.Targets.Nodes() {
		target := s.mustUnflavoured(node, path)
		log.Debug("Invalidating target for path %s: %s", path, target)
		for _, cache := range s.typedNodeCaches() {
			cache.invalidateFor(target)
		}
		if invalidateBuildTargets {
			s.allRawNodeTargets.Remove(target)
		}
	}
	return manifest.Targets.Len()
}

// InvalidatePath invalidates all cached content based on the given path,
// returning the count of invalidated raw nodes.
//
// The path may be a reference to any file. In the case of a:
//   - build file, it invalidates its computed nodes and, if invalidateManifests
//     is true, its cached manifest and raw targets;
//   - package file, it invalidates the cached package manifest and the
//     computed nodes of build files that depend on it, leaving their
//     manifests intact (a package change alters what gets injected into
//     those nodes, not the build files' own parse results);
//   - any other file, it recursively invalidates every build and package
//     file that depends on it.
//
// Cycles in the dependency edges are treated as input malformation; no
// visited set is kept.
func (s *CellState) InvalidatePath(path fs.AbsPath, invalidateManifests bool) int {
	s.cachesLock.Lock()
	defer s.cachesLock.Unlock()
	return s.invalidatePath(path, invalidateManifests)
}

func (s *CellState) invalidatePath(path fs.AbsPath, invalidateManifests bool) int {
	// If path is a build file with a cached manifest, invalidate the targets in it too.
	invalidatedRawNodes := s.invalidateNodesInPath(path, invalidateManifests)

	if invalidateManifests {
		s.allBuildFileManifests.Remove(path)
		s.allPackageFileManifests.Remove(path)
	}

	pathIsPackageFile := s.Cell().IsPackageFile(path)

	// We may have been given a file that other build files depend on. Invalidate accordingly.
	if dependents, present := s.buildFileDependents.GetOK(path); present {
		log.Debug("Invalidating build file dependents for path %s: %s", path, dependents.Items())
		for _, dependent := range dependents.Items() {
			if dependent == path {
				continue
			}
			if pathIsPackageFile {
				// The dependents of package files are build files. Invalidate their
				// computed nodes but not the targets themselves; the build file
				// doesn't need re-parsing for a package change.
				invalidatedRawNodes += s.invalidateNodesInPath(dependent, false)
			} else {
				invalidatedRawNodes += s.invalidatePath(dependent, true)
			}
		}
	}
	if !pathIsPackageFile {
		// Package files don't invalidate the build files that depend on them,
		// so those edges remain intact for the next change.
		s.buildFileDependents.Remove(path)
	}

	// We may have been given a file that package files depend on. Invalidate those too.
	if dependents, present := s.packageFileDependents.GetOK(path); present {
		for _, dependent := range dependents.Items() {
			if dependent == path {
				continue
			}
			if pathIsPackageFile {
				// A parent package invalidates what a child package produced,
				// but not the child's own manifest.
				invalidatedRawNodes += s.invalidatePath(dependent, false)
			} else {
				invalidatedRawNodes += s.invalidatePath(dependent, true)
			}
		}
	}
	if !pathIsPackageFile {
		s.packageFileDependents.Remove(path)
	}

	return invalidatedRawNodes
}

// PathDependentPresentIn returns true if any build file depending on the
// given cell-relative path is present in the given set.
func (s *CellState) PathDependentPresentIn(relPath string, buildFiles map[fs.AbsPath]struct{}) bool {
	dependents, present := s.buildFileDependents.GetOK(s.cellRoot.Resolve(relPath))
	if !present {
		return false
	}
	for _, dependent := range dependents.Items() {
		if _, ok := buildFiles[dependent]; ok {
			return true
		}
	}
	return false
}

func (s *CellState) dependentsOf(index *cmap.Map[fs.AbsPath, *cmap.Set[fs.AbsPath]], path fs.AbsPath) *cmap.Set[fs.AbsPath] {
	if set, present := index.GetOK(path); present {
		return set
	}
	set, _ := index.AddOrGet(path, cmap.NewSet[fs.AbsPath](cmap.ShardCountFor(s.parallelism), hashPath))
	return set
}

// mustUnflavoured recomputes the label of a node from an already-cached
// manifest. Those were all validated on insertion, so failure here means the
// caches are corrupt.
func (s *CellState) mustUnflavoured(node *core.RawTargetNode, buildFile fs.AbsPath) core.BuildLabel {
	target, err := core.UnflavouredFromRawNode(s.cellRoot, s.cellName, node, buildFile)
	if err != nil {
		log.Panicf("Cached manifest at %s contains an invalid target: %s", buildFile, err)
	}
	return target
}

func hashPath(path fs.AbsPath) uint64 {
	return cmap.XXHash(string(path))
}

func hashLabel(label core.BuildLabel) uint64 {
	return cmap.XXHashes(label.Cell, label.PackageName, label.Name)
}

func hashFlavouredLabel(label core.FlavouredLabel) uint64 {
	return hashLabel(label.BuildLabel) ^ cmap.XXHash(label.Flavour)
}

func hashConfiguredLabel(label core.ConfiguredLabel) uint64 {
	return hashFlavouredLabel(label.FlavouredLabel) ^ cmap.XXHash(label.Config)
}
