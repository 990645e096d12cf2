package parse

import (
	"github.com/thought-machine/celld/src/cmap"
	"github.com/thought-machine/celld/src/core"
)

// A Cache is one of the cell state's computed-node caches: an unbounded map
// of build target key to some value computed for it.
//
// Alongside the value map it maintains an index from each unflavoured target
// to all the keys stored for it, so that when the build file that produced a
// target changes, every flavoured and configured variant can be invalidated
// in one go.
type Cache[K comparable, T any] struct {
	state *CellState

	// Unbounded cache of all computed objects associated with build targets.
	allComputedNodes *cmap.Map[K, T]

	// All keys created and stored in this cache for a given unflavoured target.
	targetIndex *cmap.Map[core.BuildLabel, *cmap.Set[K]]

	hasher         func(K) uint64
	toUnconfigured func(K) core.FlavouredLabel
	toUnflavoured  func(K) core.BuildLabel
}

func newCache[K comparable, T any](state *CellState, hasher func(K) uint64, toUnconfigured func(K) core.FlavouredLabel, toUnflavoured func(K) core.BuildLabel) *Cache[K, T] {
	shards := cmap.ShardCountFor(state.parallelism)
	return &Cache[K, T]{
		state:            state,
		allComputedNodes: cmap.New[K, T](shards, hasher),
		targetIndex:      cmap.New[core.BuildLabel, *cmap.Set[K]](shards, hashLabel),
		hasher:           hasher,
		toUnconfigured:   toUnconfigured,
		toUnflavoured:    toUnflavoured,
	}
}

// Lookup returns the cached node for the given key, if present.
// It takes no cell state lock, so it never waits for an invalidation; it
// only holds the map's per-shard mutex for the duration of the read.
func (c *Cache[K, T]) Lookup(key K) (T, bool) {
	return c.allComputedNodes.GetOK(key)
}

// PutIfAbsent caches the given node unless one is already cached for the key,
// and returns whichever node is cached afterwards.
//
// The key's unflavoured target must already be known from a cached build file
// manifest; anything else means the caller is caching nodes the invalidation
// machinery cannot see, so it panics.
func (c *Cache[K, T]) PutIfAbsent(key K, node T) T {
	c.state.cachesLock.RLock()
	defer c.state.cachesLock.RUnlock()
	updated, added := c.allComputedNodes.AddOrGet(key, node)
	target := c.toUnflavoured(key)
	if !c.state.allRawNodeTargets.Contains(target) {
		log.Panicf("Added %v to computed nodes, which isn't present in raw nodes", key)
	}
	if added {
		c.indexFor(target).Add(key)
	}
	return updated
}

// UnconfiguredOf returns the unconfigured label a key projects to.
func (c *Cache[K, T]) UnconfiguredOf(key K) core.FlavouredLabel {
	return c.toUnconfigured(key)
}

// invalidateFor removes every key recorded for the given unflavoured target.
// The caller must hold the state's write lock.
func (c *Cache[K, T]) invalidateFor(target core.BuildLabel) {
	if keys, ok := c.targetIndex.GetOK(target); ok {
		c.targetIndex.Remove(target)
		c.allComputedNodes.RemoveAll(keys.Items())
	}
}

func (c *Cache[K, T]) indexFor(target core.BuildLabel) *cmap.Set[K] {
	if set, ok := c.targetIndex.GetOK(target); ok {
		return set
	}
	set, _ := c.targetIndex.AddOrGet(target, cmap.NewSet[K](cmap.ShardCountFor(c.state.parallelism), c.hasher))
	return set
}

// A nodeCache is the untyped view of a Cache that invalidation works through.
type nodeCache interface {
	invalidateFor(target core.BuildLabel)
}
