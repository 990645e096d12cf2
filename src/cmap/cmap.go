// Package cmap contains a thread-safe sharded concurrent map.
// It is optimised for large maps (e.g. tens of thousands of entries) in highly
// contended environments; for smaller maps another implementation may do better.
//
// Unlike sync.Map it supports an atomic add-or-get and removal of many keys,
// which is what the parse caches need.
package cmap

import (
	"fmt"
	"sync"
)

// DefaultShardCount is a reasonable default shard count for a large map.
const DefaultShardCount = 1 << 8

// A Map is the top-level map type. All functions on it are threadsafe.
// It should be constructed via New() rather than creating an instance directly.
type Map[K comparable, V any] struct {
	shards []shard[K, V]
	hasher func(K) uint64
	mask   uint64
}

// New creates a new Map using the given hasher to hash items in it.
// The shard count must be a power of 2; it will panic if not.
// Higher shard counts will improve concurrency but consume more memory.
// The DefaultShardCount of 256 is reasonable for a large map.
func New[K comparable, V any](shardCount uint64, hasher func(K) uint64) *Map[K, V] {
	mask := shardCount - 1
	if (shardCount & mask) != 0 {
		panic(fmt.Sprintf("Shard count %d is not a power of 2", shardCount))
	}
	m := &Map[K, V]{
		shards: make([]shard[K, V], shardCount),
		mask:   mask,
		hasher: hasher,
	}
	for i := range m.shards {
		m.shards[i].m = map[K]V{}
	}
	return m
}

// Add adds the new item to the map.
// It returns true if the item was inserted, false if it already existed (in which case it won't be inserted).
func (m *Map[K, V]) Add(key K, val V) bool {
	_, added := m.AddOrGet(key, val)
	return added
}

// AddOrGet either adds a new item (if the key doesn't exist) or returns the existing one.
// The second return value is true if the given value was inserted.
func (m *Map[K, V]) AddOrGet(key K, val V) (V, bool) {
	return m.shards[m.hasher(key)&m.mask].AddOrGet(key, val)
}

// Set is the equivalent of `map[key] = val`; it always overwrites.
func (m *Map[K, V]) Set(key K, val V) {
	m.shards[m.hasher(key)&m.mask].Set(key, val)
}

// Get returns the value for a key, or its zero value if the key isn't present.
func (m *Map[K, V]) Get(key K) V {
	v, _ := m.GetOK(key)
	return v
}

// GetOK returns the value for a key, plus a bool indicating whether it was present.
func (m *Map[K, V]) GetOK(key K) (V, bool) {
	return m.shards[m.hasher(key)&m.mask].Get(key)
}

// Remove deletes a key from the map. It returns true if the key was present.
func (m *Map[K, V]) Remove(key K) bool {
	return m.shards[m.hasher(key)&m.mask].Remove(key)
}

// RemoveAll deletes all the given keys from the map.
func (m *Map[K, V]) RemoveAll(keys []K) {
	for _, key := range keys {
		m.Remove(key)
	}
}

// Values returns a slice of all the current values in the map.
// No particular consistency guarantees are made.
func (m *Map[K, V]) Values() []V {
	ret := []V{}
	for i := range m.shards {
		ret = append(ret, m.shards[i].Values()...)
	}
	return ret
}

// Keys returns a slice of all the current keys in the map.
// No particular consistency guarantees are made.
func (m *Map[K, V]) Keys() []K {
	ret := []K{}
	for i := range m.shards {
		ret = append(ret, m.shards[i].Keys()...)
	}
	return ret
}

// Len returns the number of items currently in the map.
func (m *Map[K, V]) Len() int {
	n := 0
	for i := range m.shards {
		n += m.shards[i].Len()
	}
	return n
}

// A shard is one of the individual shards of a map.
type shard[K comparable, V any] struct {
	m map[K]V
	l sync.Mutex
}

func (s *shard[K, V]) AddOrGet(key K, val V) (V, bool) {
	s.l.Lock()
	defer s.l.Unlock()
	if existing, present := s.m[key]; present {
		return existing, false
	}
	s.m[key] = val
	return val, true
}

func (s *shard[K, V]) Set(key K, val V) {
	s.l.Lock()
	defer s.l.Unlock()
	s.m[key] = val
}

func (s *shard[K, V]) Get(key K) (V, bool) {
	s.l.Lock()
	defer s.l.Unlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *shard[K, V]) Remove(key K) bool {
	s.l.Lock()
	defer s.l.Unlock()
	if _, present := s.m[key]; !present {
		return false
	}
	delete(s.m, key)
	return true
}

func (s *shard[K, V]) Values() []V {
	s.l.Lock()
	defer s.l.Unlock()
	ret := make([]V, 0, len(s.m))
	for _, v := range s.m {
		ret = append(ret, v)
	}
	return ret
}

func (s *shard[K, V]) Keys() []K {
	s.l.Lock()
	defer s.l.Unlock()
	ret := make([]K, 0, len(s.m))
	for k := range s.m {
		ret = append(ret, k)
	}
	return ret
}

func (s *shard[K, V]) Len() int {
	s.l.Lock()
	defer s.l.Unlock()
	return len(s.m)
}
