package cmap

// A Set is a concurrent set of items, implemented as a Map to unit values.
type Set[K comparable] struct {
	m *Map[K, struct{}]
}

// NewSet creates a new Set using the given hasher.
func NewSet[K comparable](shardCount uint64, hasher func(K) uint64) *Set[K] {
	return &Set[K]{m: New[K, struct{}](shardCount, hasher)}
}

// Add adds an item to the set. It returns true if it wasn't already present.
func (s *Set[K]) Add(key K) bool {
	return s.m.Add(key, struct{}{})
}

// Contains returns true if the given item is present in the set.
func (s *Set[K]) Contains(key K) bool {
	_, ok := s.m.GetOK(key)
	return ok
}

// Remove deletes an item from the set. It returns true if it was present.
func (s *Set[K]) Remove(key K) bool {
	return s.m.Remove(key)
}

// Items returns a slice of all the items currently in the set.
// No particular consistency guarantees are made.
func (s *Set[K]) Items() []K {
	return s.m.Keys()
}

// Len returns the number of items currently in the set.
func (s *Set[K]) Len() int {
	return s.m.Len()
}
