package cmap

import (
	"github.com/cespare/xxhash/v2"
)

// XXHash calculates xxHash for a string, which is a fast high-quality hash function for a Map.
func XXHash(s string) uint64 {
	return xxhash.Sum64String(s)
}

// XXHashes calculates the xxHash for a series of strings.
func XXHashes(s ...string) uint64 {
	var result uint64
	for _, x := range s {
		result ^= xxhash.Sum64String(x)
	}
	return result
}

// ShardCountFor returns a suitable shard count for a map written to by
// the given number of concurrent goroutines. It is always a power of 2.
func ShardCountFor(parallelism int) uint64 {
	n := uint64(4)
	for n < uint64(parallelism)*4 && n < DefaultShardCount {
		n <<= 1
	}
	return n
}
