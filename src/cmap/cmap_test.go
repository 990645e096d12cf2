package cmap

import (
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"
)

func hashInts(k int) uint64 {
	return XXHash(strconv.Itoa(k))
}

func TestMap(t *testing.T) {
	m := New[int, int](DefaultShardCount, hashInts)
	assert.True(t, m.Add(5, 7))
	assert.True(t, m.Add(7, 5))
	assert.Equal(t, 7, m.Get(5))
	assert.Equal(t, 5, m.Get(7))
	vals := m.Values()
	// Order isn't guaranteed so we must sort it now.
	sort.Slice(vals, func(i, j int) bool { return vals[i] < vals[j] })
	assert.Equal(t, []int{5, 7}, vals)
}

func TestReAdd(t *testing.T) {
	m := New[int, int](DefaultShardCount, hashInts)
	assert.True(t, m.Add(5, 7))
	assert.False(t, m.Add(5, 8))
	assert.Equal(t, 7, m.Get(5))
	m.Set(5, 8)
	assert.Equal(t, 8, m.Get(5))
}

func TestAddOrGet(t *testing.T) {
	m := New[int, int](DefaultShardCount, hashInts)
	v, added := m.AddOrGet(5, 7)
	assert.True(t, added)
	assert.Equal(t, 7, v)
	v, added = m.AddOrGet(5, 9)
	assert.False(t, added)
	assert.Equal(t, 7, v)
}

func TestRemove(t *testing.T) {
	m := New[int, int](DefaultShardCount, hashInts)
	m.Set(5, 7)
	m.Set(7, 5)
	assert.True(t, m.Remove(5))
	assert.False(t, m.Remove(5))
	_, ok := m.GetOK(5)
	assert.False(t, ok)
	m.RemoveAll([]int{5, 7})
	assert.Equal(t, 0, m.Len())
}

func TestShardCount(t *testing.T) {
	New[int, int](4, hashInts)
	assert.Panics(t, func() {
		New[int, int](3, hashInts)
	})
}

func TestShardCountFor(t *testing.T) {
	for _, parallelism := range []int{1, 2, 7, 16, 100, 10000} {
		n := ShardCountFor(parallelism)
		assert.Equal(t, uint64(0), n&(n-1), "Shard count %d for parallelism %d is not a power of 2", n, parallelism)
		assert.LessOrEqual(t, n, uint64(DefaultShardCount))
	}
}

func TestResize(t *testing.T) {
	for n := 10; n <= 1000; n *= 10 {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			m := New[int, int](1, hashInts)
			for i := 0; i < n; i++ {
				m.Set(i, i)
			}
			for i := 0; i < n; i++ {
				assert.Equal(t, i, m.Get(i), "Key %d appears to be not set or set incorrectly", i)
			}
		})
	}
}

func TestConcurrentAddOrGetAgreesOnOneWinner(t *testing.T) {
	m := New[int, int](DefaultShardCount, hashInts)
	var g errgroup.Group
	results := make([]int, 20)
	for i := 0; i < 20; i++ {
		i := i
		g.Go(func() error {
			v, _ := m.AddOrGet(42, i)
			results[i] = v
			return nil
		})
	}
	assert.NoError(t, g.Wait())
	winner := m.Get(42)
	for i, v := range results {
		assert.Equal(t, winner, v, "Goroutine %d observed a value other than the winner", i)
	}
}

func TestSet(t *testing.T) {
	s := NewSet[int](DefaultShardCount, hashInts)
	assert.True(t, s.Add(5))
	assert.False(t, s.Add(5))
	assert.True(t, s.Contains(5))
	assert.False(t, s.Contains(7))
	assert.Equal(t, []int{5}, s.Items())
	assert.True(t, s.Remove(5))
	assert.False(t, s.Remove(5))
	assert.Equal(t, 0, s.Len())
}

func BenchmarkMapInserts(b *testing.B) {
	m := New[int, int](DefaultShardCount, hashInts)
	for i := 0; i < b.N; i++ {
		m.Set(i, i)
	}
}
