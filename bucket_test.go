package tsmap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// walk counts the elements by following the next links from the sentinel
// back to the sentinel, and cross-checks the prev links on the way.
func walk[K comparable, V any](t *testing.T, b *bucket[K, V]) int {
	t.Helper()
	count := 0
	prev := b.sentinel
	for n := b.first(); n != b.sentinel; n = n.next.Load() {
		require.Same(t, prev, n.prev.Load(), "broken prev link")
		require.NotNil(t, n.pair.Load(), "linked node without pair")
		prev = n
		count++
		require.LessOrEqual(t, count, 1<<20, "list does not cycle back to sentinel")
	}
	require.Same(t, prev, b.sentinel.prev.Load(), "sentinel prev not the last node")
	return count
}

func TestBucketListWellFormed(t *testing.T) {
	var b bucket[int, int]
	b.init(DefaultEqual[int]())

	assert.True(t, b.empty())
	assert.Equal(t, 0, walk(t, &b))

	for i := 0; i < 10; i++ {
		_, inserted := b.insert(Pair[int, int]{Key: i, Value: i})
		require.True(t, inserted)
		require.Equal(t, i+1, walk(t, &b))
	}
	assert.Equal(t, 10, b.len())

	// unlink in the middle, at the head and at the tail
	b.erase(5)
	b.erase(0)
	b.erase(9)
	assert.Equal(t, 7, walk(t, &b))
	assert.Equal(t, 7, b.len())

	b.clear()
	assert.True(t, b.empty())
	assert.Equal(t, 0, walk(t, &b))
	assert.Same(t, b.sentinel, b.sentinel.next.Load())
	assert.Same(t, b.sentinel, b.sentinel.prev.Load())
}

func TestBucketInsertExisting(t *testing.T) {
	var b bucket[string, int]
	b.init(DefaultEqual[string]())

	n1, inserted := b.insert(Pair[string, int]{Key: "a", Value: 1})
	require.True(t, inserted)

	n2, inserted := b.insert(Pair[string, int]{Key: "a", Value: 2})
	assert.False(t, inserted)
	assert.Same(t, n1, n2)
	assert.Equal(t, 1, n2.pair.Load().Value, "existing pair must stay untouched")

	n3 := b.insertOrAssign(Pair[string, int]{Key: "a", Value: 3})
	assert.Same(t, n1, n3)
	assert.Equal(t, 3, n3.pair.Load().Value)
	assert.Equal(t, 1, b.len())
}

func TestBucketFindMiss(t *testing.T) {
	var b bucket[int, int]
	b.init(DefaultEqual[int]())
	b.insert(Pair[int, int]{Key: 1, Value: 1})

	assert.Same(t, b.sentinel, b.find(2))
	assert.NotSame(t, b.sentinel, b.find(1))

	// erase of an absent key is a no-op
	b.erase(2)
	assert.Equal(t, 1, b.len())
}

func TestBucketErasedNodeKeepsPair(t *testing.T) {
	var b bucket[int, string]
	b.init(DefaultEqual[int]())

	n, _ := b.insert(Pair[int, string]{Key: 1, Value: "x"})
	b.erase(1)

	// an accessor handed out earlier still reads the last stored pair
	assert.Equal(t, "x", n.pair.Load().Value)
	assert.Equal(t, 0, b.len())
}

func TestBucketConcurrentInsertWellFormed(t *testing.T) {
	var b bucket[int, int]
	b.init(DefaultEqual[int]())

	const (
		workers = 8
		perW    = 200
	)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perW; i++ {
				b.insert(Pair[int, int]{Key: w*perW + i, Value: i})
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, workers*perW, b.len())
	assert.Equal(t, workers*perW, walk(t, &b))
}

func TestBucketConcurrentInsertErase(t *testing.T) {
	var b bucket[int, int]
	b.init(DefaultEqual[int]())
	for i := 0; i < 100; i++ {
		b.insert(Pair[int, int]{Key: i, Value: i})
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 100; i < 200; i++ {
			b.insert(Pair[int, int]{Key: i, Value: i})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			b.erase(i)
		}
	}()
	wg.Wait()

	assert.Equal(t, 100, b.len())
	assert.Equal(t, 100, walk(t, &b))
}
