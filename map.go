// Package tsmap implements a thread safe hash map with a fixed number of
// buckets. It is pretty much like a map protected by a single mutex, except
// that every bucket carries its own lock: operations addressing a single
// key lock only the bucket the key hashes to, so inserts, lookups and
// erases for keys in different buckets run fully in parallel.
//
// The number of buckets is chosen at construction time and never changes.
// That is not much of a disadvantage if the approximate number of elements
// to be stored is known up front.
package tsmap

import (
	"sync"
	"unsafe"
)

// DefaultBucketCount is used when a constructor is called with a bucket
// count of zero.
const DefaultBucketCount = 16

// Pair is the value type of the map: one key with its mapped value. A
// stored pair is read and replaced as a whole unit only, partial in place
// mutation of just the key or just the value is never observable.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// Map is an associative thread safe container with a fixed bucket count.
//
// Key addressed operations (Insert, InsertOrAssign, Find, Erase) lock only
// the routed bucket. Whole container operations (Size, Empty, Begin, Clear,
// At, Copy, Assign, MoveFrom) serialize on one top-level lock to get a
// consistent view across buckets. Clear is the documented exception, see
// there.
type Map[K comparable, V any] struct {
	buckets []bucket[K, V]
	hasher  HashFn[K]
	// capMinus1 is used for a bitwise AND on the hash value,
	// because the size of the bucket array is a power of two value
	capMinus1 uintptr
	// mu serializes whole container operations. Key addressed operations
	// never take it.
	mu sync.Mutex
}

// New creates a ready to use thread safe hash map with at least bucketCount
// buckets and default hashing and equality. The count is rounded up to the
// next power of two and stays fixed for the life of the map; zero selects
// DefaultBucketCount.
func New[K comparable, V any](bucketCount uintptr) *Map[K, V] {
	return NewWithHasher[K, V](bucketCount, GetHasher[K]())
}

// NewWithHasher same as `New` but with a given hash function.
func NewWithHasher[K comparable, V any](bucketCount uintptr, hasher HashFn[K]) *Map[K, V] {
	return NewWithHasherAndEqual[K, V](bucketCount, hasher, DefaultEqual[K]())
}

// NewWithHasherAndEqual same as `New` but with a given hash function and
// key equality predicate. The predicate must be consistent with the hash
// function: keys it considers equal must hash alike.
func NewWithHasherAndEqual[K comparable, V any](bucketCount uintptr, hasher HashFn[K], equal EqualFn[K]) *Map[K, V] {
	if bucketCount == 0 {
		bucketCount = DefaultBucketCount
	}
	n := uintptr(NextPowerOf2(uint64(bucketCount)))
	m := &Map[K, V]{
		buckets:   make([]bucket[K, V], n),
		hasher:    hasher,
		capMinus1: n - 1,
	}
	for i := range m.buckets {
		m.buckets[i].init(equal)
	}
	return m
}

// NewFromPairs creates a map holding the given pairs. For duplicated keys
// the first occurrence wins, as with repeated Insert calls.
func NewFromPairs[K comparable, V any](bucketCount uintptr, pairs ...Pair[K, V]) *Map[K, V] {
	m := New[K, V](bucketCount)
	for _, p := range pairs {
		m.InsertPair(p)
	}
	return m
}

//go:inline
func (m *Map[K, V]) index(key K) uintptr {
	return m.hasher(key) & m.capMinus1
}

// cursorAt wraps a bucket local lookup result. The bucket's sentinel marks
// a miss and maps to the terminal cursor.
func (m *Map[K, V]) cursorAt(index uintptr, n *node[K, V]) Cursor[K, V] {
	if n == nil || n == m.buckets[index].sentinel {
		return m.End()
	}
	return Cursor[K, V]{m: m, index: index, node: n}
}

// Insert adds the key value pair if the key is not present yet. Returns a
// cursor at the stored entry, plus true if the pair was inserted or false
// if the key was already there (the existing pair is left untouched).
func (m *Map[K, V]) Insert(key K, value V) (Cursor[K, V], bool) {
	return m.InsertPair(Pair[K, V]{Key: key, Value: value})
}

// InsertPair same as `Insert` but takes the pair as one unit.
func (m *Map[K, V]) InsertPair(p Pair[K, V]) (Cursor[K, V], bool) {
	idx := m.index(p.Key)
	n, inserted := m.buckets[idx].insert(p)
	return m.cursorAt(idx, n), inserted
}

// InsertOrAssign maps the given key to the given value. If the key already
// exists its pair is replaced as a whole unit. The returned cursor always
// points at the current entry for key.
func (m *Map[K, V]) InsertOrAssign(key K, value V) Cursor[K, V] {
	return m.InsertOrAssignPair(Pair[K, V]{Key: key, Value: value})
}

// InsertOrAssignPair same as `InsertOrAssign` but takes the pair as one
// unit.
func (m *Map[K, V]) InsertOrAssignPair(p Pair[K, V]) Cursor[K, V] {
	idx := m.index(p.Key)
	return m.cursorAt(idx, m.buckets[idx].insertOrAssign(p))
}

// Find returns a cursor at the entry stored under key, or the terminal
// cursor if the key is not present.
func (m *Map[K, V]) Find(key K) Cursor[K, V] {
	idx := m.index(key)
	return m.cursorAt(idx, m.buckets[idx].find(key))
}

// Erase removes the entry stored under key. Erasing an absent key is a
// no-op.
func (m *Map[K, V]) Erase(key K) {
	m.buckets[m.index(key)].erase(key)
}

// EraseAt removes the entry the cursor points at and returns a cursor to
// the following entry. The successor is computed before the erase, so
// erasing while iterating stays valid:
//
//	for c := m.Begin(); !c.AtEnd(); {
//		c = m.EraseAt(c)
//	}
//
// EraseAt on the terminal cursor is a no-op and returns it unchanged.
func (m *Map[K, V]) EraseAt(c Cursor[K, V]) Cursor[K, V] {
	next := c.Next()
	if c.AtEnd() {
		return next
	}
	m.Erase(c.Key())
	return next
}

// At returns an accessor for the entry stored under key, inserting a zero
// valued entry first if the key is absent. Unlike the key addressed
// operations it runs under the top-level lock, so concurrent At calls
// cannot both decide to insert the same missing key.
func (m *Map[K, V]) At(key K) Accessor[K, V] {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := &m.buckets[m.index(key)]
	n := b.find(key)
	if n == b.sentinel {
		n, _ = b.insert(Pair[K, V]{Key: key})
	}
	return Accessor[K, V]{node: n}
}

// Clear removes all key value pairs. The buckets are locked and emptied one
// at a time, not all at once: an insert racing with Clear can land in a
// bucket that was already swept and survive the call.
func (m *Map[K, V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
}

func (m *Map[K, V]) clearLocked() {
	for i := range m.buckets {
		m.buckets[i].clear()
	}
}

// Size returns the number of stored pairs.
func (m *Map[K, V]) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := 0
	for i := range m.buckets {
		s += m.buckets[i].len()
	}
	return s
}

// Empty reports whether the map holds no pairs.
func (m *Map[K, V]) Empty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.buckets {
		if !m.buckets[i].empty() {
			return false
		}
	}
	return true
}

// Begin returns a cursor at the first entry in traversal order (ascending
// bucket index, insertion order within a bucket), or the terminal cursor
// for an empty map.
func (m *Map[K, V]) Begin() Cursor[K, V] {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.buckets {
		if !m.buckets[i].empty() {
			return Cursor[K, V]{m: m, index: uintptr(i), node: m.buckets[i].first()}
		}
	}
	return m.End()
}

// End returns the terminal cursor. All terminal cursors of one map compare
// equal.
func (m *Map[K, V]) End() Cursor[K, V] {
	return Cursor[K, V]{m: m, index: uintptr(len(m.buckets))}
}

// Each calls 'fn' on every key value pair in traversal order. If 'fn'
// returns true, the iteration stops.
func (m *Map[K, V]) Each(fn func(key K, val V) bool) {
	for c := m.Begin(); !c.AtEnd(); c = c.Next() {
		p := c.Pair()
		if stop := fn(p.Key, p.Value); stop {
			// stop iteration
			return
		}
	}
}

// Hasher returns the hash function the map routes with.
func (m *Map[K, V]) Hasher() HashFn[K] {
	return m.hasher
}

// BucketCount returns the fixed number of buckets.
func (m *Map[K, V]) BucketCount() uintptr {
	return m.capMinus1 + 1
}

// Copy returns a deep copy. The source is locked during the copy, so the
// result is a consistent snapshot; afterwards both maps are fully
// independent.
func (m *Map[K, V]) Copy() *Map[K, V] {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := NewWithHasherAndEqual[K, V](m.BucketCount(), m.hasher, m.buckets[0].equal)
	for i := range m.buckets {
		c.buckets[i].cloneFrom(&m.buckets[i])
	}
	return c
}

// Assign replaces m's contents with a deep copy of that's contents,
// adopting that's bucket count, hash function and equality predicate. Both
// top-level locks are taken in a fixed global order, so the cross
// assignment a.Assign(b) racing b.Assign(a) cannot deadlock.
func (m *Map[K, V]) Assign(that *Map[K, V]) {
	if m == that {
		return
	}
	lockOrdered(&m.mu, &that.mu)
	defer unlockBoth(&m.mu, &that.mu)

	fresh := make([]bucket[K, V], len(that.buckets))
	for i := range fresh {
		fresh[i].init(that.buckets[i].equal)
		fresh[i].cloneFrom(&that.buckets[i])
	}
	m.hasher = that.hasher
	m.capMinus1 = that.capMinus1
	m.buckets = fresh
}

// MoveFrom takes over that's buckets and hash function, leaving that empty
// but usable with a fresh bucket array of the same count. Lock order as in
// Assign.
func (m *Map[K, V]) MoveFrom(that *Map[K, V]) {
	if m == that {
		return
	}
	lockOrdered(&m.mu, &that.mu)
	defer unlockBoth(&m.mu, &that.mu)

	equal := that.buckets[0].equal
	m.hasher = that.hasher
	m.capMinus1 = that.capMinus1
	m.buckets = that.buckets

	that.buckets = make([]bucket[K, V], m.capMinus1+1)
	for i := range that.buckets {
		that.buckets[i].init(equal)
	}
}

// lockOrdered acquires both mutexes in ascending address order. This is the
// two lock case of an ordered N-way acquisition and keeps cross container
// operations deadlock free.
func lockOrdered(a, b *sync.Mutex) {
	if uintptr(unsafe.Pointer(a)) > uintptr(unsafe.Pointer(b)) {
		a, b = b, a
	}
	a.Lock()
	b.Lock()
}

func unlockBoth(a, b *sync.Mutex) {
	a.Unlock()
	b.Unlock()
}
