package tsmap

// Cursor is a forward traversal position, identified by a bucket index and
// a node within that bucket. The terminal position has the index one past
// the last bucket and no node; it is returned by End and by every lookup
// that misses.
//
// Cursors are comparable: two cursors of the same map are equal when both
// are terminal or when they reference the identical entry.
//
// A cursor stays usable as long as no structural change (insert or erase)
// hits the bucket it currently points into. EraseAt is the exception, it
// hands back a valid successor. Traversal is weakly consistent: a cursor
// advanced over a mutating map observes changes in buckets it has not
// visited yet and is no snapshot.
type Cursor[K comparable, V any] struct {
	m     *Map[K, V]
	index uintptr
	node  *node[K, V]
}

// AtEnd reports whether the cursor is the terminal position.
func (c Cursor[K, V]) AtEnd() bool {
	return c.node == nil
}

// Next returns the position after c: the next node in the current bucket,
// or the first node of the next non empty bucket, or the terminal cursor.
// Next on the terminal cursor yields the terminal cursor.
func (c Cursor[K, V]) Next() Cursor[K, V] {
	if c.AtEnd() {
		return c
	}
	idx := c.index
	n := c.node.next.Load()
	for n == c.m.buckets[idx].sentinel {
		idx++
		if idx == uintptr(len(c.m.buckets)) {
			return c.m.End()
		}
		n = c.m.buckets[idx].first()
	}
	return Cursor[K, V]{m: c.m, index: idx, node: n}
}

// Pair returns a copy of the entry's current pair. The cursor must not be
// terminal.
func (c Cursor[K, V]) Pair() Pair[K, V] {
	return *c.node.pair.Load()
}

// Key returns the entry's key. The cursor must not be terminal.
func (c Cursor[K, V]) Key() K {
	return c.node.pair.Load().Key
}

// Value returns the entry's current value. The cursor must not be terminal.
func (c Cursor[K, V]) Value() V {
	return c.node.pair.Load().Value
}

// Ref returns an accessor for the entry, for in place mutation. The cursor
// must not be terminal.
func (c Cursor[K, V]) Ref() Accessor[K, V] {
	return Accessor[K, V]{node: c.node}
}
