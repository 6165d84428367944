package tsmap

// Accessor is a short lived handle to one stored entry, obtained from At or
// from a cursor. It reads and replaces the entry's pair as a whole unit
// through an atomic pointer swap, so no lock is involved and concurrent
// readers always observe either the old or the new pair, never a mix.
//
// An accessor references the entry directly and must not be retained: it
// keeps reading the last stored pair even after the entry was erased from
// its map.
type Accessor[K comparable, V any] struct {
	node *node[K, V]
}

// Get returns the entry's current value.
func (a Accessor[K, V]) Get() V {
	return a.node.pair.Load().Value
}

// Set replaces the entry's value, keeping the key. The pair is rebuilt with
// the unchanged key and swapped in as a whole.
func (a Accessor[K, V]) Set(value V) {
	key := a.node.pair.Load().Key
	a.node.pair.Store(&Pair[K, V]{Key: key, Value: value})
}

// GetPair returns a copy of the entry's current pair.
func (a Accessor[K, V]) GetPair() Pair[K, V] {
	return *a.node.pair.Load()
}

// SetPair replaces the entry's whole pair. The key must stay equal to the
// stored one under the map's equality predicate, otherwise lookups in the
// entry's bucket break.
func (a Accessor[K, V]) SetPair(p Pair[K, V]) {
	a.node.pair.Store(&p)
}
