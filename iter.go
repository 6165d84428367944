//go:build go1.23
// +build go1.23

package tsmap

import "iter"

// All returns an iterator over the map's entries in traversal order, for
// use with a range statement. Same weak consistency as a cursor walk.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(key K, value V) bool) {
		for c := m.Begin(); !c.AtEnd(); c = c.Next() {
			p := c.Pair()
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

// Keys returns an iterator over the stored keys in traversal order.
func (m *Map[K, _]) Keys() iter.Seq[K] {
	return func(yield func(key K) bool) {
		for c := m.Begin(); !c.AtEnd(); c = c.Next() {
			if !yield(c.Key()) {
				return
			}
		}
	}
}

// NewFromSeq creates a map from a key value sequence. For duplicated keys
// the first occurrence wins, as with repeated Insert calls.
func NewFromSeq[K comparable, V any](bucketCount uintptr, seq iter.Seq2[K, V]) *Map[K, V] {
	m := New[K, V](bucketCount)
	for k, v := range seq {
		m.Insert(k, v)
	}
	return m
}
