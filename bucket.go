package tsmap

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// node is one link in a bucket's circular doubly linked list. The stored
// pair sits behind an atomic pointer, so readers and writers of an already
// linked node never need the bucket lock: a replacement is a single pointer
// swap of the whole pair and a reader observes either the old or the new
// pair, never a mix.
//
// The bucket's sentinel is the only node whose pair pointer is nil.
type node[K comparable, V any] struct {
	next atomic.Pointer[node[K, V]]
	prev atomic.Pointer[node[K, V]]
	pair atomic.Pointer[Pair[K, V]]
}

// bucket is one independently lockable partition of the hash space. All
// structural changes (link, unlink) and key lookups run under mu. The list
// is anchored at a dedicated sentinel node: the sentinel's next is the
// logical first element, its prev the logical last, and an empty bucket has
// the sentinel pointing at itself both ways.
type bucket[K comparable, V any] struct {
	mu       sync.Mutex
	sentinel *node[K, V]
	equal    EqualFn[K]
	// size stores the current linked elements, guarded by mu
	size int

	_ cpu.CacheLinePad
}

func (b *bucket[K, V]) init(equal EqualFn[K]) {
	s := &node[K, V]{}
	s.next.Store(s)
	s.prev.Store(s)
	b.sentinel = s
	b.equal = equal
}

// first returns the logical first element, or the sentinel if the bucket is
// empty. The link is atomic, so no lock is needed.
func (b *bucket[K, V]) first() *node[K, V] {
	return b.sentinel.next.Load()
}

func (b *bucket[K, V]) empty() bool {
	return b.first() == b.sentinel
}

func (b *bucket[K, V]) len() int {
	b.mu.Lock()
	n := b.size
	b.mu.Unlock()
	return n
}

// lookupLocked scans from the sentinel's next back around to the sentinel
// and returns the node matching key, or the sentinel if there is none.
// Callers must hold mu.
func (b *bucket[K, V]) lookupLocked(key K) *node[K, V] {
	for n := b.first(); n != b.sentinel; n = n.next.Load() {
		if b.equal(n.pair.Load().Key, key) {
			return n
		}
	}
	return b.sentinel
}

// linkTailLocked links n in front of the sentinel, making it the last
// element. n's pair must already be stored, so that the node is never
// reachable in a half initialized state. Callers must hold mu.
func (b *bucket[K, V]) linkTailLocked(n *node[K, V]) {
	last := b.sentinel.prev.Load()
	n.next.Store(b.sentinel)
	n.prev.Store(last)
	last.next.Store(n)
	b.sentinel.prev.Store(n)
	b.size++
}

// insert links a new node holding p at the list tail, unless a node with an
// equal key already exists. Returns the located or created node and whether
// an insertion happened. An existing pair is left untouched.
func (b *bucket[K, V]) insert(p Pair[K, V]) (*node[K, V], bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n := b.lookupLocked(p.Key); n != b.sentinel {
		return n, false
	}
	n := &node[K, V]{}
	n.pair.Store(&p)
	b.linkTailLocked(n)
	return n, true
}

// insertOrAssign is insert, except that an existing node gets its whole
// pair replaced instead of being left untouched.
func (b *bucket[K, V]) insertOrAssign(p Pair[K, V]) *node[K, V] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n := b.lookupLocked(p.Key); n != b.sentinel {
		n.pair.Store(&p)
		return n
	}
	n := &node[K, V]{}
	n.pair.Store(&p)
	b.linkTailLocked(n)
	return n
}

// find returns the node stored under key, or the sentinel if the key is not
// present.
func (b *bucket[K, V]) find(key K) *node[K, V] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lookupLocked(key)
}

// unlinkLocked splices n out of the list. The node keeps its pair, so a
// cursor or accessor still holding it reads the last stored state.
// Callers must hold mu.
func (b *bucket[K, V]) unlinkLocked(n *node[K, V]) {
	n.prev.Load().next.Store(n.next.Load())
	n.next.Load().prev.Store(n.prev.Load())
	b.size--
}

// erase removes the node stored under key. Absent keys are a no-op.
func (b *bucket[K, V]) erase(key K) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n := b.lookupLocked(key); n != b.sentinel {
		b.unlinkLocked(n)
	}
}

// clear unlinks the first element until the bucket is empty.
func (b *bucket[K, V]) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.first() != b.sentinel {
		b.unlinkLocked(b.first())
	}
}

// cloneFrom fills b with a deep copy of that's list. The source is locked
// for the duration, so the copy is a consistent snapshot. b must be freshly
// initialized and not shared yet.
func (b *bucket[K, V]) cloneFrom(that *bucket[K, V]) {
	that.mu.Lock()
	defer that.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	for n := that.first(); n != that.sentinel; n = n.next.Load() {
		p := *n.pair.Load()
		cp := &node[K, V]{}
		cp.pair.Store(&p)
		b.linkTailLocked(cp)
	}
}
