package lru

// entry is an intrusive doubly linked list element owned by the cache index.
// The links are purely positional: the map in Cache.items is the sole owner
// of every entry, the chain just threads recency order through them.
type entry[K comparable, V any] struct {
	key K
	val V

	// Neighbors in recency order: prev points toward first (LRU),
	// next points toward last (MRU).
	prev *entry[K, V]
	next *entry[K, V]

	// Absolute expiration deadline in Unix milliseconds.
	// Zero means "no TTL".
	exp int64
}

// pushBack links n after the current last (MRU) entry in O(1).
// n must not already be linked.
func (c *Cache[K, V]) pushBack(n *entry[K, V]) {
	n.prev = c.last
	n.next = nil
	if c.last != nil {
		c.last.next = n
	}
	c.last = n
	if c.first == nil {
		c.first = n
	}
	c.size++
}

// moveToBack promotes n to MRU in O(1).
func (c *Cache[K, V]) moveToBack(n *entry[K, V]) {
	if n == c.last {
		return
	}
	// detach; n != last implies n.next != nil
	if n.prev != nil {
		n.prev.next = n.next
	}
	n.next.prev = n.prev
	if c.first == n {
		c.first = n.next
	}
	// reattach after last
	n.prev = c.last
	n.next = nil
	c.last.next = n
	c.last = n
}

// unlink splices n out of the chain and updates boundaries in O(1).
// Map bookkeeping is done by the caller.
func (c *Cache[K, V]) unlink(n *entry[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if c.first == n {
		c.first = n.next
	}
	if c.last == n {
		c.last = n.prev
	}
	n.prev, n.next = nil, nil
	c.size--
}
