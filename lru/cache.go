package lru

import "time"

// Cache is a bounded key-value cache with exact LRU eviction and lazy
// per-entry TTL expiration. All operations run in O(1) amortized time:
// one map access plus a constant amount of pointer fixes.
//
// Cache is NOT safe for concurrent use. It holds no locks and runs no
// background goroutines; callers sharing an instance across goroutines must
// serialize access externally (see package sharded for a ready-made facade).
type Cache[K comparable, V any] struct {
	items map[K]*entry[K, V]
	first *entry[K, V] // LRU end
	last  *entry[K, V] // MRU end
	size  int

	opt Options[K, V]
}

// Entry is one key/value pair as reported by Entries.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Evicted is a snapshot of the entry displaced by capacity pressure
// during SetWithEvicted. ExpiresAt is the deadline the entry carried,
// in Unix milliseconds (zero = no TTL).
type Evicted[K comparable, V any] struct {
	Key       K
	Value     V
	ExpiresAt int64
}

// New constructs a cache from the provided Options.
// It returns ErrInvalidMax or ErrInvalidTTL when the corresponding option
// is negative; on error the returned cache is nil.
func New[K comparable, V any](opt Options[K, V]) (*Cache[K, V], error) {
	if opt.Max < 0 {
		return nil, ErrInvalidMax
	}
	if opt.TTL < 0 {
		return nil, ErrInvalidTTL
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	return &Cache[K, V]{
		items: make(map[K]*entry[K, V], opt.Max),
		opt:   opt,
	}, nil
}

// Has reports whether k is resident. It performs no reordering and no
// expiry check: a stale-but-unaccessed key still reports true.
func (c *Cache[K, V]) Has(k K) bool {
	_, ok := c.items[k]
	return ok
}

// Get returns the value for k and a presence flag.
// A stale entry (deadline set and <= now) is destroyed on discovery and
// reported as a miss; expiration is only ever detected here, never swept.
// On hit the entry is promoted to MRU, refreshing its deadline when
// ResetTTL is set.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	n, ok := c.items[k]
	if !ok {
		c.opt.Metrics.Miss()
		var zero V
		return zero, false
	}
	if c.expired(n) {
		c.destroy(n, EvictTTL)
		c.opt.Metrics.Size(c.size)
		c.opt.Metrics.Miss()
		var zero V
		return zero, false
	}
	if c.opt.ResetTTL && c.opt.TTL > 0 {
		n.exp = c.now() + c.opt.TTL.Milliseconds()
	}
	c.moveToBack(n)
	c.opt.Metrics.Hit()
	return n.val, true
}

// Set inserts or updates k→v using the cache's default TTL.
// An existing key is updated in place and promoted to MRU; its deadline is
// refreshed only when ResetTTL is set. A new key may displace the current
// LRU entry if the cache is at capacity.
func (c *Cache[K, V]) Set(k K, v V) {
	c.set(k, v, c.deadline(c.opt.TTL), c.opt.ResetTTL, nil)
}

// SetWithTTL is Set with an explicit per-entry lifetime overriding the
// cache default. A non-positive ttl disables expiration for this entry.
// The given deadline is applied even when ResetTTL is false.
func (c *Cache[K, V]) SetWithTTL(k K, v V, ttl time.Duration) {
	c.set(k, v, c.deadline(ttl), true, nil)
}

// SetWithEvicted behaves like Set but reports a snapshot of the entry
// displaced by capacity pressure, so callers can release resources tied to
// the displaced value. ok is false when nothing was displaced (the key
// already existed, or the cache was below capacity).
func (c *Cache[K, V]) SetWithEvicted(k K, v V) (ev Evicted[K, V], ok bool) {
	c.set(k, v, c.deadline(c.opt.TTL), c.opt.ResetTTL, func(n *entry[K, V]) {
		ev = Evicted[K, V]{Key: n.key, Value: n.val, ExpiresAt: n.exp}
		ok = true
	})
	return ev, ok
}

// set is the shared insert/update path. displaced, when non-nil, observes
// the capacity-evicted entry before it is destroyed.
func (c *Cache[K, V]) set(k K, v V, exp int64, refresh bool, displaced func(*entry[K, V])) {
	if n, ok := c.items[k]; ok {
		n.val = v
		if refresh {
			n.exp = exp
		}
		c.moveToBack(n)
		c.opt.Metrics.Size(c.size)
		return
	}

	// New key: make room first. size == Max > 0 guarantees a non-nil first,
	// so no emptiness check is needed on this path.
	if c.opt.Max > 0 && c.size == c.opt.Max {
		head := c.first
		if displaced != nil {
			displaced(head)
		}
		c.destroy(head, EvictCapacity)
	}

	n := &entry[K, V]{key: k, val: v, exp: exp}
	c.items[k] = n
	c.pushBack(n)
	c.opt.Metrics.Size(c.size)
}

// Delete removes k if present and reports whether it existed.
// Deleting an absent key is a no-op, not an error.
func (c *Cache[K, V]) Delete(k K) bool {
	n, ok := c.items[k]
	if !ok {
		return false
	}
	c.unlink(n)
	delete(c.items, k)
	c.opt.Metrics.Size(c.size)
	return true
}

// Evict removes the current LRU entry and reports it.
// On an empty cache it is a no-op returning ok=false.
func (c *Cache[K, V]) Evict() (k K, v V, ok bool) {
	n := c.first
	if n == nil {
		return k, v, false
	}
	c.destroy(n, EvictManual)
	c.opt.Metrics.Size(c.size)
	return n.key, n.val, true
}

// Clear discards the index and the chain in one step, restoring the
// empty-cache state.
func (c *Cache[K, V]) Clear() {
	c.items = make(map[K]*entry[K, V], c.opt.Max)
	c.first, c.last = nil, nil
	c.size = 0
	c.opt.Metrics.Size(0)
}

// ExpiresAt returns the stored deadline for k in Unix milliseconds
// (zero = never expires) and a presence flag. It is a pure metadata read:
// no promotion, no staleness check.
func (c *Cache[K, V]) ExpiresAt(k K) (int64, bool) {
	n, ok := c.items[k]
	if !ok {
		return 0, false
	}
	return n.exp, true
}

// Keys returns a fresh snapshot of all resident keys in LRU→MRU order.
func (c *Cache[K, V]) Keys() []K {
	keys := make([]K, 0, c.size)
	for n := c.first; n != nil; n = n.next {
		keys = append(keys, n.key)
	}
	return keys
}

// Values returns the values for the given keys, or for a fresh Keys
// snapshot when none are given. Each value is read via Get, so every
// visited key is promoted to MRU even though the default snapshot was taken
// in original order before any promotion occurred. Keys that are absent or
// expire mid-iteration are skipped.
func (c *Cache[K, V]) Values(keys ...K) []V {
	if len(keys) == 0 {
		keys = c.Keys()
	}
	vals := make([]V, 0, len(keys))
	for _, k := range keys {
		if v, ok := c.Get(k); ok {
			vals = append(vals, v)
		}
	}
	return vals
}

// Entries returns key/value pairs for the given keys, or for a fresh Keys
// snapshot when none are given. It reads through Get and therefore promotes
// visited keys exactly like Values.
func (c *Cache[K, V]) Entries(keys ...K) []Entry[K, V] {
	if len(keys) == 0 {
		keys = c.Keys()
	}
	out := make([]Entry[K, V], 0, len(keys))
	for _, k := range keys {
		if v, ok := c.Get(k); ok {
			out = append(out, Entry[K, V]{Key: k, Value: v})
		}
	}
	return out
}

// Len returns the number of resident entries.
func (c *Cache[K, V]) Len() int { return c.size }

// Max returns the configured capacity bound (zero = unbounded).
func (c *Cache[K, V]) Max() int { return c.opt.Max }

// TTL returns the configured default lifetime (zero = never expires).
func (c *Cache[K, V]) TTL() time.Duration { return c.opt.TTL }

// ResetTTL reports whether accesses refresh entry deadlines.
func (c *Cache[K, V]) ResetTTL() bool { return c.opt.ResetTTL }

// First peeks at the LRU entry without promoting it.
func (c *Cache[K, V]) First() (k K, v V, ok bool) {
	if c.first == nil {
		return k, v, false
	}
	return c.first.key, c.first.val, true
}

// Last peeks at the MRU entry without promoting it.
func (c *Cache[K, V]) Last() (k K, v V, ok bool) {
	if c.last == nil {
		return k, v, false
	}
	return c.last.key, c.last.val, true
}

// -------------------- internals --------------------

// destroy removes n from both index and chain, reports the eviction, and
// fires the OnEvict callback. Explicit Delete does not come through here.
func (c *Cache[K, V]) destroy(n *entry[K, V], reason EvictReason) {
	c.unlink(n)
	delete(c.items, n.key)
	c.opt.Metrics.Evict(reason)
	if cb := c.opt.OnEvict; cb != nil {
		cb(n.key, n.val, reason)
	}
}

func (c *Cache[K, V]) expired(n *entry[K, V]) bool {
	return n.exp != 0 && n.exp <= c.now()
}

func (c *Cache[K, V]) now() int64 {
	if c.opt.Clock != nil {
		return c.opt.Clock.NowUnixMilli()
	}
	return time.Now().UnixMilli()
}

// deadline converts a relative lifetime into an absolute Unix-millisecond
// deadline. A non-positive ttl returns 0 (no expiration).
func (c *Cache[K, V]) deadline(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return c.now() + ttl.Milliseconds()
}
