// Package lru provides a generic, bounded key-value cache with exact
// Least-Recently-Used eviction and optional per-entry TTL expiration.
//
// Design
//
//   - Storage: a map[K]*entry gives O(1) lookups and exclusively owns every
//     entry; an intrusive doubly linked chain threads recency order through
//     the same entries (first=LRU, last=MRU). No separate list allocation.
//
//   - Eviction: strictly count-based. When a new key is inserted at
//     capacity, the first (LRU) entry is removed before insertion. Max=0
//     disables eviction entirely.
//
//   - TTL: entries carry absolute deadlines (Unix milliseconds). Expiration
//     is lazy: a stale entry is destroyed when Get next finds it, never by a
//     background sweep. A stale-but-unaccessed entry keeps occupying its
//     capacity slot until accessed or displaced by LRU pressure.
//
//   - ResetTTL: when enabled, Get and updates of an existing key refresh the
//     deadline to now+TTL; otherwise the original deadline stands.
//
//   - Iteration: Keys returns a fresh LRU→MRU snapshot. Values and Entries
//     read through Get, so visiting promotes every surviving key to MRU —
//     iterating reorders the chain by design.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size signals
//     (NoopMetrics by default); Options.OnEvict observes every destroyed
//     entry with its reason. Plug the metrics/prom adapter to export
//     Prometheus series.
//
// Concurrency
//
// Cache is a purely synchronous, single-threaded structure: no locks, no
// atomics, no goroutines. Share it across goroutines only behind external
// serialization — package sharded wraps independent instances in per-shard
// mutexes and adds singleflight loading.
//
// Basic usage
//
//	c, err := lru.New[string, int](lru.Options[string, int]{Max: 1000})
//	if err != nil {
//	    // Max or TTL was negative
//	}
//	c.Set("a", 1)
//	if v, ok := c.Get("a"); ok {
//	    _ = v
//	}
//	c.Delete("a")
//
// With TTL
//
//	c, _ := lru.New[string, string](lru.Options[string, string]{
//	    Max: 1024,
//	    TTL: 200 * time.Millisecond,
//	})
//	c.Set("tmp", "v")
//	time.Sleep(300 * time.Millisecond)
//	_, ok := c.Get("tmp") // ok == false (expired, destroyed on this read)
//
// Reacting to displacement
//
//	if ev, ok := c.SetWithEvicted("k", "v"); ok {
//	    release(ev.Value) // the entry pushed out by capacity pressure
//	}
package lru
