// Package sharded wraps the single-threaded lru core in a goroutine-safe,
// sharded facade. Keys are routed to one of N independent core caches, each
// guarded by its own mutex, so the core itself stays lock-free and exact LRU
// order holds within every shard. On top of plain access it offers
// singleflight loading for cache-miss fan-in.
package sharded

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IvanBrykalov/ttlru/internal/singleflight"
	"github.com/IvanBrykalov/ttlru/internal/util"
	"github.com/IvanBrykalov/ttlru/lru"
)

// ErrNoLoader is returned by GetOrLoad when no Loader was configured.
var ErrNoLoader = errors.New("sharded: no Loader provided")

// Options configures a Map. Max and TTL keep the semantics of lru.Options;
// Max is split evenly across shards (ceil).
type Options[K comparable, V any] struct {
	// Max is the total entry count limit across all shards (0 = unbounded).
	Max int

	// Shards is the shard count, rounded up to the next power of two.
	// Zero picks an automatic value from CPU parallelism.
	Shards int

	// TTL is the default entry lifetime (0 = never expires).
	TTL time.Duration

	// ResetTTL controls whether accesses refresh entry deadlines.
	ResetTTL bool

	// Loader fetches a value on cache miss. Used by GetOrLoad.
	Loader func(ctx context.Context, k K) (V, error)

	// OnEvict observes every entry destroyed by eviction or expiry.
	// It runs under the owning shard's lock; keep it lightweight.
	OnEvict func(k K, v V, reason lru.EvictReason)

	// Metrics receives Hit/Miss/Evict/Size signals in addition to the
	// built-in Stats counters. Size reports the calling shard's residency,
	// not the global total. Nil => no forwarding.
	Metrics lru.Metrics

	// Clock overrides the time source for all shards (tests).
	Clock lru.Clock
}

// Stats is a point-in-time snapshot of the facade counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
}

// Map is a sharded, goroutine-safe view over lru.Cache instances.
// All methods are safe for concurrent use by multiple goroutines.
type Map[K comparable, V any] struct {
	shards []*shard[K, V]
	hash   func(K) uint64
	closed atomic.Bool

	opt Options[K, V]

	// hot counters shared by all shards, padded against false sharing
	ctr *counters

	// coalesces concurrent loads in GetOrLoad
	sf singleflight.Group[K, V]
}

type shard[K comparable, V any] struct {
	mu sync.Mutex
	c  *lru.Cache[K, V]
}

// New constructs a Map with the provided Options. It returns the lru
// configuration errors for negative Max or TTL.
func New[K comparable, V any](opt Options[K, V]) (*Map[K, V], error) {
	if opt.Max < 0 {
		return nil, lru.ErrInvalidMax
	}
	if opt.TTL < 0 {
		return nil, lru.ErrInvalidTTL
	}

	sh := opt.Shards
	if sh <= 0 {
		sh = util.ReasonableShardCount()
	} else {
		sh = int(util.NextPow2(uint64(sh)))
	}

	ctr := &counters{next: opt.Metrics}

	perShard := 0
	if opt.Max > 0 {
		perShard = (opt.Max + sh - 1) / sh // split capacity evenly (ceil)
	}

	shards := make([]*shard[K, V], sh)
	for i := range shards {
		c, err := lru.New[K, V](lru.Options[K, V]{
			Max:      perShard,
			TTL:      opt.TTL,
			ResetTTL: opt.ResetTTL,
			OnEvict:  opt.OnEvict,
			Metrics:  ctr,
			Clock:    opt.Clock,
		})
		if err != nil {
			return nil, err
		}
		shards[i] = &shard[K, V]{c: c}
	}

	return &Map[K, V]{
		shards: shards,
		hash:   util.Fnv64a[K],
		opt:    opt,
		ctr:    ctr,
	}, nil
}

// Has reports whether k is resident, without promotion or expiry check.
func (m *Map[K, V]) Has(k K) bool {
	if m.closed.Load() {
		return false
	}
	s := m.getShard(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Has(k)
}

// Get returns the value for k and a presence flag, promoting on hit and
// lazily expiring stale entries.
func (m *Map[K, V]) Get(k K) (V, bool) {
	if m.closed.Load() {
		var zero V
		return zero, false
	}
	s := m.getShard(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Get(k)
}

// Set inserts or updates k→v using the default TTL.
func (m *Map[K, V]) Set(k K, v V) {
	if m.closed.Load() {
		return
	}
	s := m.getShard(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Set(k, v)
}

// SetWithTTL inserts or updates k→v with a per-entry lifetime.
// A non-positive ttl disables expiration for this entry.
func (m *Map[K, V]) SetWithTTL(k K, v V, ttl time.Duration) {
	if m.closed.Load() {
		return
	}
	s := m.getShard(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.SetWithTTL(k, v, ttl)
}

// Delete removes k if present and reports whether it existed.
func (m *Map[K, V]) Delete(k K) bool {
	if m.closed.Load() {
		return false
	}
	s := m.getShard(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Delete(k)
}

// Len returns the total number of resident entries across all shards.
func (m *Map[K, V]) Len() int {
	total := 0
	for _, s := range m.shards {
		s.mu.Lock()
		total += s.c.Len()
		s.mu.Unlock()
	}
	return total
}

// Clear discards every shard's contents.
func (m *Map[K, V]) Clear() {
	for _, s := range m.shards {
		s.mu.Lock()
		s.c.Clear()
		s.mu.Unlock()
	}
}

// Stats returns a snapshot of the hit/miss/eviction counters and the
// current entry total.
func (m *Map[K, V]) Stats() Stats {
	return Stats{
		Hits:      m.ctr.hits.Load(),
		Misses:    m.ctr.misses.Load(),
		Evictions: m.ctr.evicts.Load(),
		Entries:   m.Len(),
	}
}

// Close marks the map as closed; subsequent operations are ignored.
func (m *Map[K, V]) Close() error {
	m.closed.Store(true)
	return nil
}

// GetOrLoad returns the value for k; on miss it loads via Options.Loader,
// coalescing concurrent loads for the same key. Returns ErrNoLoader when no
// Loader is configured.
func (m *Map[K, V]) GetOrLoad(ctx context.Context, k K) (V, error) {
	// fast path
	if v, ok := m.Get(k); ok {
		return v, nil
	}
	if m.opt.Loader == nil {
		var zero V
		return zero, ErrNoLoader
	}

	return m.sf.Do(ctx, k, func() (V, error) {
		// double-check after joining the flight
		if v, ok := m.Get(k); ok {
			return v, nil
		}
		v, err := m.opt.Loader(ctx, k)
		if err == nil {
			m.Set(k, v)
		}
		return v, err
	})
}

// getShard picks a shard by hashing the key and masking with len-1.
// len(m.shards) is guaranteed to be a power of two.
func (m *Map[K, V]) getShard(k K) *shard[K, V] {
	return m.shards[util.ShardIndex(m.hash(k), len(m.shards))]
}

// counters implements lru.Metrics for every shard, funneling signals into
// shared padded atomics and forwarding to the user's Metrics if any.
// Shards call these under their own locks, but shards race each other, so
// the counters must be atomic.
type counters struct {
	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
	evicts util.PaddedAtomicInt64
	next   lru.Metrics
}

func (c *counters) Hit() {
	c.hits.Add(1)
	if c.next != nil {
		c.next.Hit()
	}
}

func (c *counters) Miss() {
	c.misses.Add(1)
	if c.next != nil {
		c.next.Miss()
	}
}

func (c *counters) Evict(r lru.EvictReason) {
	c.evicts.Add(1)
	if c.next != nil {
		c.next.Evict(r)
	}
}

func (c *counters) Size(entries int) {
	if c.next != nil {
		c.next.Size(entries)
	}
}

var _ lru.Metrics = (*counters)(nil)
