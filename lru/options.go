package lru

import (
	"errors"
	"time"
)

// Configuration errors returned by New. Construction either succeeds fully
// or returns nil plus one of these; no partially built cache escapes.
var (
	ErrInvalidMax = errors.New("lru: Max must be >= 0")
	ErrInvalidTTL = errors.New("lru: TTL must be >= 0")
)

// EvictReason explains why an entry was destroyed.
type EvictReason int

const (
	// EvictCapacity — displaced from the LRU end to make room for a new key.
	EvictCapacity EvictReason = iota
	// EvictTTL — expired by TTL, discovered lazily on Get.
	EvictTTL
	// EvictManual — removed by an explicit Evict call.
	EvictManual
)

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
// Explicit Delete is not reported via Evict; add a dedicated deletes
// counter upstream if you need one.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int)
}

// Clock provides time in Unix milliseconds; useful for deterministic tests.
type Clock interface{ NowUnixMilli() int64 }

// Options configures the cache behavior. The zero value is valid and yields
// an unbounded cache whose entries never expire.
type Options[K comparable, V any] struct {
	// Max is the entry count limit. Zero means unbounded: no eviction is
	// ever triggered by size. Negative values are rejected by New.
	Max int

	// TTL is the default lifetime applied to every entry at creation.
	// Zero means entries never expire by default. Negative values are
	// rejected by New.
	TTL time.Duration

	// ResetTTL controls whether an access (Get, or Set on an existing key)
	// refreshes the entry's deadline to now+TTL instead of leaving the
	// original deadline untouched.
	ResetTTL bool

	// OnEvict is called for every entry destroyed by capacity pressure,
	// lazy expiration, or an explicit Evict. The cache is mid-operation
	// when the callback runs; keep it lightweight and do not call back
	// into the cache.
	OnEvict func(k K, v V, reason EvictReason)

	// Metrics receives Hit/Miss/Evict/Size signals. Nil => NoopMetrics.
	Metrics Metrics

	// Clock allows overriding the time source (tests). Nil => time.Now().
	Clock Clock
}
