package lru

import (
	"math/rand"
	"strconv"
	"testing"
)

// benchmarkMix exercises a read/write mix against a warm cache on a single
// goroutine (the core is single-threaded by contract; see package sharded
// for the parallel picture). String keys include strconv/concat costs, which
// is fine for an end-to-end benchmark.
func benchmarkMix(b *testing.B, readsPct int) {
	c, err := New[string, string](Options[string, string]{Max: 100_000})
	if err != nil {
		b.Fatal(err)
	}

	// Preload half the capacity to get a realistic hit-rate.
	for i := 0; i < 50_000; i++ {
		c.Set("k:"+strconv.Itoa(i), "v")
	}

	r := rand.New(rand.NewSource(1))
	keyMask := (1 << 16) - 1 // hot keyspace (power of two for fast &-mask)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		k := "k:" + strconv.Itoa(i&keyMask)
		if r.Intn(100) < readsPct {
			c.Get(k)
		} else {
			c.Set(k, "v")
		}
	}
}

func BenchmarkCache_90r10w(b *testing.B) { benchmarkMix(b, 90) }
func BenchmarkCache_50r50w(b *testing.B) { benchmarkMix(b, 50) }

// benchmarkMixInt is the same workload with int keys. This removes
// strconv/alloc noise and better exposes the relinking hot path.
func benchmarkMixInt(b *testing.B, readsPct int) {
	c, err := New[int, int](Options[int, int]{Max: 100_000})
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < 50_000; i++ {
		c.Set(i, 1)
	}

	r := rand.New(rand.NewSource(1))
	keyMask := (1 << 16) - 1

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		k := i & keyMask
		if r.Intn(100) < readsPct {
			c.Get(k)
		} else {
			c.Set(k, 1)
		}
	}
}

func BenchmarkCache_IntKeys_90r10w(b *testing.B) { benchmarkMixInt(b, 90) }
func BenchmarkCache_IntKeys_50r50w(b *testing.B) { benchmarkMixInt(b, 50) }
