package sharded

import (
	"math/rand"
	"strconv"
	"sync/atomic"
	"testing"
)

// benchmarkMix exercises a read/write mix against a warm sharded cache.
// RunParallel spawns GOMAXPROCS goroutines; each worker gets its own RNG
// stream (rand.Rand is not goroutine-safe).
func benchmarkMix(b *testing.B, readsPct int) {
	m, err := New[string, string](Options[string, string]{Max: 100_000})
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = m.Close() })

	// Preload half the capacity to get a realistic hit-rate.
	for i := 0; i < 50_000; i++ {
		m.Set("k:"+strconv.Itoa(i), "v")
	}

	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	keyMask := (1 << 16) - 1

	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		i := 0
		for pb.Next() {
			k := "k:" + strconv.Itoa(i&keyMask)
			if r.Intn(100) < readsPct {
				m.Get(k)
			} else {
				m.Set(k, "v")
			}
			i++
		}
	})
}

func BenchmarkMap_90r10w(b *testing.B) { benchmarkMix(b, 90) }
func BenchmarkMap_50r50w(b *testing.B) { benchmarkMix(b, 50) }
