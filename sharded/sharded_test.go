package sharded

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/ttlru/lru"
)

type fakeClock struct{ ms atomic.Int64 }

func (f *fakeClock) NowUnixMilli() int64  { return f.ms.Load() }
func (f *fakeClock) add(d time.Duration) { f.ms.Add(d.Milliseconds()) }

// Basic Set/Get/Delete semantics through the facade.
func TestMap_BasicSetGetDelete(t *testing.T) {
	t.Parallel()

	m, err := New[string, int](Options[string, int]{Max: 64})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = m.Close() })

	m.Set("a", 1)
	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Fatalf("Get a want 1, got %v ok=%v", v, ok)
	}
	if !m.Has("a") {
		t.Fatal("a must be resident")
	}
	if !m.Delete("a") {
		t.Fatal("Delete a must report true")
	}
	if _, ok := m.Get("a"); ok {
		t.Fatal("a must be absent after Delete")
	}
}

// Constructor errors pass through from the core.
func TestMap_NewValidation(t *testing.T) {
	t.Parallel()

	if _, err := New[string, int](Options[string, int]{Max: -1}); !errors.Is(err, lru.ErrInvalidMax) {
		t.Fatalf("want ErrInvalidMax, got %v", err)
	}
	if _, err := New[string, int](Options[string, int]{TTL: -time.Second}); !errors.Is(err, lru.ErrInvalidTTL) {
		t.Fatalf("want ErrInvalidTTL, got %v", err)
	}
}

// Uses a fake clock shared by all shards to avoid timing flakiness.
func TestMap_TTLFakeClock(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{}
	m, err := New[string, string](Options[string, string]{Max: 64, Clock: clk})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = m.Close() })

	m.SetWithTTL("x", "v", 100*time.Millisecond)
	if _, ok := m.Get("x"); !ok {
		t.Fatal("fresh miss")
	}
	clk.add(200 * time.Millisecond)
	if _, ok := m.Get("x"); ok {
		t.Fatal("expired hit")
	}
}

// Stats aggregates hit/miss/eviction counters across shards.
func TestMap_Stats(t *testing.T) {
	t.Parallel()

	m, err := New[string, int](Options[string, int]{Max: 2, Shards: 1})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = m.Close() })

	m.Set("a", 1)
	m.Set("b", 2)
	m.Get("a")    // hit
	m.Get("zzz")  // miss
	m.Set("c", 3) // eviction (capacity 2, single shard)

	st := m.Stats()
	if st.Hits != 1 || st.Misses != 1 || st.Evictions != 1 || st.Entries != 2 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

// After Close, operations are ignored and report absence.
func TestMap_Close(t *testing.T) {
	t.Parallel()

	m, err := New[string, int](Options[string, int]{Max: 8})
	if err != nil {
		t.Fatal(err)
	}
	m.Set("a", 1)
	_ = m.Close()

	m.Set("b", 2)
	if _, ok := m.Get("a"); ok {
		t.Fatal("Get after Close must miss")
	}
	if m.Has("b") || m.Delete("a") {
		t.Fatal("mutations after Close must be no-ops")
	}
}

// GetOrLoad without a Loader is an immediate error.
func TestMap_GetOrLoadNoLoader(t *testing.T) {
	t.Parallel()

	m, err := New[string, int](Options[string, int]{Max: 8})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = m.Close() })

	if _, err := m.GetOrLoad(context.Background(), "k"); !errors.Is(err, ErrNoLoader) {
		t.Fatalf("want ErrNoLoader, got %v", err)
	}
}

// Concurrent GetOrLoad calls for the same key trigger the Loader exactly
// once; subsequent calls are cache hits.
func TestMap_GetOrLoadSingleflight(t *testing.T) {
	var calls int64

	m, err := New[string, string](Options[string, string]{
		Max: 64,
		Loader: func(_ context.Context, k string) (string, error) {
			atomic.AddInt64(&calls, 1)
			time.Sleep(5 * time.Millisecond) // simulate I/O
			return "v:" + k, nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = m.Close() })

	const N = 64
	var g errgroup.Group
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for i := 0; i < N; i++ {
		g.Go(func() error {
			v, err := m.GetOrLoad(ctx, "k")
			if err != nil {
				return err
			}
			if v != "v:k" {
				return fmt.Errorf("got %q", v)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Fatalf("loader must run exactly once, got %d", got)
	}

	if v, err := m.GetOrLoad(context.Background(), "k"); err != nil || v != "v:k" {
		t.Fatalf("second GetOrLoad failed: v=%q err=%v", v, err)
	}
}

// A loader error is returned to callers and nothing is cached.
func TestMap_GetOrLoadError(t *testing.T) {
	t.Parallel()

	boom := errors.New("backend down")
	m, err := New[string, string](Options[string, string]{
		Max: 8,
		Loader: func(context.Context, string) (string, error) {
			return "", boom
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = m.Close() })

	if _, err := m.GetOrLoad(context.Background(), "k"); !errors.Is(err, boom) {
		t.Fatalf("want loader error, got %v", err)
	}
	if m.Has("k") {
		t.Fatal("failed loads must not populate the cache")
	}
}
