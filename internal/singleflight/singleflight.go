// Package singleflight coalesces concurrent calls for the same key so the
// underlying work runs at most once. Unlike golang.org/x/sync/singleflight
// it is generic over both key and result types, which is why the cache
// carries its own copy.
package singleflight

import (
	"context"
	"sync"
)

// Group deduplicates in-flight calls per key. The first caller for a key
// becomes the leader and executes fn; followers block until the leader
// publishes its result. The zero Group is ready to use.
type Group[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*flight[V]
}

type flight[V any] struct {
	done chan struct{} // closed once val/err are published
	val  V
	err  error
}

// Do executes fn once for key, sharing the result with every concurrent
// caller of the same key. Publishing (val, err) happens-before close(done),
// so followers reading after <-done observe the final values.
//
// A follower whose ctx is cancelled unblocks with ctx.Err(); the leader's
// fn keeps running. To cancel the work itself, thread a context into fn.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (V, error) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*flight[V])
	}
	if f, ok := g.m[key]; ok {
		// Join an in-flight call as a follower.
		done := f.done
		g.mu.Unlock()

		select {
		case <-done:
			return f.val, f.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}

	// Leader path: register the flight, run fn outside the lock.
	f := &flight[V]{done: make(chan struct{})}
	g.m[key] = f
	g.mu.Unlock()

	f.val, f.err = fn()
	close(f.done)

	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()

	return f.val, f.err
}
