package lru

import (
	"strings"
	"testing"
)

// Fuzz basic Set/Get/Delete semantics under arbitrary string inputs.
// Guards against panics and checks the chain/index invariants after every
// mutation. Key/value lengths are capped to keep fuzzing memory bounded.
func FuzzCache_SetGetDelete(f *testing.F) {
	// Seed corpus: empty, ASCII, Unicode, long strings.
	f.Add("", "")
	f.Add("a", "1")
	f.Add("b", "2")
	f.Add("αβγ", "δ")
	f.Add("emoji🙂", "🙂🙂")
	f.Add("long", strings.Repeat("x", 1024))

	f.Fuzz(func(t *testing.T, k, v string) {
		const limit = 1 << 12 // 4096
		if len(k) > limit {
			k = k[:limit]
		}
		if len(v) > limit {
			v = v[:limit]
		}

		c, err := New[string, string](Options[string, string]{Max: 16})
		if err != nil {
			t.Fatalf("New: %v", err)
		}

		// Set -> Get must return the same value and promote to MRU.
		c.Set(k, v)
		got, ok := c.Get(k)
		if !ok || got != v {
			t.Fatalf("after Set/Get: want %q, got %q ok=%v", v, got, ok)
		}
		if last, _, ok := c.Last(); !ok || last != k {
			t.Fatalf("read key must be MRU, last=%q", last)
		}
		checkInvariants(t, c)

		// Update must not grow the cache.
		c.Set(k, v+"*")
		if c.Len() != 1 {
			t.Fatalf("update grew the cache: Len=%d", c.Len())
		}
		if got, _ := c.Get(k); got != v+"*" {
			t.Fatalf("update lost: got %q", got)
		}

		// Delete must report true once, then turn into a no-op.
		if !c.Delete(k) {
			t.Fatal("Delete must report true")
		}
		if c.Delete(k) {
			t.Fatal("second Delete must report false")
		}
		if _, ok := c.Get(k); ok {
			t.Fatal("key must be absent after Delete")
		}
		checkInvariants(t, c)

		// The key is insertable again after removal.
		c.Set(k, v)
		if !c.Has(k) {
			t.Fatal("Set after Delete must succeed")
		}
		checkInvariants(t, c)
	})
}
