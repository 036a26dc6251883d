package blockstore

import "testing"

func TestPageCacheMoveToFrontAndEvict(t *testing.T) {
	c := newPageCache(2)
	c.add(1, &Block{Num: 1})
	c.add(2, &Block{Num: 2})
	if got := c.len(); got != 2 {
		t.Fatalf("len = %d, want 2", got)
	}

	// touching 1 moves it to the front, so 2 becomes the eviction candidate.
	if _, ok := c.get(1); !ok {
		t.Fatalf("expected hit for block 1")
	}
	c.add(3, &Block{Num: 3})

	if _, ok := c.get(2); ok {
		t.Fatalf("block 2 should have been evicted")
	}
	if _, ok := c.get(1); !ok {
		t.Fatalf("block 1 should still be cached")
	}
	if _, ok := c.get(3); !ok {
		t.Fatalf("block 3 should be cached")
	}
}

func TestPageCacheRemove(t *testing.T) {
	c := newPageCache(4)
	c.add(5, &Block{Num: 5})
	c.remove(5)
	if _, ok := c.get(5); ok {
		t.Fatalf("block 5 should have been removed")
	}
}
