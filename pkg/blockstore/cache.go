package blockstore

import (
	"container/list"
	"sync"
)

// pageCache is an LRU cache of decoded blocks keyed by block number,
// adapted from perkeep's pkg/lru cache: same doubly-linked-list-plus-map
// shape, same move-to-front-on-hit/evict-from-back-on-overflow behavior,
// retargeted from string keys to block numbers and *Block values.
type pageCache struct {
	maxEntries int

	mu    sync.Mutex
	ll    *list.List
	index map[uint32]*list.Element
}

type pageEntry struct {
	num   uint32
	block *Block
}

func newPageCache(maxEntries int) *pageCache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &pageCache{
		maxEntries: maxEntries,
		ll:         list.New(),
		index:      make(map[uint32]*list.Element),
	}
}

func (c *pageCache) add(num uint32, b *Block) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ee, ok := c.index[num]; ok {
		c.ll.MoveToFront(ee)
		ee.Value.(*pageEntry).block = b
		return
	}

	ele := c.ll.PushFront(&pageEntry{num: num, block: b})
	c.index[num] = ele

	if c.ll.Len() > c.maxEntries {
		c.removeOldest()
	}
}

func (c *pageCache) get(num uint32) (*Block, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, hit := c.index[num]; hit {
		c.ll.MoveToFront(ele)
		return ele.Value.(*pageEntry).block, true
	}
	return nil, false
}

func (c *pageCache) remove(num uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, hit := c.index[num]; hit {
		c.ll.Remove(ele)
		delete(c.index, num)
	}
}

// note: must hold c.mu
func (c *pageCache) removeOldest() {
	ele := c.ll.Back()
	if ele == nil {
		return
	}
	c.ll.Remove(ele)
	delete(c.index, ele.Value.(*pageEntry).num)
}

func (c *pageCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
