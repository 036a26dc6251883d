package catalog

import "container/list"

// boundedCache is a size-bounded LRU with an eviction callback: the same
// doubly-linked-list-plus-map shape as blockstore's page cache, adapted to
// key on table name instead of block number and to flush an evicted entry
// back to disk before dropping it.
type boundedCache[V any] struct {
	maxEntries int
	onEvict    func(key string, v V)

	ll    *list.List
	index map[string]*list.Element
}

type cacheEntry[V any] struct {
	key string
	val V
}

func newBoundedCache[V any](maxEntries int, onEvict func(key string, v V)) *boundedCache[V] {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &boundedCache[V]{
		maxEntries: maxEntries,
		onEvict:    onEvict,
		ll:         list.New(),
		index:      make(map[string]*list.Element),
	}
}

func (c *boundedCache[V]) get(key string) (V, bool) {
	if ele, ok := c.index[key]; ok {
		c.ll.MoveToFront(ele)
		return ele.Value.(*cacheEntry[V]).val, true
	}
	var zero V
	return zero, false
}

// put inserts or overwrites key's value, evicting the least-recently-used
// entry (via onEvict) if this insertion grows the cache past maxEntries.
func (c *boundedCache[V]) put(key string, v V) {
	if ele, ok := c.index[key]; ok {
		c.ll.MoveToFront(ele)
		ele.Value.(*cacheEntry[V]).val = v
		return
	}
	ele := c.ll.PushFront(&cacheEntry[V]{key: key, val: v})
	c.index[key] = ele
	if c.ll.Len() > c.maxEntries {
		c.removeOldest()
	}
}

// remove drops key without invoking onEvict; the caller is responsible for
// discarding the entry's on-disk state itself (e.g. DROP TABLE).
func (c *boundedCache[V]) remove(key string) {
	if ele, ok := c.index[key]; ok {
		c.ll.Remove(ele)
		delete(c.index, key)
	}
}

// each visits every resident entry in no particular order.
func (c *boundedCache[V]) each(visit func(key string, v V)) {
	for ele := c.ll.Front(); ele != nil; ele = ele.Next() {
		entry := ele.Value.(*cacheEntry[V])
		visit(entry.key, entry.val)
	}
}

func (c *boundedCache[V]) removeOldest() {
	ele := c.ll.Back()
	if ele == nil {
		return
	}
	c.ll.Remove(ele)
	entry := ele.Value.(*cacheEntry[V])
	delete(c.index, entry.key)
	if c.onEvict != nil {
		c.onEvict(entry.key, entry.val)
	}
}
