package store

import (
	"container/list"
	"sync"
)

// EvictCallback is called with every entry the cache drops for lack of
// room.
type EvictCallback func(bucket, key, value []byte)

// Cache is a size-bounded LRU of bucket/key values. Size is counted as
// len(bucket)+len(key)+len(value).
type Cache struct {
	mu      sync.Mutex
	maxSize int
	size    int
	ll      *list.List
	items   map[string]map[string]*list.Element
	onEvict EvictCallback
}

type entry struct {
	bucket, key, value []byte
}

func (e *entry) size() int {
	return len(e.bucket) + len(e.key) + len(e.value)
}

// NewCache returns an empty cache holding at most maxSize bytes.
func NewCache(maxSize int, onEvict EvictCallback) *Cache {
	return &Cache{
		maxSize: maxSize,
		ll:      list.New(),
		items:   make(map[string]map[string]*list.Element),
		onEvict: onEvict,
	}
}

// Add stores value, evicting least recently used entries until it fits.
// A value larger than the whole cache is not stored.
func (c *Cache) Add(bucket, key, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry{bucket: bucket, key: key, value: value}
	if e.size() > c.maxSize {
		return
	}
	if el, ok := c.lookup(bucket, key); ok {
		c.removeElement(el)
	}
	for c.size+e.size() > c.maxSize && c.ll.Len() > 0 {
		old := c.ll.Back()
		c.removeElement(old)
		if c.onEvict != nil {
			oe := old.Value.(*entry)
			c.onEvict(oe.bucket, oe.key, oe.value)
		}
	}

	el := c.ll.PushFront(e)
	keys, ok := c.items[string(bucket)]
	if !ok {
		keys = make(map[string]*list.Element)
		c.items[string(bucket)] = keys
	}
	keys[string(key)] = el
	c.size += e.size()
}

// Get returns the cached value and marks it recently used.
func (c *Cache) Get(bucket, key []byte) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.lookup(bucket, key)
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry).value, true
}

// Remove drops one key.
func (c *Cache) Remove(bucket, key []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.lookup(bucket, key); ok {
		c.removeElement(el)
	}
}

// RemoveBucket drops every key of a bucket.
func (c *Cache) RemoveBucket(bucket []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, el := range c.items[string(bucket)] {
		c.removeElement(el)
	}
	delete(c.items, string(bucket))
}

// Purge empties the cache.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]map[string]*list.Element)
	c.size = 0
}

// Size returns the cached bytes.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *Cache) lookup(bucket, key []byte) (*list.Element, bool) {
	keys, ok := c.items[string(bucket)]
	if !ok {
		return nil, false
	}
	el, ok := keys[string(key)]
	return el, ok
}

func (c *Cache) removeElement(el *list.Element) {
	e := el.Value.(*entry)
	c.ll.Remove(el)
	c.size -= e.size()
	if keys, ok := c.items[string(e.bucket)]; ok {
		delete(keys, string(e.key))
		if len(keys) == 0 {
			delete(c.items, string(e.bucket))
		}
	}
}
