package hexgrid

import (
	"sync"

	"github.com/paulmach/orb"
)

// Entry is one cached hex boundary. Fallback marks an approximate polygon
// served because real resolution failed; Hits counts how often it has been
// served since, so the resolver knows when to retry.
type Entry struct {
	Ring     orb.Ring
	Fallback bool
	Hits     int
}

// BoundaryCache stores resolved hex boundaries keyed by hex id.
type BoundaryCache interface {
	Get(hexID string) (Entry, bool)
	Put(hexID string, e Entry)
}

// LRUCache is a thread-safe LRU BoundaryCache. A maxEntries of zero or less
// disables eviction entirely; the cache then grows without bound, which is
// fine for city-sized hex sets.
type LRUCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*cacheNode
	head       *cacheNode // most recently used
	tail       *cacheNode // least recently used
}

type cacheNode struct {
	key   string
	value Entry
	prev  *cacheNode
	next  *cacheNode
}

// NewLRUCache creates a boundary cache holding at most maxEntries rings.
func NewLRUCache(maxEntries int) *LRUCache {
	return &LRUCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*cacheNode),
	}
}

func (c *LRUCache) Get(hexID string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[hexID]
	if !ok {
		return Entry{}, false
	}
	c.moveToFront(n)
	return n.value, true
}

func (c *LRUCache) Put(hexID string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.entries[hexID]; ok {
		n.value = e
		c.moveToFront(n)
		return
	}

	n := &cacheNode{key: hexID, value: e}
	c.entries[hexID] = n
	c.addToFront(n)

	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

// Len returns the number of cached boundaries.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *LRUCache) moveToFront(n *cacheNode) {
	if n == c.head {
		return
	}
	c.remove(n)
	c.addToFront(n)
}

func (c *LRUCache) addToFront(n *cacheNode) {
	n.next = c.head
	n.prev = nil
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *LRUCache) remove(n *cacheNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
}

func (c *LRUCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
