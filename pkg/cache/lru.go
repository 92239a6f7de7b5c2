// Package cache holds file content looked up during context enrichment.
package cache

import (
	"container/list"
	"sync"

	"github.com/Sumatoshi-tech/diffcore/pkg/gitlib"
)

// DefaultMaxBytes bounds a cache created without an explicit size (64 MiB).
const DefaultMaxBytes = 64 << 20

// BlobCache is a byte-bounded least-recently-used cache of blob content,
// keyed by how the content was looked up ("object:<id>", "rev:<rev>:<path>").
// It is safe for concurrent use.
type BlobCache struct {
	mu       sync.Mutex
	order    *list.List // front is most recently used; values are *entry.
	entries  map[string]*list.Element
	maxBytes int64
	bytes    int64
	hits     int64
	misses   int64
}

type entry struct {
	key  string
	blob *gitlib.CachedBlob
}

// Stats is a snapshot of cache usage.
type Stats struct {
	Hits     int64
	Misses   int64
	Entries  int
	Bytes    int64
	MaxBytes int64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}

	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// New creates a cache holding at most maxBytes of content. A non-positive
// maxBytes selects DefaultMaxBytes.
func New(maxBytes int64) *BlobCache {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	return &BlobCache{
		order:    list.New(),
		entries:  make(map[string]*list.Element),
		maxBytes: maxBytes,
	}
}

// Get returns the blob stored under key, or nil.
func (c *BlobCache) Get(key string) *gitlib.CachedBlob {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++

		return nil
	}

	c.hits++
	c.order.MoveToFront(elem)

	return elem.Value.(*entry).blob //nolint:forcetypeassert // only *entry is stored.
}

// Put stores a private copy of blob under key, evicting least recently used
// entries until it fits. Blobs larger than the whole cache are not stored.
func (c *BlobCache) Put(key string, blob *gitlib.CachedBlob) {
	if blob == nil || blob.Size() > c.maxBytes {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)

		return
	}

	for c.bytes+blob.Size() > c.maxBytes {
		c.evictOldest()
	}

	c.entries[key] = c.order.PushFront(&entry{key: key, blob: blob.Clone()})
	c.bytes += blob.Size()
}

// Stats returns a snapshot of the counters.
func (c *BlobCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:     c.hits,
		Misses:   c.misses,
		Entries:  len(c.entries),
		Bytes:    c.bytes,
		MaxBytes: c.maxBytes,
	}
}

func (c *BlobCache) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}

	victim := c.order.Remove(oldest).(*entry) //nolint:forcetypeassert // only *entry is stored.
	delete(c.entries, victim.key)
	c.bytes -= victim.blob.Size()
}
