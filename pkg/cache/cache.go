// Package cache implements the fast lookup path of the engine: persona id
// to cached (profile, signature, templates) snapshots. Lookups shard by fnv
// hash so readers never block each other, the active-persona pointer is a
// single atomic swap, and capacity is bounded per shard by LRU eviction.
// The cache accelerates lookups; it is never the system of record, so
// eviction and invalidation leave persisted records untouched.
package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultShards is the shard count used when none is configured.
	DefaultShards = 16

	// DefaultCapacity is the default total entry bound across all shards.
	DefaultCapacity = 1000
)

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits          int64
	Misses        int64
	Puts          int64
	Evictions     int64
	Invalidations int64
	Entries       int
	Capacity      int
}

// SignatureCache is the sharded persona snapshot cache with an atomically
// swappable active-persona pointer.
//
// Reads take a shard read lock plus a best-effort recency bump; Active is a
// single atomic load. Writes lock exactly one shard. Capacity is enforced
// per shard by LRU eviction. TTL expiry is lazy, collected by the Get that
// observes it, so there is no background goroutine to manage.
type SignatureCache struct {
	shardCount  int
	capacity    int
	perShardCap int
	ttl         time.Duration

	shards []*shard
	active atomic.Pointer[Entry]

	refreshSeq atomic.Uint64

	hits          atomic.Int64
	misses        atomic.Int64
	puts          atomic.Int64
	evictions     atomic.Int64
	invalidations atomic.Int64

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

type shard struct {
	mu      sync.RWMutex
	lruMu   sync.Mutex
	entries map[string]*item
	lru     *lruList
}

// item wraps an entry with shard bookkeeping. entry and expiresAt are
// guarded by the shard rwmutex; element and removed by the lru mutex.
type item struct {
	entry     *Entry
	expiresAt time.Time
	element   *lruElement
	removed   bool
}

// Option configures a SignatureCache.
type Option func(*SignatureCache)

// WithShards sets the shard count. Values below one are ignored.
func WithShards(n int) Option {
	return func(c *SignatureCache) {
		if n > 0 {
			c.shardCount = n
		}
	}
}

// WithCapacity bounds the total entry count. Capacity is distributed
// evenly, each shard holding at most ceil(capacity/shards) entries. Zero
// disables the bound.
func WithCapacity(n int) Option {
	return func(c *SignatureCache) {
		if n >= 0 {
			c.capacity = n
		}
	}
}

// WithTTL sets the snapshot lifetime. Zero keeps snapshots until evicted or
// invalidated.
func WithTTL(d time.Duration) Option {
	return func(c *SignatureCache) {
		if d >= 0 {
			c.ttl = d
		}
	}
}

// New creates a SignatureCache with the supplied options applied over the
// defaults.
func New(opts ...Option) *SignatureCache {
	c := &SignatureCache{
		shardCount: DefaultShards,
		capacity:   DefaultCapacity,
		locks:      make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.capacity > 0 {
		c.perShardCap = (c.capacity + c.shardCount - 1) / c.shardCount
	}

	c.shards = make([]*shard, c.shardCount)
	for i := range c.shards {
		c.shards[i] = &shard{
			entries: make(map[string]*item),
			lru:     newLRUList(),
		}
	}
	return c
}

const (
	fnvOffset32 = 2166136261
	fnvPrime32  = 16777619
)

// fnv32a is the 32-bit FNV-1a hash, inlined so shard routing does not
// allocate.
func fnv32a(s string) uint32 {
	h := uint32(fnvOffset32)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime32
	}
	return h
}

func (c *SignatureCache) shardFor(id string) *shard {
	return c.shards[fnv32a(id)%uint32(len(c.shards))]
}

// Get returns the cached snapshot for id. A miss is the caller's problem:
// the cache never runs analysis on its own, which keeps lookup latency
// predictable.
func (c *SignatureCache) Get(id string) (*Entry, bool) {
	s := c.shardFor(id)

	s.mu.RLock()
	it, ok := s.entries[id]
	var entry *Entry
	var expiresAt time.Time
	if ok {
		entry = it.entry
		expiresAt = it.expiresAt
	}
	s.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	if !expiresAt.IsZero() && time.Now().After(expiresAt) {
		c.removeIfExpired(s, id, it)
		c.misses.Add(1)
		return nil, false
	}

	// Recency bump is best effort: a contended lru mutex is skipped so
	// concurrent readers never serialize behind one another.
	if s.lruMu.TryLock() {
		if !it.removed {
			s.lru.moveToFront(it.element)
		}
		s.lruMu.Unlock()
	}

	c.hits.Add(1)
	return entry, true
}

// Put publishes a snapshot under id, write-through style. The cache takes
// ownership of the entry: it stamps the RefreshIndex and publication time,
// and the caller must not mutate the entry afterwards. When the active
// pointer references the same persona it is repointed to the new snapshot,
// so generation picks up refinements without an explicit swap.
func (c *SignatureCache) Put(id string, entry *Entry) {
	if id == "" || entry == nil {
		return
	}
	entry.PersonaID = id
	entry.RefreshIndex = c.refreshSeq.Add(1)
	entry.UpdatedAt = time.Now()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = entry.UpdatedAt.Add(c.ttl)
	}

	s := c.shardFor(id)
	s.mu.Lock()
	if it, ok := s.entries[id]; ok {
		it.entry = entry
		it.expiresAt = expiresAt
		s.lruMu.Lock()
		s.lru.moveToFront(it.element)
		s.lruMu.Unlock()
	} else {
		it := &item{entry: entry, expiresAt: expiresAt}
		s.lruMu.Lock()
		it.element = s.lru.pushFront(id)
		s.lruMu.Unlock()
		s.entries[id] = it
		if c.perShardCap > 0 && len(s.entries) > c.perShardCap {
			c.evictOldest(s)
		}
	}
	s.mu.Unlock()

	c.puts.Add(1)
	c.refreshActive(id, entry)
}

// SwapActive remaps the active-persona pointer to id's cached snapshot.
// Concurrent Active readers observe the old or the new entry, never a torn
// one. When id is not cached the previous active persona stays in place and
// ok is false.
func (c *SignatureCache) SwapActive(id string) (*Entry, bool) {
	entry, ok := c.Get(id)
	if !ok {
		return nil, false
	}
	c.active.Store(entry)
	return entry, true
}

// Active returns the current persona's snapshot without taking any lock,
// or nil when no persona is active. The pointer pins its snapshot: eviction
// or TTL expiry of the map entry does not retract an already-active
// snapshot, only SwapActive and Invalidate move it.
func (c *SignatureCache) Active() *Entry {
	return c.active.Load()
}

// Invalidate drops id's snapshot so the next Get misses, forcing
// re-analysis before the next generation. The active pointer is cleared
// when it references id, even if the map entry was already evicted.
// Persisted records are untouched.
func (c *SignatureCache) Invalidate(id string) {
	s := c.shardFor(id)
	s.mu.Lock()
	if it, ok := s.entries[id]; ok {
		s.remove(id, it)
		c.invalidations.Add(1)
	}
	s.mu.Unlock()

	c.clearActive(id)
}

// KeyLock returns the mutex serializing mutations for one persona; the same
// id always yields the same mutex. Locks live for the process lifetime, so
// the registry grows with the number of distinct personas, not with call
// volume.
func (c *SignatureCache) KeyLock(id string) *sync.Mutex {
	c.lockMu.Lock()
	defer c.lockMu.Unlock()
	m, ok := c.locks[id]
	if !ok {
		m = &sync.Mutex{}
		c.locks[id] = m
	}
	return m
}

// Len returns the number of cached snapshots across all shards.
func (c *SignatureCache) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.RLock()
		total += len(s.entries)
		s.mu.RUnlock()
	}
	return total
}

// Stats returns a snapshot of the cache counters.
func (c *SignatureCache) Stats() Stats {
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Puts:          c.puts.Load(),
		Evictions:     c.evictions.Load(),
		Invalidations: c.invalidations.Load(),
		Entries:       c.Len(),
		Capacity:      c.capacity,
	}
}

// Clear drops every snapshot, the active pointer and the counters.
func (c *SignatureCache) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.lruMu.Lock()
		for _, it := range s.entries {
			it.removed = true
		}
		s.entries = make(map[string]*item)
		s.lru = newLRUList()
		s.lruMu.Unlock()
		s.mu.Unlock()
	}
	c.active.Store(nil)

	c.hits.Store(0)
	c.misses.Store(0)
	c.puts.Store(0)
	c.evictions.Store(0)
	c.invalidations.Store(0)
}

// remove unlinks an item from the shard. Callers hold s.mu exclusively.
func (s *shard) remove(id string, it *item) {
	delete(s.entries, id)
	s.lruMu.Lock()
	if !it.removed {
		s.lru.removeElement(it.element)
		it.removed = true
	}
	s.lruMu.Unlock()
}

// removeIfExpired retracts an entry a reader observed to be expired. The
// shard is re-checked under the exclusive lock: a concurrent Put may have
// refreshed the deadline or replaced the item, in which case nothing is
// removed.
func (c *SignatureCache) removeIfExpired(s *shard, id string, it *item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.entries[id]
	if !ok || cur != it {
		return
	}
	if cur.expiresAt.IsZero() || time.Now().Before(cur.expiresAt) {
		return
	}
	s.remove(id, cur)
}

// evictOldest drops entries from the recency tail until the shard is back
// within its capacity share. Callers hold s.mu exclusively.
func (c *SignatureCache) evictOldest(s *shard) {
	s.lruMu.Lock()
	defer s.lruMu.Unlock()

	for len(s.entries) > c.perShardCap {
		elem := s.lru.back()
		if elem == nil {
			return
		}
		s.lru.removeElement(elem)
		if it, ok := s.entries[elem.key]; ok {
			it.removed = true
			delete(s.entries, elem.key)
			c.evictions.Add(1)
		}
	}
}

// refreshActive repoints the active pointer when it references the persona
// that was just refreshed, so generation picks up the newest snapshot.
func (c *SignatureCache) refreshActive(id string, entry *Entry) {
	for {
		cur := c.active.Load()
		if cur == nil || cur.PersonaID != id {
			return
		}
		if c.active.CompareAndSwap(cur, entry) {
			return
		}
	}
}

func (c *SignatureCache) clearActive(id string) {
	for {
		cur := c.active.Load()
		if cur == nil || cur.PersonaID != id {
			return
		}
		if c.active.CompareAndSwap(cur, nil) {
			return
		}
	}
}
