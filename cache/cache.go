package cache

import (
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/npillmayer/glyphcache/rwlock"
)

// DefaultCapacity is the number of entries a cache holds if no capacity
// has been configured.
const DefaultCapacity = 30

// Cache is a bounded registry of entries, keyed by font signature.
type Cache struct {
	lock       *rwlock.RWLock
	entries    map[Signature]*Entry
	capacity   int
	rasterizer Rasterizer
	now        func() time.Time
	onEvict    func(*Entry)
	serial     atomic.Uint64
	stats      counters
}

type counters struct {
	hits, misses, failures, evictions, destroyed atomic.Uint64
}

// Stats is a snapshot of a cache's counters.
type Stats struct {
	Entries   int
	Hits      uint64 // EntryFor found an existing entry
	Misses    uint64 // EntryFor had to create an entry
	Failures  uint64 // entry creation failed
	Evictions uint64 // entries removed to make room
	Destroyed uint64 // entries whose last reference has been dropped
}

// EntryInfo describes an entry for diagnostics.
type EntryInfo struct {
	ID         uint64
	Font       string
	Signature  Signature
	References int
	Uses       uint64
	LastUsed   time.Time
	Glyphs     int
}

// Option configures a Cache.
type Option func(*Cache)

// WithCapacity sets the maximum number of entries. Values below 1 are
// ignored.
func WithCapacity(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithClock replaces the time source used for usage statistics.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithEvictionHook registers a function called for each evicted entry,
// while the registry is locked exclusively. It must not call back into
// the cache.
func WithEvictionHook(hook func(*Entry)) Option {
	return func(c *Cache) {
		c.onEvict = hook
	}
}

// New creates a cache which produces glyph sources with rasterizer.
func New(rasterizer Rasterizer, opts ...Option) *Cache {
	mustHold(rasterizer != nil, "cache needs a rasterizer")
	c := &Cache{
		lock:       rwlock.New(),
		entries:    make(map[Signature]*Entry),
		capacity:   DefaultCapacity,
		rasterizer: rasterizer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Capacity returns the maximum number of entries.
func (c *Cache) Capacity() int { return c.capacity }

// Len returns the number of entries in the registry.
func (c *Cache) Len() int {
	h := rwlock.NewHolder()
	c.lock.ReadLock(h)
	defer c.lock.ReadUnlock(h)
	return len(c.entries)
}

// EntryFor returns the entry for font, creating it if necessary. The
// returned entry carries a reference for the caller, which must be given
// back with Recycle.
func (c *Cache) EntryFor(font Font) (*Entry, error) {
	sig := font.Signature()
	h := rwlock.NewHolder()
	c.lock.ReadLock(h)
	if e, ok := c.entries[sig]; ok {
		e.AcquireReference()
		c.lock.ReadUnlock(h)
		c.stats.hits.Add(1)
		return e, nil
	}
	c.lock.ReadUnlock(h)
	//
	c.lock.WriteLock(h)
	defer c.lock.WriteUnlock(h)
	if e, ok := c.entries[sig]; ok { // created while we were waiting
		e.AcquireReference()
		c.stats.hits.Add(1)
		return e, nil
	}
	c.stats.misses.Add(1)
	source, err := c.rasterizer.NewSource(font)
	if err != nil {
		c.stats.failures.Add(1)
		tracer().Errorf("cannot create entry for %s: %v", font, err)
		return nil, fmt.Errorf("%w %s: %v", ErrNoEntry, font, err)
	}
	for len(c.entries) >= c.capacity {
		c.evictLocked()
	}
	e := newEntry(c.serial.Add(1), font, sig, source, c.now)
	e.onDestroy = c.entryDestroyed
	e.refs.Store(2) // registry and caller
	c.entries[sig] = e
	tracer().Infof("created %s, %d entries", e, len(c.entries))
	return e, nil
}

// Lookup returns the entry with signature sig, if it is registered. A
// found entry carries a reference for the caller.
func (c *Cache) Lookup(sig Signature) (*Entry, bool) {
	h := rwlock.NewHolder()
	c.lock.ReadLock(h)
	defer c.lock.ReadUnlock(h)
	e, ok := c.entries[sig]
	if ok {
		e.AcquireReference()
	}
	return e, ok
}

// Recycle records a completed use of e and gives back the caller's
// reference.
func (c *Cache) Recycle(e *Entry) {
	if e == nil {
		return
	}
	e.UpdateUsage()
	e.ReleaseReference()
}

// evictLocked removes the entry with the lowest usage index. Ties go to
// the entry used longest ago, then to the lower ID. The registry must be
// locked exclusively.
func (c *Cache) evictLocked() {
	now := c.now()
	var victim *Entry
	var lowest float64
	for _, e := range c.entries {
		index := e.UsageIndex(now)
		if victim == nil || index < lowest ||
			(index == lowest && evictBefore(e, victim)) {
			victim, lowest = e, index
		}
	}
	if victim == nil {
		return
	}
	delete(c.entries, victim.sig)
	c.stats.evictions.Add(1)
	tracer().Infof("evicting %s, usage index %.4f", victim, lowest)
	if c.onEvict != nil {
		c.onEvict(victim)
	}
	victim.ReleaseReference()
}

func evictBefore(a, b *Entry) bool {
	la, lb := a.lastUsed.Load(), b.lastUsed.Load()
	if la != lb {
		return la < lb
	}
	return a.id < b.id
}

func (c *Cache) entryDestroyed(e *Entry) {
	c.stats.destroyed.Add(1)
}

// Entries returns a snapshot of the registered entries, ordered by ID.
func (c *Cache) Entries() []EntryInfo {
	h := rwlock.NewHolder()
	c.lock.ReadLock(h)
	entries := make([]*Entry, 0, len(c.entries))
	for _, e := range c.entries {
		e.AcquireReference()
		entries = append(entries, e)
	}
	c.lock.ReadUnlock(h)
	// entry locks must not be taken while the registry is locked
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })
	infos := make([]EntryInfo, len(entries))
	for i, e := range entries {
		infos[i] = EntryInfo{
			ID:         e.id,
			Font:       e.font.String(),
			Signature:  e.sig,
			References: e.References() - 1,
			Uses:       e.UseCount(),
			LastUsed:   e.LastUsed(),
			Glyphs:     e.GlyphCount(h),
		}
		e.ReleaseReference()
	}
	return infos
}

// Stats returns a snapshot of the cache's counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries:   c.Len(),
		Hits:      c.stats.hits.Load(),
		Misses:    c.stats.misses.Load(),
		Failures:  c.stats.failures.Load(),
		Evictions: c.stats.evictions.Load(),
		Destroyed: c.stats.destroyed.Load(),
	}
}

// Close removes all entries from the registry. Entries still referenced
// by clients stay usable until they are recycled.
func (c *Cache) Close() error {
	h := rwlock.NewHolder()
	c.lock.WriteLock(h)
	defer c.lock.WriteUnlock(h)
	for sig, e := range c.entries {
		delete(c.entries, sig)
		e.ReleaseReference()
	}
	tracer().Infof("cache closed")
	return nil
}
