// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"container/list"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultMaxCachedChains is used when the engine config leaves the limit at zero.
const DefaultMaxCachedChains = 100

// cacheEntry is a cached chain context keyed by its end certificate.
type cacheEntry struct {
	key string
	cc  *ChainContext
	// The chain's time validity bits are stable for any reference time in
	// [validFrom, validUntil].
	validFrom  time.Time
	validUntil time.Time
}

// isFresh reports whether the cached result still holds at the given time.
func (e *cacheEntry) isFresh(at time.Time) bool {
	return !at.Before(e.validFrom) && !at.After(e.validUntil)
}

// CacheMetrics tracks end certificate cache usage.
type CacheMetrics struct {
	Size      int64 // Current number of cached chains
	Hits      int64 // Number of cache hits
	Misses    int64 // Number of cache misses
	Evictions int64 // Number of LRU evictions
}

// chainCache is an LRU of built chain contexts. The cache holds one
// reference on every cached context.
type chainCache struct {
	mu      sync.Mutex
	maxSize int
	order   *list.List // front is most recently used
	entries map[string]*list.Element

	hits, misses, evictions atomic.Int64
	metrics                 *Metrics
}

func newChainCache(maxSize int, m *Metrics) *chainCache {
	return &chainCache{
		maxSize: maxSize,
		order:   list.New(),
		entries: make(map[string]*list.Element),
		metrics: m,
	}
}

// cacheKey identifies a build by end certificate hash and flags.
func cacheKey(hash []byte, flags Flags) string {
	return fmt.Sprintf("%s/%x", hex.EncodeToString(hash), uint32(flags))
}

// get returns a new reference on the cached chain for key if it is fresh at
// the given time. A stale entry is dropped.
func (c *chainCache) get(key string, at time.Time) (*ChainContext, bool) {
	c.mu.Lock()
	el, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		c.miss()
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if !entry.isFresh(at) {
		c.order.Remove(el)
		delete(c.entries, key)
		c.mu.Unlock()
		entry.cc.Free()
		c.miss()
		return nil, false
	}
	c.order.MoveToFront(el)
	cc := entry.cc.Dup()
	c.mu.Unlock()

	c.hits.Add(1)
	c.metrics.IncrementCacheLookup(true)
	return cc, true
}

func (c *chainCache) miss() {
	c.misses.Add(1)
	c.metrics.IncrementCacheLookup(false)
}

// put caches cc under key, taking a reference of its own. The entry stays
// fresh for the window recorded when cc was built.
func (c *chainCache) put(key string, cc *ChainContext) {
	if c.maxSize <= 0 {
		return
	}
	entry := &cacheEntry{key: key, cc: cc.Dup(), validFrom: cc.validFrom, validUntil: cc.validUntil}

	var evicted []*ChainContext
	c.mu.Lock()
	if old, ok := c.entries[key]; ok {
		evicted = append(evicted, old.Value.(*cacheEntry).cc)
		c.order.Remove(old)
	}
	c.entries[key] = c.order.PushFront(entry)
	for c.order.Len() > c.maxSize {
		lru := c.order.Back()
		e := lru.Value.(*cacheEntry)
		c.order.Remove(lru)
		delete(c.entries, e.key)
		evicted = append(evicted, e.cc)
		c.evictions.Add(1)
		c.metrics.IncrementCacheEvictions(1)
	}
	c.mu.Unlock()

	for _, old := range evicted {
		old.Free()
	}
}

// flush drops every cached chain.
func (c *chainCache) flush() {
	c.mu.Lock()
	var held []*ChainContext
	for el := c.order.Front(); el != nil; el = el.Next() {
		held = append(held, el.Value.(*cacheEntry).cc)
	}
	c.order.Init()
	clear(c.entries)
	c.mu.Unlock()

	for _, cc := range held {
		cc.Free()
	}
}

func (c *chainCache) snapshot() CacheMetrics {
	c.mu.Lock()
	size := int64(c.order.Len())
	c.mu.Unlock()
	return CacheMetrics{
		Size:      size,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// stats formats the cache statistics for display.
func (c *chainCache) stats() string {
	m := c.snapshot()
	hitRate := float64(0)
	if total := m.Hits + m.Misses; total > 0 {
		hitRate = float64(m.Hits) / float64(total) * 100
	}
	return fmt.Sprintf("Chain Cache Statistics:\n"+
		"  Size: %d/%d entries\n"+
		"  Hit Rate: %.1f%% (%d hits, %d misses)\n"+
		"  Evictions: %d",
		m.Size, c.maxSize,
		hitRate, m.Hits, m.Misses,
		m.Evictions)
}

// stableWindow returns the interval around at in which no certificate of
// ccs or their alternates changes time validity.
func stableWindow(at time.Time, ccs ...*ChainContext) (time.Time, time.Time) {
	from := time.Time{}
	until := time.Unix(1<<62, 0)

	var visit func(*ChainContext)
	visit = func(cc *ChainContext) {
		for _, chain := range cc.Chains {
			for _, el := range chain.Elements {
				cert := el.Context.Cert()
				switch {
				case at.Before(cert.NotBefore):
					until = minTime(until, cert.NotBefore.Add(-time.Nanosecond))
				case at.After(cert.NotAfter):
					from = maxTime(from, cert.NotAfter.Add(time.Nanosecond))
				default:
					from = maxTime(from, cert.NotBefore)
					until = minTime(until, cert.NotAfter)
				}
			}
		}
		for _, alt := range cc.LowerQuality {
			visit(alt)
		}
	}
	for _, cc := range ccs {
		visit(cc)
	}
	return from, until
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
