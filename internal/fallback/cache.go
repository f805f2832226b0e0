// Package fallback provides the two-tier stale-data cache that lets the
// aggregator degrade gracefully when a source is unreachable.
//
// Layer one is an in-memory map for fast access; layer two is an optional
// PersistentStore surviving process restarts. A successful fetch is written
// to both layers (durable-write errors are swallowed); a failed fetch is
// answered from memory, then from the durable layer on a memory miss,
// warming memory on a durable hit.
package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mobilitydash/mobility-data-aggregation/internal/logger"
	"github.com/mobilitydash/mobility-data-aggregation/internal/mobility"
)

// entry holds the cached payload in its encoded form. Decoding on every
// retrieval hands each caller a private copy, so consumers of the same
// entry never share pointers with the cache or with each other.
type entry struct {
	payload   []byte
	fetchedAt time.Time
}

// Cache wraps source calls with a cache + fallback layer. A nil store means
// memory-only operation: everything still works, nothing survives restarts.
//
// Cache state is process-wide and shared across builds. Operations on the
// same source name are serialized by per-name locks; disjoint names do not
// contend. Concurrent successes for one name resolve last-write-wins.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	locks   map[string]*sync.Mutex

	store PersistentStore
	log   logger.Logger
}

// NewCache creates a Cache backed by the given durable store. Either
// argument may be nil.
func NewCache(store PersistentStore, log logger.Logger) *Cache {
	if log == nil {
		log = logger.NewNop()
	}
	return &Cache{
		entries: make(map[string]entry),
		locks:   make(map[string]*sync.Mutex),
		store:   store,
		log:     log,
	}
}

// FetchWithFallback calls the source and caches the result on success. On
// failure it substitutes the last known payload, reporting "cached", or
// "failed" when nothing is available. It never returns an error. Cached
// substitutes are fresh decoded copies; mutating one never affects the
// cache or other callers.
func (c *Cache) FetchWithFallback(ctx context.Context, src mobility.Source, location string, params mobility.Params) (mobility.PartialResult, mobility.SourceStatus) {
	name := mobility.SourceName(src)

	partial, err := mobility.CallSource(ctx, src, location, params)
	if err == nil {
		c.save(ctx, name, partial)
		return partial, mobility.StatusLive
	}

	c.log.Warn("source fetch failed, falling back to cache",
		logger.String("source", name),
		logger.String("location", location),
		logger.Error(err))

	if cached, _, ok := c.lookup(ctx, name); ok {
		return cached, mobility.StatusCached
	}
	return mobility.PartialResult{}, mobility.StatusFailed
}

// HasCached reports whether any payload is cached for the source name,
// checking the durable layer on a memory miss so a freshly started process
// can answer without attempting a live fetch.
func (c *Cache) HasCached(ctx context.Context, name string) bool {
	_, _, ok := c.lookup(ctx, name)
	return ok
}

// LastSuccessTime returns the timestamp of the last successful fetch for
// the source name, performing the same durable-layer lookup-on-miss as the
// fallback path.
func (c *Cache) LastSuccessTime(ctx context.Context, name string) (time.Time, bool) {
	_, ts, ok := c.lookup(ctx, name)
	if !ok {
		return time.Time{}, false
	}
	return ts, true
}

// Clear removes the entry for one source name from both layers.
func (c *Cache) Clear(ctx context.Context, name string) {
	lock := c.nameLock(name)
	lock.Lock()
	defer lock.Unlock()

	c.mu.Lock()
	delete(c.entries, name)
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	if err := c.store.Delete(ctx, name); err != nil {
		c.log.Warn("durable cache delete failed",
			logger.String("source", name),
			logger.Error(err))
	}
}

// ClearAll removes every entry from both layers.
func (c *Cache) ClearAll(ctx context.Context) {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	keys, err := c.store.ListKeys(ctx)
	if err != nil {
		c.log.Warn("durable cache key listing failed", logger.Error(err))
		return
	}
	for _, key := range keys {
		if err := c.store.Delete(ctx, key); err != nil {
			c.log.Warn("durable cache delete failed",
				logger.String("source", key),
				logger.Error(err))
		}
	}
}

// save encodes a fresh payload and stores the blob in memory and, best
// effort, durably. Every success overwrites the prior entry for the name.
// The source's original value is never retained, so later mutation of the
// returned partial cannot reach the cache.
func (c *Cache) save(ctx context.Context, name string, partial mobility.PartialResult) {
	payload, err := json.Marshal(partial)
	if err != nil {
		c.log.Warn("cache payload serialization failed",
			logger.String("source", name),
			logger.Error(err))
		return
	}

	lock := c.nameLock(name)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC()

	c.mu.Lock()
	c.entries[name] = entry{payload: payload, fetchedAt: now}
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	if err := c.store.Put(ctx, name, payload, now); err != nil {
		c.log.Warn("durable cache write failed, memory cache still holds the entry",
			logger.String("source", name),
			logger.Error(err))
	}
}

// lookup finds and decodes the entry for a name: memory first, then the
// durable layer, warming memory on a durable hit. Each call returns its own
// decoded copy.
func (c *Cache) lookup(ctx context.Context, name string) (mobility.PartialResult, time.Time, bool) {
	lock := c.nameLock(name)
	lock.Lock()
	defer lock.Unlock()

	c.mu.Lock()
	e, inMemory := c.entries[name]
	c.mu.Unlock()

	if !inMemory {
		if c.store == nil {
			return mobility.PartialResult{}, time.Time{}, false
		}
		payload, ts, err := c.store.Get(ctx, name)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				c.log.Warn("durable cache read failed",
					logger.String("source", name),
					logger.Error(err))
			}
			return mobility.PartialResult{}, time.Time{}, false
		}
		e = entry{payload: payload, fetchedAt: ts}
	}

	var partial mobility.PartialResult
	if err := json.Unmarshal(e.payload, &partial); err != nil {
		c.log.Warn("durable cache payload corrupted",
			logger.String("source", name),
			logger.Error(fmt.Errorf("decode: %w", err)))
		return mobility.PartialResult{}, time.Time{}, false
	}

	if !inMemory {
		c.mu.Lock()
		c.entries[name] = e
		c.mu.Unlock()
	}
	return partial, e.fetchedAt, true
}

func (c *Cache) nameLock(name string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[name] = lock
	}
	return lock
}
