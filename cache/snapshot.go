package cache

import (
	"context"
	"sync"
	"time"
)

// MarkerFunc returns the storage backend's current last-modified marker for
// a user's record category.
type MarkerFunc func(ctx context.Context, userID string) (int64, error)

// LoadFunc loads a user's full record set from the storage backend.
type LoadFunc[T any] func(ctx context.Context, userID string) ([]T, error)

// snapshot is an immutable in-memory copy of a user's record set, tagged
// with the marker observed at load time. Reloads replace the whole snapshot,
// they never merge into it.
type snapshot[T any] struct {
	records  []T
	marker   int64
	loadedAt time.Time
}

// SnapshotCache serves per-user record snapshots. A snapshot is reused while
// the backend marker is unchanged and the snapshot is younger than the TTL;
// otherwise the record set is reloaded and the entry swapped. Readers always
// observe a complete snapshot, old or new, never a partial mix. Up to one
// check interval of staleness is acceptable; this is a soft-consistency
// cache, not a correctness-critical one.
type SnapshotCache[T any] struct {
	mu      sync.RWMutex
	entries map[string]*snapshot[T]

	ttl    time.Duration
	marker MarkerFunc
	load   LoadFunc[T]

	hits   uint64
	misses uint64
}

// NewSnapshotCache creates a snapshot cache over the given marker and load
// functions.
func NewSnapshotCache[T any](ttl time.Duration, marker MarkerFunc, load LoadFunc[T]) *SnapshotCache[T] {
	return &SnapshotCache[T]{
		entries: make(map[string]*snapshot[T]),
		ttl:     ttl,
		marker:  marker,
		load:    load,
	}
}

// Get returns the user's record set, served from the cached snapshot when it
// is still fresh, otherwise reloaded from the backend. The returned slice is
// shared with the snapshot and must be treated as read-only. The second
// return value reports whether the cache was hit.
func (c *SnapshotCache[T]) Get(ctx context.Context, userID string) ([]T, bool, error) {
	current, err := c.marker(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()

	if ok && entry.marker == current && time.Since(entry.loadedAt) < c.ttl {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return entry.records, true, nil
	}

	// The marker is read before the records: a write landing between the
	// two shows up as a mismatch on the next Get.
	records, err := c.load(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	c.entries[userID] = &snapshot[T]{
		records:  records,
		marker:   current,
		loadedAt: time.Now(),
	}
	c.misses++
	c.mu.Unlock()

	return records, false, nil
}

// Invalidate drops the user's snapshot so the next Get reloads.
func (c *SnapshotCache[T]) Invalidate(userID string) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}

// Clear drops every snapshot.
func (c *SnapshotCache[T]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*snapshot[T])
	c.mu.Unlock()
}

// Prune drops snapshots older than the TTL and returns how many were
// removed.
func (c *SnapshotCache[T]) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for userID, entry := range c.entries {
		if time.Since(entry.loadedAt) >= c.ttl {
			delete(c.entries, userID)
			removed++
		}
	}
	return removed
}

// SnapshotStats holds hit and miss counters for a snapshot cache.
type SnapshotStats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Entries int    `json:"entries"`
}

// Stats returns the cache counters.
func (c *SnapshotCache[T]) Stats() SnapshotStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return SnapshotStats{
		Hits:    c.hits,
		Misses:  c.misses,
		Entries: len(c.entries),
	}
}
