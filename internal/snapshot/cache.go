// Package snapshot holds the dashboard's in-memory data layer: a single-entry
// versioned cache of the full remote snapshot, the bulk fetcher that fills it,
// and the optimistic mutation operations that patch it.
package snapshot

import (
	"sync"
	"time"

	"github.com/rawnaqshop/dashboard-service/internal/model"
)

// Cache stores at most one snapshot. Freshness (the TTL clock) is tracked
// separately from presence: an invalidated entry keeps serving reads until
// the next fetch replaces it, so optimistic patches stay visible while the
// cache is formally expired.
//
// Every write is version-guarded. Versions are issued by NextVersion before a
// fetch or patch starts; a write whose version is not newer than the stored
// one lost a race against newer data and is rejected. This is what keeps a
// slow forced refresh from clobbering a later optimistic patch.
type Cache struct {
	mu      sync.Mutex
	snap    *model.Snapshot
	fetched time.Time // zero while invalidated
	version uint64    // highest version issued so far
}

func NewCache() *Cache {
	return &Cache{}
}

// NextVersion reserves the version for an upcoming fetch or patch attempt.
func (c *Cache) NextVersion() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
	return c.version
}

// Get returns the stored snapshot regardless of freshness.
func (c *Cache) Get() (*model.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil {
		return nil, false
	}
	return c.snap, true
}

// Fresh returns the stored snapshot only while its age is below ttl.
func (c *Cache) Fresh(ttl time.Duration, now time.Time) (*model.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil || c.fetched.IsZero() {
		return nil, false
	}
	if now.Sub(c.fetched) >= ttl {
		return nil, false
	}
	return c.snap, true
}

// Publish installs a freshly fetched snapshot and restarts the TTL clock.
// Returns false when the snapshot is stale relative to the stored one.
func (c *Cache) Publish(s *model.Snapshot, fetchedAt time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap != nil && s.Version <= c.snap.Version {
		return false
	}
	c.snap = s
	c.fetched = fetchedAt
	return true
}

// Patch installs an optimistically modified snapshot without granting it
// freshness: the next TTL-checked fetch still goes to the remote store.
func (c *Cache) Patch(s *model.Snapshot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap != nil && s.Version <= c.snap.Version {
		return false
	}
	c.snap = s
	c.fetched = time.Time{}
	return true
}

// Invalidate expires the TTL while keeping the entry readable.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetched = time.Time{}
}

// Drop removes the entry entirely.
func (c *Cache) Drop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = nil
	c.fetched = time.Time{}
}
