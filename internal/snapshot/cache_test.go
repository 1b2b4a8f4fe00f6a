package snapshot

import (
	"testing"
	"time"

	"github.com/rawnaqshop/dashboard-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_FreshRespectsTTL(t *testing.T) {
	c := NewCache()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	snap := &model.Snapshot{Version: c.NextVersion()}
	require.True(t, c.Publish(snap, base))

	got, ok := c.Fresh(5*time.Minute, base.Add(4*time.Minute))
	assert.True(t, ok)
	assert.Same(t, snap, got)

	_, ok = c.Fresh(5*time.Minute, base.Add(5*time.Minute))
	assert.False(t, ok, "entry at exactly TTL age must be expired")

	// Expired entries stay readable through Get.
	got, ok = c.Get()
	assert.True(t, ok)
	assert.Same(t, snap, got)
}

func TestCache_PublishRejectsStaleVersion(t *testing.T) {
	c := NewCache()
	now := time.Now()

	vOld := c.NextVersion()
	vNew := c.NextVersion()

	newer := &model.Snapshot{Version: vNew}
	require.True(t, c.Publish(newer, now))

	// A fetch that reserved its version earlier but finished later loses.
	older := &model.Snapshot{Version: vOld}
	assert.False(t, c.Publish(older, now.Add(time.Second)))

	got, ok := c.Get()
	require.True(t, ok)
	assert.Same(t, newer, got)
}

func TestCache_PatchKeepsEntryButNotFreshness(t *testing.T) {
	c := NewCache()
	base := time.Now()

	require.True(t, c.Publish(&model.Snapshot{Version: c.NextVersion()}, base))

	patched := &model.Snapshot{Version: c.NextVersion()}
	require.True(t, c.Patch(patched))

	// Patched data is readable immediately but does not count as fresh.
	got, ok := c.Get()
	require.True(t, ok)
	assert.Same(t, patched, got)

	_, ok = c.Fresh(time.Hour, base)
	assert.False(t, ok)
}

func TestCache_PatchRejectsStaleVersion(t *testing.T) {
	c := NewCache()

	v1 := c.NextVersion()
	v2 := c.NextVersion()
	require.True(t, c.Patch(&model.Snapshot{Version: v2}))

	assert.False(t, c.Patch(&model.Snapshot{Version: v1}))

	got, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, v2, got.Version)
}

func TestCache_InvalidateAndDrop(t *testing.T) {
	c := NewCache()
	base := time.Now()

	snap := &model.Snapshot{Version: c.NextVersion()}
	require.True(t, c.Publish(snap, base))

	c.Invalidate()
	_, ok := c.Fresh(time.Hour, base)
	assert.False(t, ok)
	got, ok := c.Get()
	assert.True(t, ok)
	assert.Same(t, snap, got)

	c.Drop()
	_, ok = c.Get()
	assert.False(t, ok)
}
