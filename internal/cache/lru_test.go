package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("other", "v")
	now = now.Add(2 * time.Minute)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 0, c.Size())
}

func TestLRUWithoutTTLNeverExpires(t *testing.T) {
	c := NewLRUCache[int](10, 0)
	c.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	c.Set("k", 1)

	_, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 0, c.CleanExpired())
}

func TestDeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("b1/Budget", 1)
	c.Set("b1/Løn", 2)
	c.Set("b2/Budget", 3)

	assert.Equal(t, 2, c.DeletePrefix("b1/"))
	assert.Equal(t, 1, c.Size())
	_, ok := c.Get("b2/Budget")
	assert.True(t, ok)
}

func TestStats(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("k", 1)
	c.Get("k")
	c.Get("missing")

	assert.Equal(t, Stats{Size: 1, Hits: 1, Misses: 1}, c.Stats())
}

func TestManagerSweep(t *testing.T) {
	now := time.Now()
	c := NewLRUCache[int](10, time.Second)
	c.now = func() time.Time { return now }
	c.Set("k", 1)

	m := NewManager()
	m.Register(c)
	m.StartCleanup(time.Hour)
	defer m.Stop()

	now = now.Add(time.Minute)
	assert.Equal(t, 1, m.Sweep())
}
