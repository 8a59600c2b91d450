package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stubClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stubClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type stubScanner struct {
	mu    sync.Mutex
	data  []string
	err   error
	calls int
}

func (s *stubScanner) scan(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

func (s *stubScanner) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newStubCache(ttl time.Duration) (*ViewCache[string], *stubScanner, *stubClock) {
	clock := &stubClock{t: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)}
	scanner := &stubScanner{data: []string{"alpha", "beta"}}
	c := NewViewCache("test:view", scanner.scan,
		WithTTL[string](ttl),
		WithClock[string](clock.now),
	)
	return c, scanner, clock
}

func TestViewCacheGet(t *testing.T) {
	ctx := context.Background()

	t.Run("scans on first access then serves from cache", func(t *testing.T) {
		c, scanner, _ := newStubCache(time.Minute)

		data, err := c.Get(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "beta"}, data)

		_, err = c.Get(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, 1, scanner.callCount())
	})

	t.Run("rescans once the TTL elapses", func(t *testing.T) {
		c, scanner, clock := newStubCache(time.Minute)

		_, err := c.Get(ctx, false)
		require.NoError(t, err)

		clock.advance(59 * time.Second)
		_, err = c.Get(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, 1, scanner.callCount(), "still fresh just under the TTL")

		clock.advance(time.Second)
		_, err = c.Get(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, 2, scanner.callCount(), "exactly at the TTL counts as stale")
	})

	t.Run("force bypasses the TTL", func(t *testing.T) {
		c, scanner, _ := newStubCache(time.Hour)

		_, err := c.Get(ctx, false)
		require.NoError(t, err)
		_, err = c.Get(ctx, true)
		require.NoError(t, err)
		assert.Equal(t, 2, scanner.callCount())
	})
}

func TestViewCacheDegradedFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("serves stale data when a rescan fails", func(t *testing.T) {
		c, scanner, clock := newStubCache(time.Minute)

		_, err := c.Get(ctx, false)
		require.NoError(t, err)
		require.False(t, c.Degraded())

		scanner.err = errors.New("store unreachable")
		clock.advance(2 * time.Minute)

		data, err := c.Get(ctx, false)
		require.NoError(t, err, "a populated slot swallows the scan error")
		assert.Equal(t, []string{"alpha", "beta"}, data)
		assert.True(t, c.Degraded())
	})

	t.Run("a successful rescan clears the degraded state", func(t *testing.T) {
		c, scanner, _ := newStubCache(time.Minute)

		_, err := c.Get(ctx, false)
		require.NoError(t, err)

		scanner.err = errors.New("store unreachable")
		_, err = c.Get(ctx, true)
		require.NoError(t, err)
		require.True(t, c.Degraded())

		scanner.err = nil
		scanner.data = []string{"gamma"}
		data, err := c.Get(ctx, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"gamma"}, data)
		assert.False(t, c.Degraded())
	})

	t.Run("propagates the error when the slot was never populated", func(t *testing.T) {
		c, scanner, _ := newStubCache(time.Minute)
		scanner.err = errors.New("store unreachable")

		data, err := c.Get(ctx, false)
		assert.Error(t, err)
		assert.Nil(t, data)
		assert.False(t, c.Degraded())
	})
}

func TestViewCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	c, scanner, _ := newStubCache(time.Hour)

	_, err := c.Get(ctx, false)
	require.NoError(t, err)

	c.Invalidate()
	_, err = c.Get(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, scanner.callCount(), "invalidation forces a rescan")

	t.Run("keeps the snapshot for degraded fallback", func(t *testing.T) {
		c.Invalidate()
		scanner.err = errors.New("store unreachable")

		data, err := c.Get(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "beta"}, data)
		assert.True(t, c.Degraded())
	})
}

func TestViewCacheName(t *testing.T) {
	c, _, _ := newStubCache(time.Minute)
	assert.Equal(t, "test:view", c.Name())
}
