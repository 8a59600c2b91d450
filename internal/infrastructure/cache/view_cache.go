package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultViewTTL is how long a cached view stays fresh
const DefaultViewTTL = 10 * time.Minute

// ScanFunc produces a view's data by scanning the backing store
type ScanFunc[T any] func(ctx context.Context) ([]T, error)

// ViewCache is a single-slot TTL cache for one query view ("clients with
// unpaid patente", ...). A slot moves through: empty -> populated (first
// successful scan) -> stale (TTL elapsed or invalidation) -> populated
// (next successful scan), or -> degraded when a scan fails while stale and
// the old data is kept and re-served. A later successful scan returns a
// degraded slot to populated.
type ViewCache[T any] struct {
	name   string
	ttl    time.Duration
	scan   ScanFunc[T]
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	data      []T
	timestamp time.Time
	populated bool
	degraded  bool
}

// ViewCacheOption is a functional option for configuring a view cache
type ViewCacheOption[T any] func(*ViewCache[T])

// WithTTL overrides the default view TTL
func WithTTL[T any](ttl time.Duration) ViewCacheOption[T] {
	return func(c *ViewCache[T]) {
		c.ttl = ttl
	}
}

// WithLogger sets the logger for the cache
func WithLogger[T any](logger *zap.Logger) ViewCacheOption[T] {
	return func(c *ViewCache[T]) {
		c.logger = logger
	}
}

// WithClock injects the time source, for tests
func WithClock[T any](now func() time.Time) ViewCacheOption[T] {
	return func(c *ViewCache[T]) {
		c.now = now
	}
}

// NewViewCache creates a cache slot for one view
func NewViewCache[T any](name string, scan ScanFunc[T], opts ...ViewCacheOption[T]) *ViewCache[T] {
	c := &ViewCache[T]{
		name:   name,
		ttl:    DefaultViewTTL,
		scan:   scan,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the view's data. With force false, fresh cached data is
// returned as-is; otherwise the view is re-scanned. With force true the TTL
// check is bypassed and a scan always runs.
//
// When a scan fails and the slot was ever populated, the stale data is
// returned as a degraded fallback with a nil error; the error only
// propagates when no data has ever been cached.
func (c *ViewCache[T]) Get(ctx context.Context, force bool) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !force && c.populated && c.now().Sub(c.timestamp) < c.ttl {
		c.logger.Debug("View cache hit", zap.String("view", c.name))
		return c.data, nil
	}

	data, err := c.scan(ctx)
	if err != nil {
		if c.populated {
			c.degraded = true
			c.logger.Warn("View scan failed, serving stale data",
				zap.String("view", c.name),
				zap.Error(err))
			return c.data, nil
		}
		c.logger.Error("View scan failed with no cached fallback",
			zap.String("view", c.name),
			zap.Error(err))
		return nil, err
	}

	c.data = data
	c.timestamp = c.now()
	c.populated = true
	c.degraded = false
	c.logger.Debug("View cache refreshed",
		zap.String("view", c.name),
		zap.Int("count", len(data)))
	return c.data, nil
}

// Invalidate marks the slot stale so the next Get re-scans. The cached data
// is kept for degraded fallback. Safe to call repeatedly and concurrently.
func (c *ViewCache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timestamp = time.Time{}
}

// Name returns the view name
func (c *ViewCache[T]) Name() string {
	return c.name
}

// Degraded reports whether the slot is currently serving stale fallback data
func (c *ViewCache[T]) Degraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded
}
