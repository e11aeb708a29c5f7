// Package bucketed memoizes upstream results per (operation, subject, time
// bucket). Every caller in the same bucket sees the same bytes; a new bucket
// starts empty.
package bucketed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pleiades/flickr-portlet/internal/cache"
	"github.com/pleiades/flickr-portlet/internal/cache/keys"
	"github.com/pleiades/flickr-portlet/internal/core/observability"
	"github.com/pleiades/flickr-portlet/internal/logger"
)

// Operation names used as the first key component.
const (
	OpRelated  = "related"
	OpPortrait = "portrait"
)

// DefaultWidth is the bucket width when none is configured.
const DefaultWidth = 2 * time.Hour

var ops = []string{OpRelated, OpPortrait}

// ComputeFunc produces the bytes to cache. A returned error is passed back
// to the caller and nothing is stored.
type ComputeFunc func(ctx context.Context) ([]byte, error)

type Option func(*Cache)

// WithCoalescing collapses concurrent misses for the same key into one compute.
func WithCoalescing() Option {
	return func(c *Cache) { c.group = &singleflight.Group{} }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

type Cache struct {
	store  cache.Store
	width  time.Duration
	logger *slog.Logger
	now    func() time.Time
	group  *singleflight.Group
}

func New(store cache.Store, width time.Duration, logger *slog.Logger, opts ...Option) *Cache {
	if width < time.Second {
		width = DefaultWidth
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Cache{store: store, width: width, logger: logger, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Width is the bucket width.
func (c *Cache) Width() time.Duration { return c.width }

func (c *Cache) bucket() int64 {
	return keys.Bucket(c.now().Unix(), int64(c.width/time.Second))
}

// Cached returns the stored bytes for (op, subject, current bucket) or runs
// compute and stores its result. Store failures are logged and treated as a
// miss or a skipped write.
func (c *Cache) Cached(ctx context.Context, op, subject string, compute ComputeFunc) ([]byte, error) {
	key := keys.Key(op, subject, c.bucket())

	if val, ok := c.lookup(ctx, op, key); ok {
		observability.IncCacheHit(op)
		c.logger.DebugContext(logger.WithCacheOutcome(ctx, "hit"), "cache lookup", "op", op, "key", key)
		return val, nil
	}
	observability.IncCacheMiss(op)
	c.logger.DebugContext(logger.WithCacheOutcome(ctx, "miss"), "cache lookup", "op", op, "key", key)

	if c.group == nil {
		return c.fill(ctx, op, key, compute)
	}
	v, err, shared := c.group.Do(key, func() (any, error) {
		return c.fill(context.WithoutCancel(ctx), op, key, compute)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("cache fill coalesced", "op", op, "key", key)
	}
	return v.([]byte), nil
}

func (c *Cache) lookup(ctx context.Context, op, key string) ([]byte, bool) {
	val, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache get failed; treating as miss", "op", op, "key", key, "err", err)
		return nil, false
	}
	return val, ok
}

func (c *Cache) fill(ctx context.Context, op, key string, compute ComputeFunc) ([]byte, error) {
	val, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, key, val, c.width); err != nil {
		c.logger.Warn("cache set failed; result not stored", "op", op, "key", key, "err", err)
	}
	return val, nil
}

// Forget drops every entry for subject in the current and previous bucket.
func (c *Cache) Forget(ctx context.Context, subject string) error {
	b := c.bucket()
	ks := make([]string, 0, 2*len(ops))
	for _, op := range ops {
		ks = append(ks, keys.Key(op, subject, b), keys.Key(op, subject, b-1))
	}
	if err := c.store.Del(ctx, ks...); err != nil {
		return fmt.Errorf("cache forget %q: %w", subject, err)
	}
	return nil
}

// Ping reports store reachability for readiness checks.
func (c *Cache) Ping(ctx context.Context) error {
	if p, ok := c.store.(cache.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
