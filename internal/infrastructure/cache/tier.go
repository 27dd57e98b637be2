package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Tier is a typed view over a Store with a fixed TTL and key namespace
type Tier[V any] struct {
	name   string
	store  Store
	ttl    time.Duration
	logger *zap.Logger

	// In-flight loads keyed like the cache, concurrent misses share one load
	group singleflight.Group
	// Bounds a shared load, which outlives the caller that started it
	loadTimeout time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// TierStats is a snapshot of a tier's counters
type TierStats struct {
	Name    string        `json:"name"`
	TTL     time.Duration `json:"ttl"`
	Hits    int64         `json:"hits"`
	Misses  int64         `json:"misses"`
	Entries int           `json:"entries"`
}

// DefaultLoadTimeout bounds a shared load when the tier is not given one
const DefaultLoadTimeout = 30 * time.Second

// NewTier creates a tier storing values under "name:" prefixed keys
func NewTier[V any](name string, store Store, ttl time.Duration, logger *zap.Logger) *Tier[V] {
	return &Tier[V]{
		name:        name,
		store:       store,
		ttl:         ttl,
		logger:      logger,
		loadTimeout: DefaultLoadTimeout,
	}
}

// WithLoadTimeout sets the deadline of shared loads, zero or less keeps the default
func (t *Tier[V]) WithLoadTimeout(d time.Duration) *Tier[V] {
	if d > 0 {
		t.loadTimeout = d
	}
	return t
}

// Name returns the tier name
func (t *Tier[V]) Name() string {
	return t.name
}

// TTL returns the tier's fixed time-to-live
func (t *Tier[V]) TTL() time.Duration {
	return t.ttl
}

// Get returns the cached value for key. Backend errors are logged and count as a miss.
func (t *Tier[V]) Get(ctx context.Context, key string) (V, bool) {
	var value V
	err := t.store.Get(ctx, t.storeKey(key), &value)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			t.logger.Warn("Cache read failed, treating as miss",
				zap.String("tier", t.name),
				zap.String("key", key),
				zap.Error(err),
			)
		}
		t.misses.Add(1)
		cacheRequestsTotal.WithLabelValues(t.name, "miss").Inc()
		var zero V
		return zero, false
	}

	t.hits.Add(1)
	cacheRequestsTotal.WithLabelValues(t.name, "hit").Inc()
	return value, true
}

// Put stores value under key with the tier TTL. Backend errors are logged.
func (t *Tier[V]) Put(ctx context.Context, key string, value V) {
	if err := t.store.Set(ctx, t.storeKey(key), value, t.ttl); err != nil {
		t.logger.Warn("Failed to cache value",
			zap.String("tier", t.name),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// GetOrLoad returns the cached value or calls load and caches its result.
// Concurrent misses for the same key share a single load. Failed loads are not cached.
func (t *Tier[V]) GetOrLoad(ctx context.Context, key string, load func(ctx context.Context) (V, error)) (V, error) {
	if value, ok := t.Get(ctx, key); ok {
		return value, nil
	}
	return t.Load(ctx, key, load)
}

// Load is GetOrLoad for a key the caller already saw miss.
// The shared load runs detached from any single caller so one caller giving up
// does not fail the others; each caller still returns as soon as its own ctx ends.
func (t *Tier[V]) Load(ctx context.Context, key string, load func(ctx context.Context) (V, error)) (V, error) {
	ch := t.group.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.loadTimeout)
		defer cancel()

		// Another caller may have populated the key while we waited to enter
		if value, ok := t.peek(loadCtx, key); ok {
			return value, nil
		}

		value, err := load(loadCtx)
		if err != nil {
			return value, err
		}
		t.Put(loadCtx, key, value)
		return value, nil
	})

	select {
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			cacheCoalescedTotal.WithLabelValues(t.name).Inc()
		}
		value, _ := res.Val.(V)
		return value, res.Err
	}
}

// Stats returns the tier counters
func (t *Tier[V]) Stats() TierStats {
	stats := TierStats{
		Name:    t.name,
		TTL:     t.ttl,
		Hits:    t.hits.Load(),
		Misses:  t.misses.Load(),
		Entries: -1,
	}
	if counter, ok := t.store.(interface{ Len() int }); ok {
		stats.Entries = counter.Len()
	}
	return stats
}

// peek reads without touching the counters
func (t *Tier[V]) peek(ctx context.Context, key string) (V, bool) {
	var value V
	if err := t.store.Get(ctx, t.storeKey(key), &value); err != nil {
		var zero V
		return zero, false
	}
	return value, true
}

func (t *Tier[V]) storeKey(key string) string {
	return t.name + ":" + key
}
