package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/chassis-framework/chassis/pkg/observability"
)

// UseDefaultTTL selects the provider's configured default TTL.
const UseDefaultTTL time.Duration = -1

// scanBatchSize bounds each SCAN round trip during pattern invalidation.
const scanBatchSize int64 = 100

// Provider is the read-through get-or-compute layer over a Store. Store
// failures are logged and degraded to a direct compute; caching problems
// must never surface as request failures.
type Provider struct {
	store      Store
	logger     *observability.Logger
	metrics    *observability.Metrics
	defaultTTL time.Duration
	group      singleflight.Group
}

// NewProvider creates a cache provider. metrics may be nil. A defaultTTL of
// zero disables caching globally: every lookup with UseDefaultTTL bypasses
// the store.
func NewProvider(store Store, logger *observability.Logger, metrics *observability.Metrics, defaultTTL time.Duration) *Provider {
	return &Provider{
		store:      store,
		logger:     logger,
		metrics:    metrics,
		defaultTTL: defaultTTL,
	}
}

// BuildKey joins key segments with ':'. By convention the segments are
// entity name, identifier, operation, e.g. "user:42:read".
func (p *Provider) BuildKey(segments ...string) string {
	return strings.Join(segments, ":")
}

// GetOrCompute returns the cached value for key, computing and storing it on
// a miss. The returned bool reports whether the call was served from cache.
//
// A resolved TTL of zero bypasses the store entirely: compute runs exactly
// once per invocation and nothing is read or written. Pass UseDefaultTTL to
// use the provider's configured TTL. Concurrent misses for the same key share
// one compute, which runs detached from the first caller's cancellation so
// its result stays valid for the other waiters.
func GetOrCompute[T any](ctx context.Context, p *Provider, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, bool, error) {
	var zero T

	resolved := ttl
	if resolved == UseDefaultTTL {
		resolved = p.defaultTTL
	}

	if resolved == 0 {
		p.countBypass(key)
		value, err := compute(ctx)
		return value, false, err
	}

	raw, err := p.store.Get(ctx, key)
	switch {
	case err == nil:
		var value T
		decodeErr := decodeInto(raw, &value)
		if decodeErr == nil {
			p.countHit(key)
			return value, true, nil
		}
		// Corrupt entry: drop it and recompute.
		p.logger.WithError(decodeErr).WithField("key", key).Warn("dropping undecodable cache entry")
		if delErr := p.store.Del(ctx, key); delErr != nil {
			p.logger.WithError(delErr).WithField("key", key).Warn("failed to drop cache entry")
		}
	case err == ErrCacheMiss:
		p.countMiss(key)
	default:
		// Lookup failed: degrade to a direct compute, skipping the write.
		p.countError("get")
		p.logger.WithError(err).WithField("key", key).Warn("cache lookup failed, computing directly")
		value, err := compute(ctx)
		return value, false, err
	}

	// The computed value is shared by every deduplicated waiter, so it must
	// not die with the first caller's cancellation.
	computeCtx := context.WithoutCancel(ctx)
	result, err, _ := p.group.Do(key, func() (interface{}, error) {
		value, err := compute(computeCtx)
		if err != nil {
			return nil, err
		}

		encoded, encErr := encode(value)
		if encErr != nil {
			p.logger.WithError(encErr).WithField("key", key).Warn("failed to encode cache value")
			return value, nil
		}
		if setErr := p.store.Set(computeCtx, key, encoded, resolved); setErr != nil {
			p.countError("set")
			p.logger.WithError(setErr).WithField("key", key).Warn("cache write failed")
		}
		return value, nil
	})
	if err != nil {
		return zero, false, err
	}
	return result.(T), false, nil
}

// DeleteByPattern removes every key matching the glob pattern via a
// cursor-driven scan with pipelined deletes, looping until the cursor
// returns to its start sentinel. Returns the number of keys removed.
func (p *Provider) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	var cursor uint64
	deleted := 0

	for {
		next, keys, err := p.store.Scan(ctx, cursor, pattern, scanBatchSize)
		if err != nil {
			return deleted, fmt.Errorf("scan failed for pattern %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := p.store.Del(ctx, keys...); err != nil {
				return deleted, fmt.Errorf("delete failed for pattern %s: %w", pattern, err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if p.metrics != nil && deleted > 0 {
		p.metrics.CacheDeletedKeys.WithLabelValues(entityOf(pattern)).Add(float64(deleted))
	}
	return deleted, nil
}

// Clean removes every cache entry prefixed with the entity/id combination.
// Entity subscribers call this on each lifecycle event.
func (p *Provider) Clean(ctx context.Context, entity string, id int64) error {
	_, err := p.DeleteByPattern(ctx, fmt.Sprintf("%s:%d*", entity, id))
	return err
}

// entityOf labels metrics with the first key segment.
func entityOf(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

func (p *Provider) countHit(key string) {
	if p.metrics != nil {
		p.metrics.CacheHitsTotal.WithLabelValues(entityOf(key)).Inc()
	}
}

func (p *Provider) countMiss(key string) {
	if p.metrics != nil {
		p.metrics.CacheMissesTotal.WithLabelValues(entityOf(key)).Inc()
	}
}

func (p *Provider) countBypass(key string) {
	if p.metrics != nil {
		p.metrics.CacheBypassTotal.WithLabelValues(entityOf(key)).Inc()
	}
}

func (p *Provider) countError(operation string) {
	if p.metrics != nil {
		p.metrics.CacheErrorsTotal.WithLabelValues(operation).Inc()
	}
}
