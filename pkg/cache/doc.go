// Package cache provides the read-through cache with pattern-based
// invalidation.
//
// # Overview
//
// A Store is the raw key/value backend (Redis in production, an in-process
// expirable LRU for tests and small deployments). The Provider adds the
// get-or-compute semantics on top:
//
//	provider := cache.NewProvider(store, logger, metrics, 15*time.Minute)
//	key := provider.BuildKey("user", "42", "read")
//	user, fromCache, err := cache.GetOrCompute(ctx, provider, key, cache.UseDefaultTTL,
//		func(ctx context.Context) (*User, error) {
//			return scope.FirstOrFail(ctx)
//		})
//
// A resolved TTL of zero bypasses the store entirely, which is how caching is
// disabled per environment. Store failures never propagate: lookups and
// writes degrade to calling the compute function directly.
//
// # Invalidation
//
//	provider.Clean(ctx, "user", 42) // removes user:42*
//
// deletes through a cursor-driven SCAN with pipelined DELs, bounded per
// batch, so the store is never blocked by one unbounded glob delete.
//
// # Serialization
//
// Numbers, booleans and plain strings are stored as primitive scalars;
// everything else as JSON text. Only values that look structurally like JSON
// (leading '{', '[' or '"') are parsed back, so plain string values round-trip
// untouched.
package cache
