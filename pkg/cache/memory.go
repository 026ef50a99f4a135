package cache

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// memoryEntry carries the per-entry deadline; the LRU's own TTL is only a
// backstop for entries written with a longer expiry than the cache maximum.
type memoryEntry struct {
	value   string
	expires time.Time
}

// MemoryStore implements Store on an in-process expirable LRU. It serves
// tests and deployments that run without Redis; the provider semantics are
// identical.
type MemoryStore struct {
	lru *expirable.LRU[string, memoryEntry]
}

// MemoryStoreCapacity bounds the in-process cache.
const MemoryStoreCapacity = 4096

// memoryStoreMaxTTL is the backstop eviction horizon of the underlying LRU.
const memoryStoreMaxTTL = 24 * time.Hour

// NewMemoryStore creates an in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lru: expirable.NewLRU[string, memoryEntry](MemoryStoreCapacity, nil, memoryStoreMaxTTL),
	}
}

// Get retrieves value for key, honoring the per-entry deadline.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	entry, ok := s.lru.Get(key)
	if !ok {
		return "", ErrCacheMiss
	}
	if !entry.expires.IsZero() && time.Now().After(entry.expires) {
		s.lru.Remove(key)
		return "", ErrCacheMiss
	}
	return entry.value, nil
}

// Set stores value under key with the given TTL.
func (s *MemoryStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expires = time.Now().Add(ttl)
	}
	s.lru.Add(key, entry)
	return nil
}

// Scan returns all keys matching the glob pattern in a single batch; the
// returned cursor is always 0.
func (s *MemoryStore) Scan(ctx context.Context, cursor uint64, pattern string, count int64) (uint64, []string, error) {
	matcher, err := globToRegexp(pattern)
	if err != nil {
		return 0, nil, err
	}

	var keys []string
	for _, key := range s.lru.Keys() {
		if matcher.MatchString(key) {
			keys = append(keys, key)
		}
	}
	return 0, keys, nil
}

// Del removes the given keys.
func (s *MemoryStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		s.lru.Remove(key)
	}
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.lru.Purge()
	return nil
}

// globToRegexp compiles a redis-style glob ('*' and '?') into a regexp.
func globToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
