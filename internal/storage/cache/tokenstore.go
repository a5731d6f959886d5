// Package cache adds a read-aside Redis layer on top of any token store.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/tinywideclouds/go-push-dispatch/pkg/dispatch"
	"github.com/tinywideclouds/go-push-dispatch/pkg/notification"
)

// CacheClient defines the subset of Redis commands we need.
type CacheClient interface {
	// Get returns the value or a specific error if not found.
	Get(ctx context.Context, key string, dest interface{}) error
	// Set stores the value with a TTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Del removes the key.
	Del(ctx context.Context, key string) error
}

// CachedTokenStore is a decorator that adds read-aside caching to any
// TokenStore. Only successful lookups are cached; benign misses always go to
// the source of truth.
type CachedTokenStore struct {
	realStore dispatch.TokenStore
	cache     CacheClient
	ttl       time.Duration
}

func NewCachedTokenStore(realStore dispatch.TokenStore, cache CacheClient, ttl time.Duration) *CachedTokenStore {
	return &CachedTokenStore{
		realStore: realStore,
		cache:     cache,
		ttl:       ttl,
	}
}

// --- READ PATH (Read-Aside) ---

func (s *CachedTokenStore) Lookup(ctx context.Context, userID string) (notification.DeviceToken, error) {
	key := s.cacheKey(userID)

	var cached notification.DeviceToken
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	fresh, err := s.realStore.Lookup(ctx, userID)
	if err != nil {
		return notification.DeviceToken{}, err
	}

	// Populate cache, fire and forget. Caching is an optimization, not a
	// transaction: if Redis is down we just serve from the store.
	_ = s.cache.Set(ctx, key, fresh, s.ttl)

	return fresh, nil
}

// --- WRITE PATHS (Invalidate-on-Write) ---

func (s *CachedTokenStore) Upsert(ctx context.Context, userID string, token string) error {
	if err := s.realStore.Upsert(ctx, userID, token); err != nil {
		return err
	}
	return s.invalidate(ctx, userID)
}

// Clear must drop the cached entry even though the store write succeeded,
// otherwise a discarded token keeps receiving sends until the TTL expires.
func (s *CachedTokenStore) Clear(ctx context.Context, userID string) error {
	if err := s.realStore.Clear(ctx, userID); err != nil {
		return err
	}
	return s.invalidate(ctx, userID)
}

// --- Helpers ---

func (s *CachedTokenStore) invalidate(ctx context.Context, userID string) error {
	return s.cache.Del(ctx, s.cacheKey(userID))
}

func (s *CachedTokenStore) cacheKey(userID string) string {
	return fmt.Sprintf("dispatch:token:%s", userID)
}
