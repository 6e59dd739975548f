/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package auth

import (
	"context"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/redis/go-redis/v9"
)

// Cache stores resolved connection strings by instance name. Entries are never
// expired or overwritten: the first value stored for an instance is kept for
// the lifetime of the cache.
type Cache interface {
	Get(ctx context.Context, instance string) (string, bool, error)

	// PutIfAbsent stores value unless the instance already has one, and returns
	// the value that is stored afterwards.
	PutIfAbsent(ctx context.Context, instance, value string) (string, error)
}

// DefaultCache is the process-wide cache used by resolvers built without WithCache.
var DefaultCache Cache = NewMemoryCache()

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	entries *xsync.MapOf[string, string]
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: xsync.NewMapOf[string, string]()}
}

func (m *MemoryCache) Get(_ context.Context, instance string) (string, bool, error) {
	v, ok := m.entries.Load(instance)
	return v, ok, nil
}

func (m *MemoryCache) PutIfAbsent(_ context.Context, instance, value string) (string, error) {
	actual, _ := m.entries.LoadOrStore(instance, value)
	return actual, nil
}

// Len returns the number of cached instances.
func (m *MemoryCache) Len() int {
	return m.entries.Size()
}

// RedisCache shares connection strings between processes through Redis.
// Keys are written with SETNX and no TTL.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCache creates a cache storing entries under prefix+instance.
func NewRedisCache(client redis.UniversalClient, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "tablestore:connstr:"
	}
	return &RedisCache{client: client, prefix: prefix}
}

func (r *RedisCache) Get(ctx context.Context, instance string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.prefix+instance).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cached connection string for %s: %w", instance, err)
	}
	return v, true, nil
}

func (r *RedisCache) PutIfAbsent(ctx context.Context, instance, value string) (string, error) {
	key := r.prefix + instance
	stored, err := r.client.SetNX(ctx, key, value, 0).Result()
	if err != nil {
		return "", fmt.Errorf("failed to cache connection string for %s: %w", instance, err)
	}
	if stored {
		return value, nil
	}
	v, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("failed to read cached connection string for %s: %w", instance, err)
	}
	return v, nil
}
