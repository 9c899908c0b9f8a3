// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// post.go provides a Valkey-backed cache of rendered single-post views.
// Entries are namespaced by tenant so one tenant's writes only evict that
// tenant's views. A nil *PostCache is valid and caches nothing.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// postKeyPrefix is the Valkey key prefix for cached post views.
	postKeyPrefix = "post:"

	// DefaultPostTTL is how long a post view stays cached.
	DefaultPostTTL = 5 * time.Minute
)

// PostCache manages cached post views in Valkey.
type PostCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPostCache creates a new post cache backed by the given Valkey client.
func NewPostCache(client *redis.Client, ttl time.Duration) *PostCache {
	if ttl == 0 {
		ttl = DefaultPostTTL
	}
	return &PostCache{client: client, ttl: ttl}
}

// Key returns the cache key for one lookup (id or slug) within a tenant.
func Key(tenantID uuid.UUID, lookup string) string {
	return postKeyPrefix + tenantID.String() + ":" + lookup
}

func tenantPattern(tenantID uuid.UUID) string {
	return postKeyPrefix + tenantID.String() + ":*"
}

// Get retrieves a cached view. Returns false on miss or error.
func (pc *PostCache) Get(ctx context.Context, tenantID uuid.UUID, lookup string) ([]byte, bool) {
	if pc == nil {
		return nil, false
	}
	val, err := pc.client.Get(ctx, Key(tenantID, lookup)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("post cache get error", "tenant_id", tenantID, "lookup", lookup, "error", err)
		return nil, false
	}
	slog.Debug("post cache hit", "tenant_id", tenantID, "lookup", lookup)
	return val, true
}

// Set stores a view with the configured TTL.
func (pc *PostCache) Set(ctx context.Context, tenantID uuid.UUID, lookup string, data []byte) {
	if pc == nil {
		return
	}
	if err := pc.client.Set(ctx, Key(tenantID, lookup), data, pc.ttl).Err(); err != nil {
		slog.Warn("post cache set error", "tenant_id", tenantID, "lookup", lookup, "error", err)
	}
}

// InvalidateTenant removes every cached view of the tenant by scanning for
// its prefix. Any post write can change another post's navigation links,
// so writes evict the whole tenant rather than one key.
func (pc *PostCache) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) {
	if pc == nil {
		return
	}
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := pc.client.Scan(ctx, cursor, tenantPattern(tenantID), 100).Result()
		if err != nil {
			slog.Warn("post cache scan error", "tenant_id", tenantID, "error", err)
			return
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("post cache bulk delete error", "tenant_id", tenantID, "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Debug("post cache invalidated", "tenant_id", tenantID, "deleted", deleted)
	}
}
