// Package schema is the Schema Oracle: it fetches and caches a per-task
// canonical catalog snapshot (spec.md §4.5 Schema Oracle). The per-task
// cache is a plain map; an optional process-wide Redis layer backs the
// cache described in spec.md §9 "Schema caching across workers", adapted
// from the teacher's RedisCache (services/redis_cache.go).
package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sqlens-agent/pgoptimizer/internal/domain"
)

// ProcessCache is the optional process-wide layer, keyed by
// (database, catalog-version) so DDL in one task cannot serve stale data
// to another (spec.md §9).
type ProcessCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProcessCache(client *redis.Client, ttl time.Duration) *ProcessCache {
	return &ProcessCache{client: client, ttl: ttl}
}

func cacheKey(database string, catalogVersion int64) string {
	return fmt.Sprintf("schema:%s:%d", database, catalogVersion)
}

// Get returns the cached schema, or (nil, nil) on a clean miss.
func (c *ProcessCache) Get(ctx context.Context, database string, catalogVersion int64) (*domain.Schema, error) {
	raw, err := c.client.Get(ctx, cacheKey(database, catalogVersion)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("schema: cache get: %w", err)
	}
	var s domain.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("schema: cache decode: %w", err)
	}
	return &s, nil
}

// Set stores s under (database, catalogVersion) with the configured TTL.
func (c *ProcessCache) Set(ctx context.Context, database string, catalogVersion int64, s *domain.Schema) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("schema: cache encode: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(database, catalogVersion), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("schema: cache set: %w", err)
	}
	return nil
}

// Invalidate drops the cached entry for a catalog version, used after a
// CreateIndex action bumps the version (spec.md §8.1 "Schema invalidation").
func (c *ProcessCache) Invalidate(ctx context.Context, database string, catalogVersion int64) error {
	if err := c.client.Del(ctx, cacheKey(database, catalogVersion)).Err(); err != nil {
		return fmt.Errorf("schema: cache invalidate: %w", err)
	}
	return nil
}
