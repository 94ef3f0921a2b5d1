package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vavipcommerce/vavip-backend/pkg/logger"
)

// Store is the slice of the redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(family, hash string) string
	CacheFamilyPattern(family string) string
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)
}

// Cache implements read-through caching over redis. Values are JSON encoded
// and keyed by an md5 of the call arguments. Redis failures fall through to
// the compute function; the cache is advisory, never load-bearing.
type Cache struct {
	store Store
	logg  *logger.Logger
}

// New wires a cache to the provided store.
func New(store Store, logg *logger.Logger) (*Cache, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &Cache{store: store, logg: logg}, nil
}

// Key derives the cache key for a family and its call arguments.
func (c *Cache) Key(family string, args ...any) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, fmt.Sprint(arg))
	}
	sum := md5.Sum([]byte(strings.Join(parts, "|")))
	return c.store.CacheKey(family, hex.EncodeToString(sum[:]))
}

// GetOrCompute returns the cached value for the family/args pair, computing
// and storing it on a miss. dest must be a pointer the JSON codec can fill.
func (c *Cache) GetOrCompute(ctx context.Context, dest any, ttl time.Duration, family string, args []any, compute func(ctx context.Context) (any, error)) error {
	key := c.Key(family, args...)

	if raw, err := c.store.Get(ctx, key); err == nil {
		if err := json.Unmarshal([]byte(raw), dest); err == nil {
			return nil
		}
		// corrupt entry, recompute below
	}

	value, err := compute(ctx)
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}

	if err := c.store.Set(ctx, key, string(encoded), ttl); err != nil && c.logg != nil {
		c.logg.Warn(c.logg.WithField(ctx, "cache_family", family), "cache.store_failed")
	}

	return json.Unmarshal(encoded, dest)
}

// Invalidate drops every cached entry in the family.
func (c *Cache) Invalidate(ctx context.Context, families ...string) {
	for _, family := range families {
		if _, err := c.store.DeleteByPattern(ctx, c.store.CacheFamilyPattern(family)); err != nil && c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "cache_family", family), "cache.invalidate_failed")
		}
	}
}
