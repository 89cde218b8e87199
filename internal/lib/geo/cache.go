package geo

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "geocode:"

// missMarker is stored for addresses the service could not resolve.
const missMarker = "null"

// RedisCache keeps geocoding outcomes in Redis with a fixed TTL.
type RedisCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisCache(rdb redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// CacheKey is case-insensitive so "Av. Siempre Viva" and "av. siempre viva"
// share an entry.
func CacheKey(address string) string {
	sum := sha1.Sum([]byte(strings.ToLower(normalizeAddress(address))))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *RedisCache) Lookup(ctx context.Context, address string) (Point, bool, bool, error) {
	raw, err := c.rdb.Get(ctx, CacheKey(address)).Result()
	if errors.Is(err, redis.Nil) {
		return Point{}, false, false, nil
	}
	if err != nil {
		return Point{}, false, false, fmt.Errorf("reading geocode cache: %w", err)
	}

	if raw == missMarker {
		return Point{}, false, true, nil
	}

	var p Point
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		// Corrupt entry, treat as absent so it gets overwritten.
		return Point{}, false, false, nil
	}
	return p, true, true, nil
}

func (c *RedisCache) Store(ctx context.Context, address string, p *Point) error {
	value := missMarker
	if p != nil {
		b, err := json.Marshal(p)
		if err != nil {
			return err
		}
		value = string(b)
	}

	if err := c.rdb.Set(ctx, CacheKey(address), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing geocode cache: %w", err)
	}
	return nil
}
