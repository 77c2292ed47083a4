package cache

import (
	"context"
	"errors"
	"fmt"
	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "routeopt:matrix:"

// Redis-backed matrix cache shared across service instances. Entries are JSON
// payloads expiring after the configured TTL.
type RedisMatrixCache struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ ports.MatrixCache = (*RedisMatrixCache)(nil)

func NewRedisMatrixCache(rdb *redis.Client, ttl time.Duration) *RedisMatrixCache {
	return &RedisMatrixCache{rdb: rdb, ttl: ttl}
}

// OpenRedis connects using a redis:// URL and verifies the connection.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("open redis: parse url: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("open redis: ping: %w", err)
	}
	return rdb, nil
}

func (c *RedisMatrixCache) Get(ctx context.Context, fp string) (_ *domain.CostMatrix, _ bool, err error) {
	defer obs.Time(ctx, "matrix.cache.redis.Get")(&err)

	b, err := c.rdb.Get(ctx, redisKeyPrefix+fp).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get matrix cache: %w", err)
	}

	m, err := decodeMatrix(b)
	if err != nil {
		return nil, false, fmt.Errorf("get matrix cache %s: %w", fp, err)
	}
	return m, true, nil
}

func (c *RedisMatrixCache) Put(ctx context.Context, fp string, m *domain.CostMatrix) (err error) {
	defer obs.Time(ctx, "matrix.cache.redis.Put")(&err)

	if err := checkFingerprint(fp); err != nil {
		return err
	}
	b, err := encodeMatrix(m)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, redisKeyPrefix+fp, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("put matrix cache: %w", err)
	}
	return nil
}

func (c *RedisMatrixCache) Invalidate(ctx context.Context, fp string) error {
	if err := c.rdb.Del(ctx, redisKeyPrefix+fp).Err(); err != nil {
		return fmt.Errorf("invalidate matrix cache: %w", err)
	}
	return nil
}
