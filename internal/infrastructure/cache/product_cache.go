package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/example/ec-order-sync/internal/domain/catalog"
)

const (
	productKeyPrefix = "product:"
	defaultTTL       = time.Hour
)

// ProductCache resolves product details through Redis with the catalog
// store as fallback. Entries are advisory only: a miss or a Redis
// fault falls through to a live fetch, never to a failure.
type ProductCache struct {
	rdb    *redis.Client
	source catalog.Store
	ttl    time.Duration
	logger *zap.Logger
}

func NewProductCache(rdb *redis.Client, source catalog.Store, logger *zap.Logger) *ProductCache {
	return &ProductCache{rdb: rdb, source: source, ttl: defaultTTL, logger: logger}
}

// ConnectRedis dials Redis and verifies the connection.
func ConnectRedis(addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return rdb, nil
}

// Product returns the cached product or fetches it from the catalog
// store and populates the cache.
func (c *ProductCache) Product(ctx context.Context, id string) (*catalog.Product, error) {
	key := productKeyPrefix + id

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var p catalog.Product
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		c.logger.Warn("dropping corrupt cache entry", zap.String("key", key))
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("cache read failed, falling back to catalog",
			zap.String("product_id", id), zap.Error(err))
	}

	p, err := c.source.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.set(ctx, p); err != nil {
		c.logger.Warn("cache populate failed", zap.String("product_id", id), zap.Error(err))
	}
	return p, nil
}

// Refresh overwrites the cache entry with the given product state.
func (c *ProductCache) Refresh(ctx context.Context, p *catalog.Product) error {
	return c.set(ctx, p)
}

// Invalidate removes the cache entry.
func (c *ProductCache) Invalidate(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, productKeyPrefix+id).Err()
}

func (c *ProductCache) set(ctx context.Context, p *catalog.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, productKeyPrefix+p.ID, data, c.ttl).Err()
}
